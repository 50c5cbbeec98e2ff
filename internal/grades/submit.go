package grades

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/reconcile"
)

// DefaultPhoneRegion applies when a manager mobile is entered without a
// country code.
const DefaultPhoneRegion = "AU"

// Outcome reports what a grade-assignment submit wrote.
type Outcome struct {
	TeamsUpdated   int `json:"teams_updated"`
	PlayersUpdated int `json:"players_updated"`
}

// SubmitTeams writes edited team details: manager, manager mobile (stored
// normalized), manager email and display order. Teams are created by the
// season import, never here, so every changed row is an update.
func SubmitTeams(ctx context.Context, database *db.DB, original, edited []TeamRow) (Outcome, error) {
	edited = NormalizeTeams(edited)

	changed := reconcile.Changed(original, edited, func(t TeamRow) string { return t.TeamID })

	var outcome Outcome
	for _, row := range changed {
		if err := database.UpdateColumn(ctx, "teams", "manager", row.TeamID, row.Manager); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "teams", "manager_mobile", row.TeamID, row.ManagerMobile); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "teams", "manager_email", row.TeamID, row.ManagerEmail); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "teams", "team_order", row.TeamID, row.TeamOrder); err != nil {
			return outcome, err
		}
		outcome.TeamsUpdated++
		log.Ctx(ctx).Info().Str("team_id", row.TeamID).Msg("Team details updated")
	}
	return outcome, nil
}

// SubmitPlayers writes edited default team assignments. The chosen team name
// resolves to a team id against the season's teams; a blank grade defaults
// to the grade suffix of the team name.
func SubmitPlayers(ctx context.Context, database *db.DB, teams []TeamRow, original, edited []PlayerRow) (Outcome, error) {
	edited = NormalizePlayers(edited)

	changed := reconcile.Changed(original, edited, func(p PlayerRow) string { return p.RegistrationID })

	teamIDByName := make(map[string]string, len(teams))
	for _, t := range teams {
		teamIDByName[t.FullTeamName()] = t.TeamID
	}

	var outcome Outcome
	for _, row := range changed {
		teamID, ok := teamIDByName[row.Team]
		if !ok && row.Team != "" {
			return outcome, fmt.Errorf("unknown team %q for registration %s", row.Team, row.RegistrationID)
		}
		if err := database.UpdateColumn(ctx, "registrations", "team_id", row.RegistrationID, nullable(teamID)); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "registrations", "team", row.RegistrationID, nullable(row.Team)); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "registrations", "grade", row.RegistrationID, nullable(row.Grade)); err != nil {
			return outcome, err
		}
		outcome.PlayersUpdated++
		log.Ctx(ctx).Info().
			Str("registration_id", row.RegistrationID).
			Str("team", row.Team).
			Str("grade", row.Grade).
			Msg("Player assignment updated")
	}
	return outcome, nil
}

// NormalizeTeams formats manager mobiles into national format. Numbers that
// fail to parse are left as entered; the grid highlights them instead.
func NormalizeTeams(rows []TeamRow) []TeamRow {
	normalized := make([]TeamRow, len(rows))
	for i, row := range rows {
		if mobile := strings.TrimSpace(row.ManagerMobile); mobile != "" {
			if parsed, err := phonenumbers.Parse(mobile, DefaultPhoneRegion); err == nil && phonenumbers.IsValidNumber(parsed) {
				row.ManagerMobile = phonenumbers.Format(parsed, phonenumbers.NATIONAL)
			}
		}
		normalized[i] = row
	}
	return normalized
}

// NormalizePlayers fills a blank grade from the team name's grade suffix,
// e.g. "West Green - 1st" assigns grade "1st".
func NormalizePlayers(rows []PlayerRow) []PlayerRow {
	normalized := make([]PlayerRow, len(rows))
	for i, row := range rows {
		if row.Grade == "" && row.Team != "" {
			parts := strings.Split(row.Team, "-")
			row.Grade = strings.TrimSpace(parts[len(parts)-1])
		}
		normalized[i] = row
	}
	return normalized
}

// nullable maps an empty string to NULL so cleared assignments do not leave
// empty-string markers behind.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
