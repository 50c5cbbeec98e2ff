// Package grades handles the grade-assignment screen: team details and each
// registered player's default team for a season.
package grades

import (
	"context"
	"errors"
	"fmt"

	"github.com/westhockey/clubhouse/internal/db"
)

var (
	ErrNoTeams   = errors.New("no team data available for the season")
	ErrNoPlayers = errors.New("no player data available for the season")
)

// TeamRow is one team's editable details.
type TeamRow struct {
	TeamID        string `json:"team_id"`
	Grade         string `json:"grade"`
	Team          string `json:"team"`
	Manager       string `json:"manager"`
	ManagerMobile string `json:"manager_mobile"`
	ManagerEmail  string `json:"manager_email"`
	TeamOrder     int    `json:"team_order"`
}

// TeamColumns is the team snapshot schema.
var TeamColumns = []string{
	"team_id",
	"grade",
	"team",
	"manager",
	"manager_mobile",
	"manager_email",
	"team_order",
}

// PlayerRow is one registered player's default team assignment.
type PlayerRow struct {
	RegistrationID string `json:"registration_id"`
	PlayerName     string `json:"players_name"`
	Team           string `json:"team"`
	Grade          string `json:"grade"`
}

// PlayerColumns is the player assignment snapshot schema.
var PlayerColumns = []string{
	"registration_id",
	"players_name",
	"team",
	"grade",
}

// FullTeamName is the display name players are assigned against.
func (t TeamRow) FullTeamName() string {
	return t.Team + " - " + t.Grade
}

// Teams loads the season's teams in display order.
func Teams(ctx context.Context, database *db.DB, season string) ([]TeamRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			id AS team_id,
			grade,
			team,
			COALESCE(manager, ''),
			COALESCE(manager_mobile, ''),
			COALESCE(manager_email, ''),
			team_order
		FROM teams
		WHERE season = ?
		ORDER BY team_order, grade`,
		season,
	)
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	defer rows.Close()

	var teams []TeamRow
	for rows.Next() {
		var t TeamRow
		if err := rows.Scan(&t.TeamID, &t.Grade, &t.Team, &t.Manager, &t.ManagerMobile, &t.ManagerEmail, &t.TeamOrder); err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, ErrNoTeams
	}
	return teams, nil
}

// Players loads the season's registered players with their current default
// team and grade.
func Players(ctx context.Context, database *db.DB, season string) ([]PlayerRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			r.id AS registration_id,
			p.full_name AS players_name,
			COALESCE(r.team, ''),
			COALESCE(r.grade, '')
		FROM players AS p
		INNER JOIN registrations AS r ON p.id = r.national_id
		WHERE r.season = ?
		ORDER BY r.team, p.full_name`,
		season,
	)
	if err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	defer rows.Close()

	var players []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.RegistrationID, &p.PlayerName, &p.Team, &p.Grade); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	return players, nil
}
