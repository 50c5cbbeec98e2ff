package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/selections"
)

// SendWeekSheets emails each team manager their roster for the most recent
// game week. Teams without a manager email are skipped; one failed send does
// not stop the rest.
func SendWeekSheets(ctx context.Context, database *db.DB, sender EmailSender, season string) error {
	weekEnding, err := selections.LastGameDate(ctx, database, season)
	if err != nil {
		if errors.Is(err, selections.ErrNoGames) {
			log.Ctx(ctx).Info().Str("season", season).Msg("No games this week, skipping sheet emails")
			return nil
		}
		return err
	}

	sheet, err := selections.WeekSheet(ctx, database, season, weekEnding)
	if err != nil {
		if errors.Is(err, selections.ErrNoSelections) {
			log.Ctx(ctx).Info().Str("season", season).Msg("No selections this week, skipping sheet emails")
			return nil
		}
		return err
	}

	var sent, skipped, failed int
	for _, team := range teamOrder(sheet) {
		rows := teamRows(sheet, team)
		recipient := rows[0].ManagerEmail
		if recipient == "" {
			skipped++
			continue
		}

		subject := fmt.Sprintf("%s selections, round %s", team, rows[0].Round)
		if err := sender.Send(ctx, recipient, subject, TeamSheetBody(rows)); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("team", team).Msg("Failed to email team sheet")
			failed++
			continue
		}
		sent++
	}

	log.Ctx(ctx).Info().
		Str("season", season).
		Int("sent", sent).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Week sheet emails done")
	if failed > 0 {
		return fmt.Errorf("%d of %d sheet emails failed", failed, sent+failed)
	}
	return nil
}

// TeamSheetBody renders one team's sheet rows as a plain-text email body.
func TeamSheetBody(rows []selections.SheetRow) string {
	if len(rows) == 0 {
		return ""
	}
	head := rows[0]

	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s\n", head.TeamName, head.Opposition)
	fmt.Fprintf(&b, "%s\n", head.GameTime)
	if head.Location != "" {
		fmt.Fprintf(&b, "%s", head.Location)
		if head.Field != "" {
			fmt.Fprintf(&b, ", %s", head.Field)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSelected players:\n")
	for _, row := range rows {
		if row.GoalKeeper {
			fmt.Fprintf(&b, "  %s (GK)\n", row.PlayerName)
		} else {
			fmt.Fprintf(&b, "  %s\n", row.PlayerName)
		}
	}
	if head.Manager != "" {
		fmt.Fprintf(&b, "\nManager: %s", head.Manager)
		if head.ManagerMobile != "" {
			fmt.Fprintf(&b, " (%s)", head.ManagerMobile)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// teamOrder returns the distinct team names in sheet order.
func teamOrder(sheet []selections.SheetRow) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, row := range sheet {
		if !seen[row.TeamName] {
			seen[row.TeamName] = true
			teams = append(teams, row.TeamName)
		}
	}
	return teams
}

func teamRows(sheet []selections.SheetRow, team string) []selections.SheetRow {
	var rows []selections.SheetRow
	for _, row := range sheet {
		if row.TeamName == team {
			rows = append(rows, row)
		}
	}
	return rows
}
