package selections

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/reconcile"
)

// Outcome reports what a roster submit wrote, plus any advisory warnings.
// Keeper conflicts do not block the write.
type Outcome struct {
	Updated         int              `json:"updated"`
	Created         int              `json:"created"`
	KeeperConflicts []KeeperConflict `json:"keeper_conflicts,omitempty"`
}

// SubmitRoster diffs the edited roster against the original snapshot and
// writes the minimal set of mutations: per-column updates for rows with a
// persisted selection, full inserts for virtual rows.
//
// Writes are one statement per row with no surrounding transaction; a
// failure mid-loop leaves earlier rows committed and later rows untouched.
func SubmitRoster(ctx context.Context, database *db.DB, original, edited []Row) (Outcome, error) {
	edited = Normalize(edited)

	changed := reconcile.Changed(original, edited, func(r Row) string { return r.SelectionID })
	if len(changed) == 0 {
		return Outcome{}, nil
	}

	updates, creates := reconcile.Partition(changed, func(r Row) bool { return r.CreateSelection })

	outcome := Outcome{KeeperConflicts: DuplicateKeepers(edited)}
	for _, row := range updates {
		if err := database.UpdateColumn(ctx, "selections", "goal_keeper", row.SelectionID, row.GoalKeeper); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "selections", "selected", row.SelectionID, row.Selected); err != nil {
			return outcome, err
		}
		outcome.Updated++
		log.Ctx(ctx).Info().
			Str("selection_id", row.SelectionID).
			Bool("selected", row.Selected).
			Bool("goal_keeper", row.GoalKeeper).
			Msg("Selection updated")
	}
	for _, row := range creates {
		err := database.InsertRow(ctx, "selections",
			[]string{"id", "create_ts", "update_ts", "game_id", "player_id", "goal_keeper", "selected"},
			[]any{row.SelectionID, db.Timestamp(), db.Timestamp(), row.GameID, row.PlayerID, row.GoalKeeper, row.Selected},
		)
		if err != nil {
			return outcome, err
		}
		outcome.Created++
		log.Ctx(ctx).Info().
			Str("selection_id", row.SelectionID).
			Bool("selected", row.Selected).
			Bool("goal_keeper", row.GoalKeeper).
			Msg("Selection created")
	}
	return outcome, nil
}

// Normalize applies the editing rules the grid enforces: a goal keeper is
// always selected.
func Normalize(rows []Row) []Row {
	normalized := make([]Row, len(rows))
	for i, row := range rows {
		if row.GoalKeeper {
			row.Selected = true
		}
		normalized[i] = row
	}
	return normalized
}

// VerifyCompleteness confirms the materializer guarantee: exactly one row
// per (game, player) pair, no duplicates and no gaps.
func VerifyCompleteness(rows []Row) error {
	games := make(map[string]bool)
	players := make(map[string]bool)
	pairs := make(map[[2]string]bool, len(rows))
	for _, row := range rows {
		pair := [2]string{row.GameID, row.PlayerID}
		if pairs[pair] {
			return fmt.Errorf("duplicate roster row for game %s player %s", row.GameID, row.PlayerID)
		}
		pairs[pair] = true
		games[row.GameID] = true
		players[row.PlayerID] = true
	}
	if want := len(games) * len(players); len(rows) != want {
		return fmt.Errorf("roster has %d rows, want %d (%d games x %d players)",
			len(rows), want, len(games), len(players))
	}
	return nil
}
