package results

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/reconcile"
)

// GameOutcome reports what a game results submit wrote.
type GameOutcome struct {
	Updated int `json:"updated"`
}

// PlayerOutcome reports what a player results submit wrote. Suppressed
// counts rows the diff flagged as changed whose stat delta was zero, so the
// results table was left alone.
type PlayerOutcome struct {
	SelectionsUpdated int `json:"selections_updated"`
	SelectionsCreated int `json:"selections_created"`
	ResultsUpdated    int `json:"results_updated"`
	ResultsCreated    int `json:"results_created"`
	Suppressed        int `json:"suppressed"`
}

// SubmitGames writes edited score lines. Games always exist by the time
// scores are recorded, so every changed row is an update.
func SubmitGames(ctx context.Context, database *db.DB, original, edited []GameRow) (GameOutcome, error) {
	changed := reconcile.Changed(original, edited, func(g GameRow) string { return g.GameID })

	var outcome GameOutcome
	for _, row := range changed {
		if err := database.UpdateColumn(ctx, "games", "goals_for", row.GameID, row.GoalsFor); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "games", "goals_against", row.GameID, row.GoalsAgainst); err != nil {
			return outcome, err
		}
		outcome.Updated++
		log.Ctx(ctx).Info().
			Str("game_id", row.GameID).
			Int("goals_for", row.GoalsFor).
			Int("goals_against", row.GoalsAgainst).
			Msg("Game result updated")
	}
	return outcome, nil
}

// SubmitPlayers writes edited player results. Selection fields (played,
// goal_keeper) are written unconditionally for every changed row; writes to
// the results table are suppressed when the row's stat delta is zero, e.g.
// when only the played toggle moved.
func SubmitPlayers(ctx context.Context, database *db.DB, original, edited []PlayerRow) (PlayerOutcome, error) {
	edited = Normalize(edited)

	changed := reconcile.Changed(original, edited, func(r PlayerRow) string { return r.SelectionID })
	if len(changed) == 0 {
		return PlayerOutcome{}, nil
	}

	originalByID := make(map[string]PlayerRow, len(original))
	for _, row := range original {
		originalByID[row.SelectionID] = row
	}

	var outcome PlayerOutcome

	selUpdates, selCreates := reconcile.Partition(changed, func(r PlayerRow) bool { return r.CreateSelections })
	for _, row := range selUpdates {
		if err := database.UpdateColumn(ctx, "selections", "played", row.SelectionID, row.Played); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "selections", "goal_keeper", row.SelectionID, row.GoalKeeper); err != nil {
			return outcome, err
		}
		outcome.SelectionsUpdated++
	}
	for _, row := range selCreates {
		err := database.InsertRow(ctx, "selections",
			[]string{"id", "create_ts", "update_ts", "game_id", "player_id", "goal_keeper", "selected", "played"},
			[]any{row.SelectionID, db.Timestamp(), db.Timestamp(), row.GameID, row.PlayerID, row.GoalKeeper, row.Selected, row.Played},
		)
		if err != nil {
			return outcome, err
		}
		outcome.SelectionsCreated++
	}

	resUpdates, resCreates := reconcile.Partition(changed, func(r PlayerRow) bool { return r.CreateResults })
	for _, row := range resUpdates {
		if row.StatSum()-originalByID[row.SelectionID].StatSum() == 0 {
			outcome.Suppressed++
			log.Ctx(ctx).Debug().
				Str("selection_id", row.SelectionID).
				Msg("Result write suppressed: zero stat delta")
			continue
		}
		if err := database.UpdateColumn(ctx, "results", "goals", row.SelectionID, row.Goals); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "results", "red_card", row.SelectionID, row.RedCard); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "results", "yellow_card", row.SelectionID, row.YellowCard); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "results", "green_card", row.SelectionID, row.GreenCard); err != nil {
			return outcome, err
		}
		outcome.ResultsUpdated++
	}
	for _, row := range resCreates {
		if row.StatSum() == 0 {
			outcome.Suppressed++
			continue
		}
		err := database.InsertRow(ctx, "results",
			[]string{"id", "create_ts", "update_ts", "goals", "red_card", "yellow_card", "green_card"},
			[]any{row.SelectionID, db.Timestamp(), db.Timestamp(), row.Goals, row.RedCard, row.YellowCard, row.GreenCard},
		)
		if err != nil {
			return outcome, err
		}
		outcome.ResultsCreated++
	}
	return outcome, nil
}

// Normalize applies the editing rules the grid enforces: any recorded stat
// means the player played.
func Normalize(rows []PlayerRow) []PlayerRow {
	normalized := make([]PlayerRow, len(rows))
	for i, row := range rows {
		if row.Goals > 0 || row.GreenCard > 0 || row.YellowCard > 0 || row.RedCard > 0 {
			row.Played = true
		}
		normalized[i] = row
	}
	return normalized
}
