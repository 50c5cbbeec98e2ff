// Package results records game scores and per-player statistics for a
// week's fixtures, reusing the materialize/diff/classify pipeline from the
// selections screen.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/westhockey/clubhouse/internal/db"
)

var (
	ErrNoGames   = errors.New("no games found for the week")
	ErrNoPlayers = errors.New("no players found for the round")
)

const weekInterval = 6

// GameRow is one fixture's score line.
type GameRow struct {
	GameID       string `json:"game_id"`
	TeamName     string `json:"team_name"`
	Opposition   string `json:"opposition"`
	Round        string `json:"round"`
	GameTime     string `json:"game_time"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
}

// GameColumns is the game results snapshot schema.
var GameColumns = []string{
	"game_id",
	"team_name",
	"opposition",
	"round",
	"game_time",
	"goals_for",
	"goals_against",
}

// PlayerRow is one (game, player) pair in the player results working set.
// It carries two create flags: the selection row and the result row can each
// independently not exist yet.
type PlayerRow struct {
	SelectionID      string `json:"selection_id"`
	CreateSelections bool   `json:"create_selections"`
	CreateResults    bool   `json:"create_results"`
	GameID           string `json:"game_id"`
	PlayerID         string `json:"player_id"`
	Opposition       string `json:"opposition"`
	PlayerName       string `json:"players_name"`
	Grade            string `json:"players_grade"`
	Selected         bool   `json:"selected"`
	GoalKeeper       bool   `json:"goal_keeper"`
	Played           bool   `json:"played"`
	Goals            int    `json:"goals"`
	GreenCard        int    `json:"green_card"`
	YellowCard       int    `json:"yellow_card"`
	RedCard          int    `json:"red_card"`
}

// PlayerColumns is the player results snapshot schema.
var PlayerColumns = []string{
	"selection_id",
	"create_selections",
	"create_results",
	"game_id",
	"player_id",
	"opposition",
	"players_name",
	"players_grade",
	"selected",
	"goal_keeper",
	"played",
	"goals",
	"green_card",
	"yellow_card",
	"red_card",
}

// StatSum is the statistical weight of a row, used for zero-delta
// suppression of no-op result writes.
func (r PlayerRow) StatSum() int {
	return r.Goals + r.GreenCard + r.YellowCard + r.RedCard
}

// WeekGames loads the score lines for the week ending at the filter date.
func WeekGames(ctx context.Context, database *db.DB, season string, weekEnding time.Time) ([]GameRow, error) {
	start, end := weekBounds(weekEnding)
	rows, err := database.QueryContext(ctx, `
		SELECT
			g.id AS game_id,
			t.team || ' - ' || t.grade AS team_name,
			COALESCE(g.opposition, ''),
			g.round,
			g.start_ts,
			COALESCE(g.goals_for, 0),
			COALESCE(g.goals_against, 0)
		FROM games AS g
		INNER JOIN teams AS t ON g.team_id = t.id
		WHERE g.season = ? AND g.start_ts BETWEEN ? AND ?
		ORDER BY t.team_order`,
		season, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("week games: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		var startTS string
		if err := rows.Scan(&g.GameID, &g.TeamName, &g.Opposition, &g.Round, &startTS, &g.GoalsFor, &g.GoalsAgainst); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		g.GameTime = formatGameTime(startTS)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("week games: %w", err)
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	return games, nil
}

// PlayerResults materializes the player working set for a team's round:
// every registered player crossed with the round's games, left-joined
// against persisted selection and result rows. Players are marked off
// regardless of whether they were selected.
func PlayerResults(ctx context.Context, database *db.DB, season, round, team string) ([]PlayerRow, error) {
	rows, err := database.QueryContext(ctx, `
		WITH _games AS (
			SELECT
				g.id AS game_id,
				COALESCE(g.opposition, '') AS opposition
			FROM games AS g
			INNER JOIN teams AS t ON g.team_id = t.id
			WHERE
				g.season = ?
				AND g.round = ?
				AND t.team || ' - ' || t.grade = ?
		),

		_selections AS (
			SELECT s.id AS selection_id, s.player_id, s.game_id, s.goal_keeper, s.selected, s.played
			FROM selections AS s
			INNER JOIN _games AS g ON s.game_id = g.game_id
		),

		_registered_players AS (
			SELECT
				g.game_id,
				g.opposition,
				p.id AS player_id,
				p.full_name AS players_name,
				COALESCE(r.grade, '') AS players_grade
			FROM players AS p
			INNER JOIN registrations AS r ON p.id = r.national_id
			CROSS JOIN _games AS g
			WHERE r.season = ?
		)

		SELECT
			COALESCE(s.selection_id, rp.game_id || rp.player_id) AS selection_id,
			CASE WHEN s.selection_id IS NULL THEN TRUE ELSE FALSE END AS create_selections,
			CASE WHEN res.id IS NULL THEN TRUE ELSE FALSE END AS create_results,
			rp.game_id,
			rp.player_id,
			rp.opposition,
			rp.players_name,
			rp.players_grade,
			COALESCE(s.selected, FALSE) AS selected,
			COALESCE(s.goal_keeper, FALSE) AS goal_keeper,
			COALESCE(s.played, FALSE) AS played,
			COALESCE(res.goals, 0) AS goals,
			COALESCE(res.green_card, 0) AS green_card,
			COALESCE(res.yellow_card, 0) AS yellow_card,
			COALESCE(res.red_card, 0) AS red_card
		FROM _registered_players AS rp
		LEFT JOIN _selections AS s
			ON s.game_id = rp.game_id AND s.player_id = rp.player_id
		LEFT JOIN results AS res
			ON s.selection_id = res.id
		ORDER BY
			selected DESC,
			goal_keeper DESC,
			players_grade DESC,
			players_name`,
		season, round, team, season,
	)
	if err != nil {
		return nil, fmt.Errorf("player results: %w", err)
	}
	defer rows.Close()

	var players []PlayerRow
	for rows.Next() {
		var row PlayerRow
		if err := rows.Scan(
			&row.SelectionID, &row.CreateSelections, &row.CreateResults,
			&row.GameID, &row.PlayerID, &row.Opposition, &row.PlayerName, &row.Grade,
			&row.Selected, &row.GoalKeeper, &row.Played,
			&row.Goals, &row.GreenCard, &row.YellowCard, &row.RedCard,
		); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		players = append(players, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("player results: %w", err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	return players, nil
}

func weekBounds(weekEnding time.Time) (string, string) {
	end := time.Date(weekEnding.Year(), weekEnding.Month(), weekEnding.Day(), 23, 59, 59, 0, time.UTC)
	start := end.AddDate(0, 0, -weekInterval).Truncate(24 * time.Hour)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

func formatGameTime(startTS string) string {
	ts, err := time.Parse(time.RFC3339, startTS)
	if err != nil {
		return startTS
	}
	return ts.Format("Mon 02 January, 3:04 PM")
}
