// Package selections materializes the weekly selections working set and
// writes edited rosters back through the reconcile pipeline.
package selections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/westhockey/clubhouse/internal/db"
)

// Sentinel "no data" conditions, distinct from query failures. An empty
// context set halts the pipeline gracefully with no writes attempted.
var (
	ErrNoGames      = errors.New("no games found for the week")
	ErrNoSelections = errors.New("no selections for this date range")
)

// A week runs the six days up to and including the filter date.
const weekInterval = 6

// Row is one (game, player) pair in the selections working set. Rows with
// no persisted selection yet are virtual: they carry the composite id
// game_id || player_id and create_selection = true.
type Row struct {
	SelectionID     string `json:"selection_id"`
	CreateSelection bool   `json:"create_selection"`
	GameID          string `json:"game_id"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"players_name"`
	MainTeam        string `json:"players_main_team"`
	Grade           string `json:"players_grade"`
	Selected        bool   `json:"selected"`
	GoalKeeper      bool   `json:"goal_keeper"`
}

// Columns is the roster snapshot schema. Submitted tables must match it
// exactly.
var Columns = []string{
	"selection_id",
	"create_selection",
	"game_id",
	"player_id",
	"players_name",
	"players_main_team",
	"players_grade",
	"selected",
	"goal_keeper",
}

// Game summarizes one fixture in the week view.
type Game struct {
	GameID          string `json:"game_id"`
	Round           string `json:"round"`
	TeamName        string `json:"team_name"`
	Opposition      string `json:"opposition"`
	GameTime        string `json:"game_time"`
	PlayersSelected int    `json:"players_selected"`
}

// SheetRow is one selected player on the weekly output sheet.
type SheetRow struct {
	SelectionID   string `json:"selection_id"`
	TeamName      string `json:"team_name"`
	TeamOrder     int    `json:"team_order"`
	Round         string `json:"round"`
	Opposition    string `json:"opposition"`
	GameTime      string `json:"game_time"`
	Location      string `json:"location"`
	Field         string `json:"field"`
	Manager       string `json:"manager"`
	ManagerMobile string `json:"manager_mobile"`
	ManagerEmail  string `json:"manager_email"`
	PlayerName    string `json:"players_name"`
	GoalKeeper    bool   `json:"goal_keeper"`
}

// WeekBounds returns the inclusive timestamp range covering the week ending
// at the given date.
func WeekBounds(weekEnding time.Time) (string, string) {
	end := time.Date(weekEnding.Year(), weekEnding.Month(), weekEnding.Day(), 23, 59, 59, 0, time.UTC)
	start := end.AddDate(0, 0, -weekInterval).Truncate(24 * time.Hour)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

// LastGameDate returns the start date of the most recent game already played
// this season, used as the default week filter.
func LastGameDate(ctx context.Context, database *db.DB, season string) (time.Time, error) {
	var maxTS string
	err := database.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(start_ts), '')
		FROM games
		WHERE season = ? AND start_ts < ?`,
		season, db.Timestamp(),
	).Scan(&maxTS)
	if err != nil {
		return time.Time{}, fmt.Errorf("last game date: %w", err)
	}
	if maxTS == "" {
		return time.Time{}, ErrNoGames
	}
	ts, err := time.Parse(time.RFC3339, maxTS)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last game date %q: %w", maxTS, err)
	}
	return ts, nil
}

// WeekGames lists the fixtures in the week ending at the filter date, with
// how many players are selected for each.
func WeekGames(ctx context.Context, database *db.DB, season string, weekEnding time.Time) ([]Game, error) {
	start, end := WeekBounds(weekEnding)
	rows, err := database.QueryContext(ctx, `
		WITH count_selections AS (
			SELECT game_id, COUNT(*) AS players_selected
			FROM selections
			WHERE selected = TRUE
			GROUP BY game_id
		)
		SELECT
			g.id,
			g.round,
			t.team || ' - ' || t.grade AS team_name,
			COALESCE(g.opposition, ''),
			g.start_ts,
			COALESCE(cs.players_selected, 0)
		FROM games AS g
		INNER JOIN teams AS t ON g.team_id = t.id
		LEFT JOIN count_selections AS cs ON g.id = cs.game_id
		WHERE g.season = ? AND g.start_ts BETWEEN ? AND ?
		ORDER BY t.team_order`,
		season, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("week games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		var startTS string
		if err := rows.Scan(&g.GameID, &g.Round, &g.TeamName, &g.Opposition, &startTS, &g.PlayersSelected); err != nil {
			return nil, fmt.Errorf("scan week game: %w", err)
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

// Roster materializes the complete working set for a team's round: every
// registered player crossed with every game the team plays in the round,
// left-joined against any persisted selection rows. Exactly one row per
// (game, player) pair comes back, whether or not a selection exists yet.
func Roster(ctx context.Context, database *db.DB, season, round, team string) ([]Row, error) {
	rows, err := database.QueryContext(ctx, `
		WITH _games AS (
			SELECT g.id AS game_id
			FROM games AS g
			INNER JOIN teams AS t ON g.team_id = t.id
			WHERE
				g.season = ?
				AND g.round = ?
				AND t.team || ' - ' || t.grade = ?
		),

		_selections AS (
			SELECT s.id AS selection_id, s.player_id, s.game_id, s.goal_keeper, s.selected
			FROM selections AS s
			INNER JOIN _games AS g ON s.game_id = g.game_id
		),

		_registered_players AS (
			SELECT
				p.id AS player_id,
				p.full_name AS players_name,
				g.game_id,
				r.team AS players_main_team,
				r.grade AS players_grade
			FROM players AS p
			INNER JOIN registrations AS r ON p.id = r.national_id
			CROSS JOIN _games AS g
			WHERE r.season = ?
		)

		SELECT
			COALESCE(s.selection_id, rp.game_id || rp.player_id) AS selection_id,
			CASE WHEN s.selection_id IS NULL THEN TRUE ELSE FALSE END AS create_selection,
			rp.game_id,
			rp.player_id,
			rp.players_name,
			COALESCE(rp.players_main_team, '') AS players_main_team,
			COALESCE(rp.players_grade, '') AS players_grade,
			COALESCE(s.selected, FALSE) AS selected,
			COALESCE(s.goal_keeper, FALSE) AS goal_keeper
		FROM _registered_players AS rp
		LEFT JOIN _selections AS s
			ON rp.player_id = s.player_id AND rp.game_id = s.game_id
		ORDER BY
			selected DESC,
			goal_keeper DESC,
			players_main_team DESC,
			players_name`,
		season, round, team, season,
	)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	defer rows.Close()

	var roster []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.SelectionID, &row.CreateSelection, &row.GameID, &row.PlayerID,
			&row.PlayerName, &row.MainTeam, &row.Grade, &row.Selected, &row.GoalKeeper,
		); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		roster = append(roster, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	if len(roster) == 0 {
		return nil, ErrNoGames
	}
	return roster, nil
}

// WeekSheet returns the selected players across the week, one row per
// (game, selected player), ordered for the printed sheet.
func WeekSheet(ctx context.Context, database *db.DB, season string, weekEnding time.Time) ([]SheetRow, error) {
	start, end := WeekBounds(weekEnding)
	rows, err := database.QueryContext(ctx, `
		WITH _games AS (
			SELECT
				g.id AS game_id,
				t.team_order,
				t.team || ' - ' || t.grade AS team_name,
				g.round,
				COALESCE(g.opposition, '') AS opposition,
				g.start_ts,
				COALESCE(t.manager, '') AS manager,
				COALESCE(t.manager_mobile, '') AS manager_mobile,
				COALESCE(t.manager_email, '') AS manager_email,
				COALESCE(l.name, '') AS location,
				COALESCE(l.field, '') AS field
			FROM games AS g
			INNER JOIN teams AS t ON g.team_id = t.id
			LEFT JOIN locations AS l ON g.location_id = l.id
			WHERE g.season = ? AND g.start_ts BETWEEN ? AND ?
		)

		SELECT
			s.id AS selection_id,
			g.team_name,
			g.team_order,
			g.round,
			g.opposition,
			g.start_ts,
			g.location,
			g.field,
			g.manager,
			g.manager_mobile,
			g.manager_email,
			p.full_name AS players_name,
			s.goal_keeper
		FROM _games AS g
		INNER JOIN selections AS s ON s.game_id = g.game_id
		INNER JOIN players AS p ON s.player_id = p.id
		WHERE s.selected = TRUE
		ORDER BY g.team_order, s.goal_keeper DESC, players_name`,
		season, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("week sheet: %w", err)
	}
	defer rows.Close()

	var sheet []SheetRow
	for rows.Next() {
		var row SheetRow
		var startTS string
		if err := rows.Scan(
			&row.SelectionID, &row.TeamName, &row.TeamOrder, &row.Round, &row.Opposition,
			&startTS, &row.Location, &row.Field, &row.Manager, &row.ManagerMobile,
			&row.ManagerEmail, &row.PlayerName, &row.GoalKeeper,
		); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		row.GameTime = formatGameTime(startTS)
		sheet = append(sheet, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("week sheet: %w", err)
	}
	if len(sheet) == 0 {
		return nil, ErrNoSelections
	}
	return sheet, nil
}

// formatGameTime renders a stored start_ts for display, e.g.
// "Sat 04 May, 3:00 PM". Unparseable values come back unchanged.
func formatGameTime(startTS string) string {
	ts, err := time.Parse(time.RFC3339, startTS)
	if err != nil {
		return startTS
	}
	return ts.Format("Mon 02 January, 3:04 PM")
}
