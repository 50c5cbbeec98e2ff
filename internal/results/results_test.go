package results

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/testutil"
)

const (
	testSeason = "2026"
	testRound  = "5"
	testTeam   = "West Green - 1st"
)

var testGameDate = time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)

// seedFixtures sets up one team with two games in round 5 and three
// registered players.
func seedFixtures(t *testing.T, database *db.DB) {
	t.Helper()
	ts := db.Timestamp()

	mustExec(t, database, `
		INSERT INTO teams (id, create_ts, update_ts, season, grade, team, team_order)
		VALUES ('t1', ?, ?, ?, '1st', 'West Green', 1)`,
		ts, ts, testSeason)

	for i, name := range []string{"Alice Munro", "Bob Reyes", "Cleo Tan"} {
		playerID := fmt.Sprintf("p%d", i+1)
		mustExec(t, database, `
			INSERT INTO players (id, create_ts, update_ts, full_name)
			VALUES (?, ?, ?, ?)`,
			playerID, ts, ts, name)
		mustExec(t, database, `
			INSERT INTO registrations (id, create_ts, update_ts, season, national_id, grade)
			VALUES (?, ?, ?, ?, ?, '1st')`,
			"r"+playerID, ts, ts, testSeason, playerID)
	}

	for _, gameID := range []string{"g1", "g2"} {
		mustExec(t, database, `
			INSERT INTO games (id, create_ts, update_ts, season, team_id, round, opposition, start_ts)
			VALUES (?, ?, ?, ?, 't1', ?, 'Eastside', ?)`,
			gameID, ts, ts, testSeason, testRound, testGameDate.Add(15*time.Hour).Format(time.RFC3339))
	}
}

func mustExec(t *testing.T, database *db.DB, query string, args ...any) {
	t.Helper()
	if _, err := database.Exec(query, args...); err != nil {
		t.Fatalf("seed exec: %v", err)
	}
}

func TestPlayerResultsMaterializesEveryPair(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)

	players, err := PlayerResults(context.Background(), database, testSeason, testRound, testTeam)
	if err != nil {
		t.Fatalf("PlayerResults: %v", err)
	}
	if len(players) != 6 {
		t.Fatalf("player results has %d rows, want 6", len(players))
	}
	for _, row := range players {
		if !row.CreateSelections || !row.CreateResults {
			t.Errorf("row %s: create flags = (%v, %v), want both true for virtual row",
				row.SelectionID, row.CreateSelections, row.CreateResults)
		}
	}
}

func TestPlayerResultsSelectionWithoutResult(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ts := db.Timestamp()

	mustExec(t, database, `
		INSERT INTO selections (id, create_ts, update_ts, game_id, player_id, selected)
		VALUES ('s1', ?, ?, 'g1', 'p1', TRUE)`,
		ts, ts)

	players, err := PlayerResults(context.Background(), database, testSeason, testRound, testTeam)
	if err != nil {
		t.Fatalf("PlayerResults: %v", err)
	}
	for _, row := range players {
		if row.SelectionID == "s1" {
			if row.CreateSelections {
				t.Error("persisted selection flagged for creation")
			}
			if !row.CreateResults {
				t.Error("missing result row not flagged for creation")
			}
			return
		}
	}
	t.Error("persisted selection s1 missing from player results")
}

func TestWeekGamesNoGames(t *testing.T) {
	database := testutil.NewTestDB(t)

	_, err := WeekGames(context.Background(), database, testSeason, testGameDate)
	if !errors.Is(err, ErrNoGames) {
		t.Errorf("WeekGames on empty season = %v, want ErrNoGames", err)
	}
}

func TestStatSum(t *testing.T) {
	row := PlayerRow{Goals: 2, GreenCard: 1, YellowCard: 0, RedCard: 1}
	if row.StatSum() != 4 {
		t.Errorf("StatSum = %d, want 4", row.StatSum())
	}
}
