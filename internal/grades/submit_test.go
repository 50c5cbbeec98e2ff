package grades

import (
	"context"
	"errors"
	"testing"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/testutil"
)

const testSeason = "2026"

func seedFixtures(t *testing.T, database *db.DB) {
	t.Helper()
	ts := db.Timestamp()

	mustExec(t, database, `
		INSERT INTO teams (id, create_ts, update_ts, season, grade, team, team_order)
		VALUES
			('t1', ?, ?, ?, '1st', 'West Green', 1),
			('t2', ?, ?, ?, '2nd', 'West Green', 2)`,
		ts, ts, testSeason, ts, ts, testSeason)

	mustExec(t, database, `
		INSERT INTO players (id, create_ts, update_ts, full_name)
		VALUES ('p1', ?, ?, 'Alice Munro'), ('p2', ?, ?, 'Bob Reyes')`,
		ts, ts, ts, ts)
	mustExec(t, database, `
		INSERT INTO registrations (id, create_ts, update_ts, season, national_id)
		VALUES ('rp1', ?, ?, ?, 'p1'), ('rp2', ?, ?, ?, 'p2')`,
		ts, ts, testSeason, ts, ts, testSeason)
}

func mustExec(t *testing.T, database *db.DB, query string, args ...any) {
	t.Helper()
	if _, err := database.Exec(query, args...); err != nil {
		t.Fatalf("seed exec: %v", err)
	}
}

func TestSubmitTeamsWritesChangedDetails(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, err := Teams(ctx, database, testSeason)
	if err != nil {
		t.Fatalf("Teams: %v", err)
	}

	edited := make([]TeamRow, len(original))
	copy(edited, original)
	edited[0].Manager = "Dana Wells"
	edited[0].ManagerEmail = "dana@example.com"

	outcome, err := SubmitTeams(ctx, database, original, edited)
	if err != nil {
		t.Fatalf("SubmitTeams: %v", err)
	}
	if outcome.TeamsUpdated != 1 {
		t.Errorf("teams updated = %d, want 1", outcome.TeamsUpdated)
	}

	reloaded, _ := Teams(ctx, database, testSeason)
	if reloaded[0].Manager != "Dana Wells" || reloaded[0].ManagerEmail != "dana@example.com" {
		t.Errorf("manager details not persisted: %+v", reloaded[0])
	}
}

func TestSubmitPlayersResolvesTeamID(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	teams, _ := Teams(ctx, database, testSeason)
	original, err := Players(ctx, database, testSeason)
	if err != nil {
		t.Fatalf("Players: %v", err)
	}

	edited := make([]PlayerRow, len(original))
	copy(edited, original)
	for i := range edited {
		if edited[i].RegistrationID == "rp1" {
			edited[i].Team = "West Green - 1st"
		}
	}

	outcome, err := SubmitPlayers(ctx, database, teams, original, edited)
	if err != nil {
		t.Fatalf("SubmitPlayers: %v", err)
	}
	if outcome.PlayersUpdated != 1 {
		t.Errorf("players updated = %d, want 1", outcome.PlayersUpdated)
	}

	var teamID, grade string
	err = database.QueryRow(`SELECT team_id, grade FROM registrations WHERE id = 'rp1'`).Scan(&teamID, &grade)
	if err != nil {
		t.Fatalf("load registration: %v", err)
	}
	if teamID != "t1" {
		t.Errorf("team_id = %q, want t1", teamID)
	}
	// Blank grade defaults to the team name's grade suffix.
	if grade != "1st" {
		t.Errorf("grade = %q, want 1st", grade)
	}
}

func TestSubmitPlayersUnknownTeam(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	teams, _ := Teams(ctx, database, testSeason)
	original, _ := Players(ctx, database, testSeason)

	edited := make([]PlayerRow, len(original))
	copy(edited, original)
	edited[0].Team = "Nonexistent - 9th"

	if _, err := SubmitPlayers(ctx, database, teams, original, edited); err == nil {
		t.Error("unknown team accepted")
	}
}

func TestSubmitPlayersClearsAssignment(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()
	ts := db.Timestamp()

	mustExec(t, database, `
		UPDATE registrations SET team_id = 't1', team = 'West Green - 1st', grade = '1st', update_ts = ?
		WHERE id = 'rp1'`, ts)

	teams, _ := Teams(ctx, database, testSeason)
	original, _ := Players(ctx, database, testSeason)

	edited := make([]PlayerRow, len(original))
	copy(edited, original)
	for i := range edited {
		if edited[i].RegistrationID == "rp1" {
			edited[i].Team = ""
			edited[i].Grade = ""
		}
	}

	if _, err := SubmitPlayers(ctx, database, teams, original, edited); err != nil {
		t.Fatalf("SubmitPlayers: %v", err)
	}

	var teamID any
	if err := database.QueryRow(`SELECT team_id FROM registrations WHERE id = 'rp1'`).Scan(&teamID); err != nil {
		t.Fatal(err)
	}
	if teamID != nil {
		t.Errorf("team_id = %v, want NULL after clearing", teamID)
	}
}

func TestSubmitTeamsLocked(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, _ := Teams(ctx, database, testSeason)
	edited := make([]TeamRow, len(original))
	copy(edited, original)
	edited[0].Manager = "Dana Wells"

	database.Lock.Engage()
	if _, err := SubmitTeams(ctx, database, original, edited); !errors.Is(err, db.ErrDatabaseLocked) {
		t.Errorf("SubmitTeams on locked database = %v, want ErrDatabaseLocked", err)
	}
}

func TestNormalizeTeamsFormatsMobiles(t *testing.T) {
	rows := NormalizeTeams([]TeamRow{
		{TeamID: "t1", ManagerMobile: "+61411222333"},
		{TeamID: "t2", ManagerMobile: "not a number"},
		{TeamID: "t3", ManagerMobile: ""},
	})
	if rows[0].ManagerMobile != "0411 222 333" {
		t.Errorf("mobile = %q, want national format 0411 222 333", rows[0].ManagerMobile)
	}
	if rows[1].ManagerMobile != "not a number" {
		t.Errorf("unparseable mobile rewritten to %q", rows[1].ManagerMobile)
	}
	if rows[2].ManagerMobile != "" {
		t.Errorf("empty mobile rewritten to %q", rows[2].ManagerMobile)
	}
}

func TestNormalizePlayersGradeFromTeamSuffix(t *testing.T) {
	rows := NormalizePlayers([]PlayerRow{
		{RegistrationID: "a", Team: "West Green - 1st", Grade: ""},
		{RegistrationID: "b", Team: "West Green - 2nd", Grade: "Social"},
		{RegistrationID: "c", Team: "", Grade: ""},
	})
	if rows[0].Grade != "1st" {
		t.Errorf("grade = %q, want 1st from team suffix", rows[0].Grade)
	}
	if rows[1].Grade != "Social" {
		t.Errorf("explicit grade overwritten to %q", rows[1].Grade)
	}
	if rows[2].Grade != "" {
		t.Errorf("grade without team = %q, want empty", rows[2].Grade)
	}
}
