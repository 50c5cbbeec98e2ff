package selections

import (
	"context"
	"errors"
	"testing"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/testutil"
)

func TestSubmitRosterCreatesVirtualRows(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, err := Roster(ctx, database, testSeason, testRound, testTeam)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}

	// Select two players for g1, one as keeper. Everything is virtual, so
	// both changed rows are inserts.
	edited := make([]Row, len(original))
	copy(edited, original)
	for i := range edited {
		if edited[i].GameID != "g1" {
			continue
		}
		switch edited[i].PlayerID {
		case "p1":
			edited[i].Selected = true
			edited[i].GoalKeeper = true
		case "p2":
			edited[i].Selected = true
		}
	}

	outcome, err := SubmitRoster(ctx, database, original, edited)
	if err != nil {
		t.Fatalf("SubmitRoster: %v", err)
	}
	if outcome.Created != 2 || outcome.Updated != 0 {
		t.Errorf("outcome = %+v, want 2 created, 0 updated", outcome)
	}

	// The reloaded roster now shows persisted rows; resubmitting the same
	// table writes nothing.
	reloaded, err := Roster(ctx, database, testSeason, testRound, testTeam)
	if err != nil {
		t.Fatalf("Roster after submit: %v", err)
	}
	persisted := 0
	for _, row := range reloaded {
		if !row.CreateSelection {
			persisted++
		}
	}
	if persisted != 2 {
		t.Errorf("%d persisted rows after submit, want 2", persisted)
	}

	again, err := SubmitRoster(ctx, database, reloaded, reloaded)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Created != 0 || again.Updated != 0 {
		t.Errorf("resubmit outcome = %+v, want no writes", again)
	}
}

func TestSubmitRosterUpdatesPersistedRows(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, _ := Roster(ctx, database, testSeason, testRound, testTeam)
	edited := make([]Row, len(original))
	copy(edited, original)
	edited[0].Selected = true
	if _, err := SubmitRoster(ctx, database, original, edited); err != nil {
		t.Fatalf("initial submit: %v", err)
	}

	// Deselect the persisted row.
	current, _ := Roster(ctx, database, testSeason, testRound, testTeam)
	next := make([]Row, len(current))
	copy(next, current)
	for i := range next {
		if !next[i].CreateSelection {
			next[i].Selected = false
		}
	}

	outcome, err := SubmitRoster(ctx, database, current, next)
	if err != nil {
		t.Fatalf("SubmitRoster: %v", err)
	}
	if outcome.Updated != 1 || outcome.Created != 0 {
		t.Errorf("outcome = %+v, want 1 updated, 0 created", outcome)
	}
}

func TestSubmitRosterLockedDatabase(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, _ := Roster(ctx, database, testSeason, testRound, testTeam)
	edited := make([]Row, len(original))
	copy(edited, original)
	edited[0].Selected = true

	database.Lock.Engage()
	_, err := SubmitRoster(ctx, database, original, edited)
	if !errors.Is(err, db.ErrDatabaseLocked) {
		t.Fatalf("SubmitRoster on locked database = %v, want ErrDatabaseLocked", err)
	}
}

func TestSubmitRosterDuplicateKeepersStillWrites(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, _ := Roster(ctx, database, testSeason, testRound, testTeam)
	edited := make([]Row, len(original))
	copy(edited, original)
	for i := range edited {
		if edited[i].GameID == "g1" && (edited[i].PlayerID == "p1" || edited[i].PlayerID == "p2") {
			edited[i].Selected = true
			edited[i].GoalKeeper = true
		}
	}

	outcome, err := SubmitRoster(ctx, database, original, edited)
	if err != nil {
		t.Fatalf("SubmitRoster: %v", err)
	}
	// The duplicate keeper is reported, not blocked.
	if outcome.Created != 2 {
		t.Errorf("created = %d, want 2 despite keeper conflict", outcome.Created)
	}
	if len(outcome.KeeperConflicts) != 1 {
		t.Errorf("keeper conflicts = %v, want one advisory entry", outcome.KeeperConflicts)
	}
}

func TestNormalizeKeeperImpliesSelected(t *testing.T) {
	rows := Normalize([]Row{
		{SelectionID: "a", GoalKeeper: true, Selected: false},
		{SelectionID: "b", GoalKeeper: false, Selected: false},
	})
	if !rows[0].Selected {
		t.Error("keeper not forced to selected")
	}
	if rows[1].Selected {
		t.Error("non-keeper incorrectly selected")
	}
}

func TestVerifyCompleteness(t *testing.T) {
	complete := []Row{
		{SelectionID: "g1p1", GameID: "g1", PlayerID: "p1"},
		{SelectionID: "g1p2", GameID: "g1", PlayerID: "p2"},
		{SelectionID: "g2p1", GameID: "g2", PlayerID: "p1"},
		{SelectionID: "g2p2", GameID: "g2", PlayerID: "p2"},
	}
	if err := VerifyCompleteness(complete); err != nil {
		t.Errorf("complete roster rejected: %v", err)
	}

	if err := VerifyCompleteness(complete[:3]); err == nil {
		t.Error("missing pair not detected")
	}

	dup := append(complete[:4:4], complete[0])
	if err := VerifyCompleteness(dup); err == nil {
		t.Error("duplicate pair not detected")
	}
}

func TestSubmitRosterEmptyDiffIsNoop(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedFixtures(t, database)
	ctx := context.Background()

	original, err := Roster(ctx, database, testSeason, testRound, testTeam)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}

	// Lock engaged: proves no write path is reached when nothing changed.
	database.Lock.Engage()
	outcome, err := SubmitRoster(ctx, database, original, original)
	if err != nil {
		t.Fatalf("SubmitRoster with no edits: %v", err)
	}
	if outcome.Created != 0 || outcome.Updated != 0 {
		t.Errorf("outcome = %+v, want no writes", outcome)
	}
}
