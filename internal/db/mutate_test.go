package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedTeam(t *testing.T, database *DB) {
	t.Helper()
	ts := Timestamp()
	_, err := database.Exec(`
		INSERT INTO teams (id, create_ts, update_ts, season, grade, team)
		VALUES ('t1', ?, ?, '2026', '1st', 'West Green')`,
		ts, ts)
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
}

func TestUpdateColumnWritesValueAndTimestamp(t *testing.T) {
	database := newTestDB(t)
	seedTeam(t, database)
	ctx := context.Background()

	before := ""
	if err := database.QueryRow(`SELECT update_ts FROM teams WHERE id = 't1'`).Scan(&before); err != nil {
		t.Fatal(err)
	}

	if err := database.UpdateColumn(ctx, "teams", "manager", "t1", "Dana Wells"); err != nil {
		t.Fatalf("UpdateColumn: %v", err)
	}

	var manager, after string
	if err := database.QueryRow(`SELECT manager, update_ts FROM teams WHERE id = 't1'`).Scan(&manager, &after); err != nil {
		t.Fatal(err)
	}
	if manager != "Dana Wells" {
		t.Errorf("manager = %q, want Dana Wells", manager)
	}
	if after < before {
		t.Errorf("update_ts went backwards: %q -> %q", before, after)
	}
}

func TestUpdateColumnRejectsUnknownColumn(t *testing.T) {
	database := newTestDB(t)
	seedTeam(t, database)
	ctx := context.Background()

	if err := database.UpdateColumn(ctx, "teams", "season", "t1", "2027"); err == nil {
		t.Error("write to non-writable column accepted")
	}
	if err := database.UpdateColumn(ctx, "users", "email", "1", "x"); err == nil {
		t.Error("write to non-writable table accepted")
	}
	if err := database.UpdateColumn(ctx, "teams", "manager; DROP TABLE teams", "t1", "x"); err == nil {
		t.Error("injected identifier accepted")
	}
}

func TestUpdateColumnLocked(t *testing.T) {
	database := newTestDB(t)
	seedTeam(t, database)
	ctx := context.Background()

	database.Lock.Engage()
	if err := database.UpdateColumn(ctx, "teams", "manager", "t1", "x"); !errors.Is(err, ErrDatabaseLocked) {
		t.Errorf("UpdateColumn on locked db = %v, want ErrDatabaseLocked", err)
	}

	database.Lock.Release()
	if err := database.UpdateColumn(ctx, "teams", "manager", "t1", "x"); err != nil {
		t.Errorf("UpdateColumn after release: %v", err)
	}
}

func TestInsertRowValidatesColumns(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	err := database.InsertRow(ctx, "selections",
		[]string{"id", "password_hash"},
		[]any{"s1", "x"},
	)
	if err == nil {
		t.Error("insert with non-writable column accepted")
	}

	err = database.InsertRow(ctx, "selections", []string{"id"}, []any{"s1", "extra"})
	if err == nil {
		t.Error("column/value length mismatch accepted")
	}
}

func TestInsertRowLocked(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	database.Lock.Engage()
	err := database.InsertRow(ctx, "selections",
		[]string{"id", "create_ts", "update_ts", "game_id", "player_id", "selected"},
		[]any{"s1", Timestamp(), Timestamp(), "g1", "p1", true},
	)
	if !errors.Is(err, ErrDatabaseLocked) {
		t.Errorf("InsertRow on locked db = %v, want ErrDatabaseLocked", err)
	}
}

func TestWriteLockToggle(t *testing.T) {
	lock := NewWriteLock(false)
	if lock.Engaged() {
		t.Error("new lock engaged")
	}
	lock.Engage()
	if !lock.Engaged() {
		t.Error("Engage did not take")
	}
	lock.Release()
	if lock.Engaged() {
		t.Error("Release did not take")
	}

	if !NewWriteLock(true).Engaged() {
		t.Error("seeded lock not engaged")
	}
}
