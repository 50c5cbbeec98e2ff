package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Writable columns per table. Dynamic identifiers in mutation SQL must come
// from this map; values always travel as bind parameters.
var writableColumns = map[string]map[string]bool{
	"teams": {
		"manager":        true,
		"manager_mobile": true,
		"manager_email":  true,
		"team_order":     true,
	},
	"registrations": {
		"team_id": true,
		"team":    true,
		"grade":   true,
	},
	"games": {
		"goals_for":     true,
		"goals_against": true,
	},
	"selections": {
		"selected":    true,
		"goal_keeper": true,
		"played":      true,
	},
	"results": {
		"goals":       true,
		"green_card":  true,
		"yellow_card": true,
		"red_card":    true,
	},
	"invoices": {
		"status":           true,
		"invoice_sent":     true,
		"on_payment_plan":  true,
		"discount_applied": true,
	},
}

// Columns accepted on insert, beyond the writable set.
var insertOnlyColumns = map[string]bool{
	"id":        true,
	"create_ts": true,
	"update_ts": true,
	"game_id":   true,
	"player_id": true,
}

// UpdateColumn sets a single column on a single row, stamping a fresh
// update_ts. Each call is its own commit; there is no batching and no
// transaction across rows. The write lock is checked per call, so a lock
// toggled mid-batch produces partial writes.
func (db *DB) UpdateColumn(ctx context.Context, table, column, rowID string, value any) error {
	if db.Lock.Engaged() {
		return ErrDatabaseLocked
	}
	if err := checkColumn(table, column); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET %s = ?, update_ts = ? WHERE id = ?", table, column)
	res, err := db.ExecContext(ctx, query, value, Timestamp(), rowID)
	if err != nil {
		return fmt.Errorf("update %s.%s for %s: %w", table, column, rowID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Ctx(ctx).Warn().
			Str("table", table).
			Str("column", column).
			Str("row_id", rowID).
			Msg("Update matched no rows")
	}
	return nil
}

// InsertRow inserts one full row. Like UpdateColumn it commits on its own
// and checks the write lock per call.
func (db *DB) InsertRow(ctx context.Context, table string, columns []string, values []any) error {
	if db.Lock.Engaged() {
		return ErrDatabaseLocked
	}
	if len(columns) == 0 || len(columns) != len(values) {
		return fmt.Errorf("insert into %s: %d columns but %d values", table, len(columns), len(values))
	}
	allowed, ok := writableColumns[table]
	if !ok {
		return fmt.Errorf("table %q is not writable", table)
	}
	for _, column := range columns {
		if !allowed[column] && !insertOnlyColumns[column] {
			return fmt.Errorf("column %q is not writable on %q", column, table)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	)
	if _, err := db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func checkColumn(table, column string) error {
	allowed, ok := writableColumns[table]
	if !ok {
		return fmt.Errorf("table %q is not writable", table)
	}
	if !allowed[column] {
		return fmt.Errorf("column %q is not writable on %q", column, table)
	}
	return nil
}
