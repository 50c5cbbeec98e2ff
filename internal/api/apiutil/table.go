// internal/api/apiutil/table.go
package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// ErrSchemaMismatch is returned when a submitted table's column set differs
// from the snapshot it claims to edit. Schema drift between the pre- and
// post-edit snapshot is a programming error, never recoverable.
var ErrSchemaMismatch = errors.New("original and edited tables need identical schemas")

// Table is the wire shape shared by snapshot responses and submit requests:
// an explicit column list plus one JSON object per row. The presenter must
// send back the same columns it was given.
type Table struct {
	Columns []string          `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
}

// NewTable marshals typed rows into a Table with the given column list.
func NewTable[T any](columns []string, rows []T) (Table, error) {
	table := Table{Columns: columns, Rows: make([]json.RawMessage, 0, len(rows))}
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return Table{}, fmt.Errorf("marshal row: %w", err)
		}
		table.Rows = append(table.Rows, raw)
	}
	return table, nil
}

// DecodeTable reads a submitted Table from the request body and verifies its
// column set matches the snapshot schema exactly, order included.
func DecodeTable(r *http.Request, columns []string) (Table, error) {
	var table Table
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&table); err != nil {
		return Table{}, fmt.Errorf("decode table: %w", err)
	}
	if !slices.Equal(table.Columns, columns) {
		return Table{}, ErrSchemaMismatch
	}
	return table, nil
}

// BindRows unmarshals every row of a decoded table into the typed row used
// by the reconciliation pipeline.
func BindRows[T any](table Table) ([]T, error) {
	rows := make([]T, 0, len(table.Rows))
	for i, raw := range table.Rows {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("bind row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
