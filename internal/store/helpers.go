package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "table", what, "error", err)
	}
}

func rollback(tx *sql.Tx, what string) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Warn("failed to roll back transaction", "op", what, "error", err)
	}
}

// requireRow converts a zero-row mutation into ErrNotFound.
func requireRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// encodeStrings marshals a string slice for TEXT columns. A nil slice is
// stored as an empty JSON array so reads never produce null.
func encodeStrings(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
