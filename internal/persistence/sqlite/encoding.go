package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Column encoding conventions shared by the repositories: timestamps are
// RFC3339 UTC text, string lists are JSON arrays, optional values map to
// SQL NULL.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value, column string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return ts, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	clone := value.String
	return &clone
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	clone := int(value.Int64)
	return &clone
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*value), Valid: true}
}

func timePtr(value sql.NullString, column string) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	ts, err := parseTime(value.String, column)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func encodeStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(encoded), nil
}

func decodeStringList(value, column string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", column, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func nullBlob(value []byte) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(value), Valid: true}
}

func blob(value sql.NullString) []byte {
	if !value.Valid {
		return nil
	}
	return []byte(value.String)
}
