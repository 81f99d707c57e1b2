package db

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The positions.session_id column carries a foreign key to
// interview_sessions. A position created by hand has no session, so the
// field must be able to carry SQL NULL; a zero UUID would target a row
// that does not exist.
func TestPosition_SessionIDOptional(t *testing.T) {
	var p Position
	if p.SessionID != nil {
		t.Fatalf("zero-value Position must have a nil SessionID, got %v", p.SessionID)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal position: %v", err)
	}
	if strings.Contains(string(data), "session_id") {
		t.Errorf("session_id must be omitted when unset: %s", data)
	}
}

// A role mentioned again before its start date is extracted must hit the
// same row, so the upsert conflict target and the schema's unique
// constraint must both key on (user_id, company, title) and carry no
// nullable columns (Postgres treats NULLs as distinct in unique indexes).
func TestUpsertPosition_ConflictKeyMatchesSchema(t *testing.T) {
	const key = "(user_id, company, title)"

	if !strings.Contains(upsertPositionSQL, "ON CONFLICT "+key) {
		t.Errorf("upsert must target the role identity %s:\n%s", key, upsertPositionSQL)
	}
	if strings.Contains(upsertPositionSQL, "ON CONFLICT (user_id, company, title, start_date)") {
		t.Error("conflict target must not include the nullable start_date column")
	}

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	if err != nil {
		t.Fatalf("failed to read migration: %v", err)
	}
	if !strings.Contains(string(schema), "UNIQUE "+key) {
		t.Errorf("positions table must declare UNIQUE %s to back the upsert", key)
	}
}
