package storage

import (
	"strings"
	"testing"

	"forex-breakout-bot/models"
)

func breakoutsSchema(t *testing.T) string {
	t.Helper()
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS breakouts") {
			return stmt
		}
	}
	t.Fatal("breakouts table missing from schema")
	return ""
}

func TestBreakoutSchemaCarriesLifecycleState(t *testing.T) {
	stmt := breakoutsSchema(t)

	if !strings.Contains(stmt, "status TEXT NOT NULL DEFAULT '"+models.StatusActive+"'") {
		t.Error("breakouts table must default status to the active state")
	}
	if !strings.Contains(stmt, "notes TEXT") {
		t.Error("breakouts table must carry a notes column")
	}
}

func TestInsertBreakoutRecordsStatus(t *testing.T) {
	if !strings.Contains(insertBreakoutSQL, "status") {
		t.Error("breakout insert must record the initial status")
	}

	// Every enumerated column needs exactly one placeholder.
	open := strings.Index(insertBreakoutSQL, "(")
	closing := strings.Index(insertBreakoutSQL, ")")
	if open < 0 || closing < open {
		t.Fatal("malformed breakout insert statement")
	}
	columns := strings.Split(insertBreakoutSQL[open+1:closing], ",")
	placeholders := strings.Count(insertBreakoutSQL, "$")
	if len(columns) != placeholders {
		t.Errorf("insert enumerates %d columns but binds %d placeholders", len(columns), placeholders)
	}
}
