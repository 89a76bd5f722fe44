package logging

import (
	"database/sql"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE turn_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id    TEXT NOT NULL,
		version_id    TEXT NOT NULL,
		turn_index    INTEGER NOT NULL,
		phase         TEXT NOT NULL,
		intervention  TEXT,
		difficulty    INTEGER NOT NULL,
		message       TEXT,
	category      TEXT,
		reply         TEXT NOT NULL,
		reply_source  TEXT NOT NULL,
		trace         TEXT,
		signals_json  TEXT,
		flags_json    TEXT,
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// #endregion helpers

// #region log-turn-tests
func TestLogTurn_RoundTrip(t *testing.T) {
	db := setupDB(t)

	entry := TurnEntry{
		SessionID:    "s1",
		VersionID:    "v2",
		TurnIndex:    0,
		Phase:        "early",
		Intervention: "mindfulness",
		Difficulty:   1,
		Message:      "Kan du bare legge merke til tanken?",
		Reply:        "Det var uvant.",
		ReplySource:  "paraphrase",
		Trace:        "Difficulty 1",
		SignalsJSON:  `{"cas":60}`,
		FlagsJSON:    `{"earlyProcessBackfire":false}`,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogTurn(db, entry); err != nil {
		t.Fatalf("LogTurn: %v", err)
	}

	got, err := ListTurns(db, "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0] != entry {
		t.Errorf("row mismatch:\n got %+v\nwant %+v", got[0], entry)
	}
}

func TestLogTurn_Defaults(t *testing.T) {
	db := setupDB(t)

	if err := LogTurn(db, TurnEntry{SessionID: "s1", VersionID: "v1", Phase: "formulation", Difficulty: 2, Reply: "Ok."}); err != nil {
		t.Fatalf("LogTurn: %v", err)
	}

	var source string
	var intervention, message sql.NullString
	var created string
	err := db.QueryRow(`SELECT reply_source, intervention, message, created_at FROM turn_log`).Scan(&source, &intervention, &message, &created)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if source != "rules" {
		t.Errorf("expected default source rules, got %s", source)
	}
	if intervention.Valid || message.Valid {
		t.Error("expected NULL for empty optional fields")
	}
	if created == "" {
		t.Error("expected created_at to be filled")
	}
}

func TestLogTurn_Error(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := LogTurn(db, TurnEntry{SessionID: "s", VersionID: "v", Reply: "x"}); err == nil {
		t.Fatal("expected error without turn_log table")
	}
}

func TestListTurns_Order(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 3; i++ {
		if err := LogTurn(db, TurnEntry{SessionID: "s1", VersionID: "v", TurnIndex: i, Phase: "mid", Reply: "r"}); err != nil {
			t.Fatalf("LogTurn: %v", err)
		}
	}
	if err := LogTurn(db, TurnEntry{SessionID: "other", VersionID: "v", Phase: "mid", Reply: "r"}); err != nil {
		t.Fatalf("LogTurn: %v", err)
	}

	got, err := ListTurns(db, "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i, e := range got {
		if e.TurnIndex != i {
			t.Errorf("row %d has turn %d", i, e.TurnIndex)
		}
	}
}

// #endregion log-turn-tests

// #region logger-tests
func TestNewLogger(t *testing.T) {
	l, err := New("debug", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}
	if _, err := New("shouting", false); err == nil {
		t.Error("expected error for bad level")
	}
}

// #endregion logger-tests
