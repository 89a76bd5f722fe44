// Package session persists belief state per training session. It is the only
// place the engine's patches are merged and stored.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

var (
	// ErrNotFound is returned for unknown session or version IDs.
	ErrNotFound = errors.New("not found")
	// ErrStaleBase is returned when a patch was computed against a version that is no longer active.
	ErrStaleBase = errors.New("stale base version")
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	difficulty     INTEGER NOT NULL,
	rules_version  TEXT NOT NULL,
	active_version TEXT NOT NULL,
	turn_count     INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS belief_versions (
	version_id    TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	parent_id     TEXT,
	turn_count    INTEGER NOT NULL,
	state_json    TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	FOREIGN KEY (parent_id) REFERENCES belief_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_versions_session ON belief_versions(session_id);

CREATE TABLE IF NOT EXISTS turn_log (
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
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	FOREIGN KEY (version_id) REFERENCES belief_versions(version_id)
);
`

// #endregion schema

// #region store-struct
// Store manages sessions and versioned belief state in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region create-session
// CreateSession stores a new session with its initial belief version.
func (s *Store) CreateSession(difficulty rules.Difficulty, initial belief.BeliefState, rulesVersion string) (Session, Version, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:           uuid.New().String(),
		Difficulty:   difficulty,
		RulesVersion: rulesVersion,
		CreatedAt:    now,
	}
	ver := Version{
		VersionID: uuid.New().String(),
		SessionID: sess.ID,
		State:     belief.Normalize(initial),
		Reason:    "seed",
		CreatedAt: now,
	}
	sess.ActiveVersion = ver.VersionID

	stateJSON, err := json.Marshal(ver.State)
	if err != nil {
		return Session{}, Version{}, fmt.Errorf("marshal state: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Session{}, Version{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, difficulty, rules_version, active_version, turn_count, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		sess.ID, int(difficulty), rulesVersion, ver.VersionID, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, Version{}, fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO belief_versions (version_id, session_id, parent_id, turn_count, state_json, reason, created_at)
		 VALUES (?, ?, NULL, 0, ?, ?, ?)`,
		ver.VersionID, sess.ID, string(stateJSON), ver.Reason, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, Version{}, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, Version{}, fmt.Errorf("commit: %w", err)
	}
	return sess, ver, nil
}

// #endregion create-session

// #region get
// GetSession reads one session.
func (s *Store) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, difficulty, rules_version, active_version, turn_count, created_at
		 FROM sessions WHERE session_id = ?`, id,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// GetCurrent reads the active belief version of a session.
func (s *Store) GetCurrent(sessionID string) (Version, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return Version{}, err
	}
	return s.GetVersion(sess.ActiveVersion)
}

// GetVersion retrieves a specific belief version by ID.
func (s *Store) GetVersion(id string) (Version, error) {
	row := s.db.QueryRow(
		`SELECT version_id, session_id, parent_id, turn_count, state_json, reason, created_at
		 FROM belief_versions WHERE version_id = ?`, id,
	)
	ver, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return ver, nil
}

// #endregion get

// #region merge-patch
// MergePatch applies p to the active version and makes the result active.
// baseVersionID must be the version the patch was computed from; otherwise
// ErrStaleBase is returned and nothing is written. When advanceTurn is set the
// session turn count goes up by one.
func (s *Store) MergePatch(sessionID, baseVersionID string, p belief.Patch, reason string, advanceTurn bool) (Version, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Version{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var active string
	var turnCount int
	err = tx.QueryRow(
		`SELECT active_version, turn_count FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&active, &turnCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get active: %w", err)
	}
	if active != baseVersionID {
		return Version{}, fmt.Errorf("session %s active %s, base %s: %w", sessionID, active, baseVersionID, ErrStaleBase)
	}

	base, err := scanVersion(tx.QueryRow(
		`SELECT version_id, session_id, parent_id, turn_count, state_json, reason, created_at
		 FROM belief_versions WHERE version_id = ?`, active,
	))
	if err != nil {
		return Version{}, fmt.Errorf("get base version: %w", err)
	}

	if advanceTurn {
		turnCount++
	}
	now := time.Now().UTC()
	ver := Version{
		VersionID: uuid.New().String(),
		SessionID: sessionID,
		ParentID:  base.VersionID,
		TurnCount: turnCount,
		State:     belief.Merge(base.State, p),
		Reason:    reason,
		CreatedAt: now,
	}
	stateJSON, err := json.Marshal(ver.State)
	if err != nil {
		return Version{}, fmt.Errorf("marshal state: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO belief_versions (version_id, session_id, parent_id, turn_count, state_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ver.VersionID, sessionID, ver.ParentID, turnCount, string(stateJSON), nullIfEmpty(reason), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE sessions SET active_version = ?, turn_count = ? WHERE session_id = ?`,
		ver.VersionID, turnCount, sessionID,
	)
	if err != nil {
		return Version{}, fmt.Errorf("update active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit: %w", err)
	}
	return ver, nil
}

// #endregion merge-patch

// #region rollback
// Rollback makes an earlier version of the same session active again and
// restores the turn count it had.
func (s *Store) Rollback(sessionID, targetVersionID string) error {
	ver, err := s.GetVersion(targetVersionID)
	if err != nil {
		return err
	}
	if ver.SessionID != sessionID {
		return fmt.Errorf("version %s in session %s: %w", targetVersionID, sessionID, ErrNotFound)
	}

	res, err := s.db.Exec(
		`UPDATE sessions SET active_version = ?, turn_count = ? WHERE session_id = ?`,
		targetVersionID, ver.TurnCount, sessionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// #endregion rollback

// #region list
// ListVersions returns the most recent versions of a session, newest first.
func (s *Store) ListVersions(sessionID string, limit int) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT version_id, session_id, parent_id, turn_count, state_json, reason, created_at
		 FROM belief_versions WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		ver, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, ver)
	}
	return out, rows.Err()
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, difficulty, rules_version, active_version, turn_count, created_at
		 FROM sessions ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// #endregion list

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var sess Session
	var difficulty int
	var createdStr string
	if err := sc.Scan(&sess.ID, &difficulty, &sess.RulesVersion, &sess.ActiveVersion, &sess.TurnCount, &createdStr); err != nil {
		return Session{}, err
	}
	sess.Difficulty = rules.Difficulty(difficulty)
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return sess, nil
}

func scanVersion(sc scanner) (Version, error) {
	var ver Version
	var parentID, reason sql.NullString
	var stateJSON, createdStr string
	if err := sc.Scan(&ver.VersionID, &ver.SessionID, &parentID, &ver.TurnCount, &stateJSON, &reason, &createdStr); err != nil {
		return Version{}, err
	}
	if parentID.Valid {
		ver.ParentID = parentID.String
	}
	if reason.Valid {
		ver.Reason = reason.String
	}
	if err := json.Unmarshal([]byte(stateJSON), &ver.State); err != nil {
		return Version{}, fmt.Errorf("unmarshal state: %w", err)
	}
	ver.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return ver, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion scan
