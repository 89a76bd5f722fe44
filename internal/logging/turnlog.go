package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-turn
// LogTurn writes one committed turn to the turn_log table.
func LogTurn(db *sql.DB, entry TurnEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ReplySource == "" {
		entry.ReplySource = "rules"
	}

	_, err := db.Exec(
		`INSERT INTO turn_log (session_id, version_id, turn_index, phase, intervention, difficulty, message, category, reply, reply_source, trace, signals_json, flags_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.VersionID,
		entry.TurnIndex,
		entry.Phase,
		nullIfEmpty(entry.Intervention),
		entry.Difficulty,
		nullIfEmpty(entry.Message),
		nullIfEmpty(entry.Category),
		entry.Reply,
		entry.ReplySource,
		nullIfEmpty(entry.Trace),
		nullIfEmpty(entry.SignalsJSON),
		nullIfEmpty(entry.FlagsJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// #endregion log-turn

// #region list-turns
// ListTurns returns the logged turns of a session in turn order.
func ListTurns(db *sql.DB, sessionID string) ([]TurnEntry, error) {
	rows, err := db.Query(
		`SELECT session_id, version_id, turn_index, phase, intervention, difficulty, message, category, reply, reply_source, trace, signals_json, flags_json, created_at
		 FROM turn_log WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []TurnEntry
	for rows.Next() {
		var e TurnEntry
		var intervention, message, category, trace, signals, flags sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.VersionID, &e.TurnIndex, &e.Phase, &intervention, &e.Difficulty,
			&message, &category, &e.Reply, &e.ReplySource, &trace, &signals, &flags, &createdStr); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		e.Intervention = intervention.String
		e.Message = message.String
		e.Category = category.String
		e.Trace = trace.String
		e.SignalsJSON = signals.String
		e.FlagsJSON = flags.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list-turns

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
