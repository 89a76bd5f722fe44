package logging

import "time"

// #region turn-entry
// TurnEntry is a single row in the turn_log table.
type TurnEntry struct {
	SessionID    string
	VersionID    string
	TurnIndex    int
	Phase        string
	Intervention string
	Difficulty   int
	Message      string
	Category     string // checklist item selected in formulation
	Reply        string
	ReplySource  string // "rules" | "paraphrase"
	Trace        string
	SignalsJSON  string
	FlagsJSON    string
	CreatedAt    time.Time
}

// #endregion turn-entry
