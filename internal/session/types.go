package session

import (
	"time"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region session
// Session is one training session with a simulated patient.
type Session struct {
	ID            string
	Difficulty    rules.Difficulty
	RulesVersion  string
	ActiveVersion string
	TurnCount     int // index of the next therapist turn
	CreatedAt     time.Time
}

// #endregion session

// #region version
// Version is an immutable belief snapshot. Every merged patch creates one.
type Version struct {
	VersionID string
	SessionID string
	ParentID  string
	TurnCount int // session turn count once this version is active
	State     belief.BeliefState
	Reason    string
	CreatedAt time.Time
}

// #endregion version
