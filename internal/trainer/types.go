package trainer

import (
	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/eval"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
	"github.com/toradrage/mct-trener/internal/simulator"
)

// #region turn-request

// TurnRequest is one therapist turn as submitted by a client.
type TurnRequest struct {
	Intervention     rules.Intervention    `json:"intervention"`
	Message          string                `json:"message"`
	SelectedCategory belief.FormulationKey `json:"selectedCategory,omitempty"`
}

// #endregion turn-request

// #region turn-result

// TurnResult is what the therapist sees after a committed turn.
type TurnResult struct {
	SessionID    string             `json:"sessionId"`
	VersionID    string             `json:"versionId"`
	TurnIndex    int                `json:"turnIndex"`
	Reply        string             `json:"reply"`
	ReplySource  string             `json:"replySource"`
	RuleReply    string             `json:"ruleReply"`
	Trace        string             `json:"trace"`
	Phase        rules.Phase        `json:"phase"`
	RelativeTurn int                `json:"relativeTurn"`
	Signals      simulator.Signals  `json:"signals"`
	Flags        simulator.Flags    `json:"flags"`
	State        belief.BeliefState `json:"state"`
	Eval         eval.EvalResult    `json:"-"`
}

// #endregion turn-result

// #region state-view

// StateView is a session's current state plus the values derived from it.
// Phase and RelativeTurn describe the next turn.
type StateView struct {
	Session         session.Session    `json:"session"`
	VersionID       string             `json:"versionId"`
	State           belief.BeliefState `json:"state"`
	Phase           rules.Phase        `json:"phase"`
	RelativeTurn    int                `json:"relativeTurn"`
	CAS             float64            `json:"cas"`
	MetaWorry       float64            `json:"metaWorry"`
	FormulationDone int                `json:"formulationDone"`
}

// #endregion state-view
