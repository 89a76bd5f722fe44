// Package paraphrase lets an external language model reword the rule reply.
//
// The rule reply is always the source of truth. A paraphrase is only shown when
// it arrives inside the time budget and passes the voice gate.
package paraphrase

import (
	"context"
	"errors"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// ErrNoReply is returned when the collaborator answered without usable text.
var ErrNoReply = errors.New("paraphrase: empty reply")

// #region request

// Request is what the collaborator gets to work with.
type Request struct {
	RuleReply    string
	Trace        string
	Phase        rules.Phase
	Intervention rules.Intervention
	Difficulty   rules.Difficulty
	State        belief.BeliefState
}

// Response is the collaborator's answer. Reply is raw, uncalibrated text.
type Response struct {
	OK    bool
	Reply string
}

// #endregion request

// Paraphraser is any external service that can reword a patient reply.
type Paraphraser interface {
	Paraphrase(ctx context.Context, req Request) (Response, error)
}
