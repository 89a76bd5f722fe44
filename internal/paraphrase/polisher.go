package paraphrase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/toradrage/mct-trener/internal/gate"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/voice"
)

// DefaultBudget is the interactive time budget for one paraphrase.
const DefaultBudget = 350 * time.Millisecond

// Reply sources reported by Polish.
const (
	SourceRules      = "rules"
	SourceParaphrase = "paraphrase"
)

// Result is the reply that should be shown and where it came from.
type Result struct {
	Reply    string
	Source   string
	Decision gate.GateDecision
	Reason   string // why the rule reply was kept, empty when the paraphrase won
}

// Polisher races an external paraphrase against a time budget and keeps the
// rule reply on timeout, error or veto.
type Polisher struct {
	p      Paraphraser
	gate   *gate.Gate
	cfg    rules.Config
	budget time.Duration
	log    *zap.Logger
}

// NewPolisher builds a Polisher. A nil Paraphraser always yields the rule reply;
// a non-positive budget selects DefaultBudget.
func NewPolisher(p Paraphraser, g *gate.Gate, cfg rules.Config, budget time.Duration, log *zap.Logger) *Polisher {
	if g == nil {
		g = gate.NewGate(gate.DefaultGateConfig())
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Polisher{p: p, gate: g, cfg: cfg, budget: budget, log: log}
}

type outcome struct {
	resp Response
	err  error
}

// Polish returns the reply to display. It never blocks longer than the budget
// and never returns an empty reply when req.RuleReply is set.
func (pl *Polisher) Polish(ctx context.Context, req Request) Result {
	keep := func(reason string) Result {
		return Result{Reply: req.RuleReply, Source: SourceRules, Reason: reason}
	}
	if pl.p == nil {
		return keep("paraphrase disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, pl.budget)
	defer cancel()

	// Buffered so the worker can always finish after we stop waiting.
	ch := make(chan outcome, 1)
	go func() {
		resp, err := pl.p.Paraphrase(ctx, req)
		ch <- outcome{resp: resp, err: err}
	}()

	var o outcome
	select {
	case o = <-ch:
	case <-ctx.Done():
		pl.log.Debug("paraphrase timed out", zap.Duration("budget", pl.budget))
		return keep("timeout")
	}

	if o.err != nil {
		pl.log.Warn("paraphrase failed", zap.Error(o.err))
		return keep("error")
	}
	if !o.resp.OK || o.resp.Reply == "" {
		return keep("empty")
	}

	raw := flatten(o.resp.Reply)
	calibrated := voice.Calibrate(raw, req.Phase, pl.cfg)
	decision := pl.gate.Evaluate(gate.Candidate{
		Raw:        raw,
		Calibrated: calibrated,
		Fallback:   voice.Fallback(req.Phase),
		RuleReply:  req.RuleReply,
	})
	if decision.Vetoed {
		pl.log.Info("paraphrase vetoed", zap.String("reason", decision.Reason))
		res := keep("vetoed")
		res.Decision = decision
		return res
	}
	return Result{Reply: calibrated, Source: SourceParaphrase, Decision: decision}
}
