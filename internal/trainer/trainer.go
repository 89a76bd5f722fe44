// Package trainer is the host application service. It loads a session's
// current belief state, runs the simulator, polishes the reply, checks the
// result and commits it as a new belief version. Turns on one session are
// serialized; a second concurrent turn is refused rather than queued.
package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/eval"
	"github.com/toradrage/mct-trener/internal/logging"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/paraphrase"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
	"github.com/toradrage/mct-trener/internal/simulator"
)

var (
	// ErrTurnInProgress is returned when a turn is submitted while another one
	// on the same session is still running.
	ErrTurnInProgress = errors.New("turn already in progress")
	// ErrInvalidDifficulty is returned for difficulty levels outside 1..3.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrEvalFailed is returned when a computed turn breaks an engine invariant.
	// Nothing is committed.
	ErrEvalFailed = errors.New("turn failed validation")
)

// #region service

// Service runs training sessions against a session store.
type Service struct {
	store    *session.Store
	sim      *simulator.Simulator
	polisher *paraphrase.Polisher
	harness  *eval.EvalHarness
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires a Service. A nil polisher keeps rule replies, a nil harness uses
// the default eval tolerances and a nil logger discards output.
func New(store *session.Store, sim *simulator.Simulator, polisher *paraphrase.Polisher, harness *eval.EvalHarness, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if polisher == nil {
		polisher = paraphrase.NewPolisher(nil, nil, sim.Config(), 0, log)
	}
	if harness == nil {
		harness = eval.NewHarness(eval.DefaultEvalConfig(), sim.Config())
	}
	return &Service{
		store:    store,
		sim:      sim,
		polisher: polisher,
		harness:  harness,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock takes the per-session turn lock without waiting.
func (s *Service) lock(sessionID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()
	if !l.TryLock() {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrTurnInProgress)
	}
	return l.Unlock, nil
}

// #endregion service

// #region new-session

// NewSession creates a session at the seed state. With formulation set the
// session opens with the case-formulation checklist.
func (s *Service) NewSession(difficulty rules.Difficulty, formulation bool) (StateView, error) {
	if !difficulty.Valid() {
		return StateView{}, fmt.Errorf("difficulty %d: %w", difficulty, ErrInvalidDifficulty)
	}
	seed := belief.Seed()
	if formulation {
		seed = belief.SeedWithFormulation()
	}
	sess, ver, err := s.store.CreateSession(difficulty, seed, s.sim.Config().Version)
	if err != nil {
		return StateView{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("session created",
		zap.String("session", sess.ID),
		zap.Int("difficulty", int(difficulty)),
		zap.Bool("formulation", formulation),
	)
	return s.view(sess, ver), nil
}

// #endregion new-session

// #region submit-turn

// SubmitTurn runs one therapist turn and commits the result.
func (s *Service) SubmitTurn(ctx context.Context, sessionID string, req TurnRequest) (TurnResult, error) {
	unlock, err := s.lock(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	cur, err := s.store.GetCurrent(sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	// 1. Simulate
	out := s.sim.Simulate(simulator.Input{
		Intervention:     req.Intervention,
		Difficulty:       sess.Difficulty,
		Message:          req.Message,
		State:            cur.State,
		TurnIndex:        sess.TurnCount,
		SelectedCategory: req.SelectedCategory,
	})
	next := belief.Merge(cur.State, out.Patch)

	// 2. Eval before anything is written
	ev := s.harness.Run(cur.State, next, out)
	if !ev.Passed {
		s.log.Error("turn failed validation",
			zap.String("session", sessionID),
			zap.Int("turn", sess.TurnCount),
			zap.String("reason", ev.Reason),
		)
		return TurnResult{}, fmt.Errorf("%w: %s", ErrEvalFailed, ev.Reason)
	}

	// 3. Optional paraphrase within budget
	polished := s.polisher.Polish(ctx, paraphrase.Request{
		RuleReply:    out.Reply,
		Trace:        out.Trace,
		Phase:        out.Phase,
		Intervention: req.Intervention,
		Difficulty:   sess.Difficulty,
		State:        next,
	})

	// 4. Commit
	reason := fmt.Sprintf("turn %d: %s", sess.TurnCount, turnLabel(out.Phase, req))
	ver, err := s.store.MergePatch(sessionID, cur.VersionID, out.Patch, reason, true)
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn: %w", err)
	}

	// 5. Turn log
	signalsJSON, _ := json.Marshal(out.Signals)
	flagsJSON, _ := json.Marshal(out.Flags)
	if err := logging.LogTurn(s.store.DB(), logging.TurnEntry{
		SessionID:    sessionID,
		VersionID:    ver.VersionID,
		TurnIndex:    sess.TurnCount,
		Phase:        string(out.Phase),
		Intervention: string(req.Intervention),
		Difficulty:   int(sess.Difficulty),
		Message:      req.Message,
		Category:     string(req.SelectedCategory),
		Reply:        polished.Reply,
		ReplySource:  polished.Source,
		Trace:        out.Trace,
		SignalsJSON:  string(signalsJSON),
		FlagsJSON:    string(flagsJSON),
	}); err != nil {
		s.log.Warn("turn log write failed", zap.String("session", sessionID), zap.Error(err))
	}

	s.log.Info("turn committed",
		zap.String("session", sessionID),
		zap.Int("turn", sess.TurnCount),
		zap.String("phase", string(out.Phase)),
		zap.String("intervention", string(req.Intervention)),
		zap.Float64("cas", out.Signals.CAS),
		zap.Float64("delta_cas", out.Signals.DeltaCAS),
		zap.Bool("backfire", out.Flags.EarlyProcessBackfire),
		zap.Bool("content_penalty", out.Flags.ContentCBTPenalty),
		zap.String("reply_source", polished.Source),
	)

	return TurnResult{
		SessionID:    sessionID,
		VersionID:    ver.VersionID,
		TurnIndex:    sess.TurnCount,
		Reply:        polished.Reply,
		ReplySource:  polished.Source,
		RuleReply:    out.Reply,
		Trace:        out.Trace,
		Phase:        out.Phase,
		RelativeTurn: out.RelativeTurn,
		Signals:      out.Signals,
		Flags:        out.Flags,
		State:        ver.State,
		Eval:         ev,
	}, nil
}

func turnLabel(ph rules.Phase, req TurnRequest) string {
	if ph == rules.PhaseFormulation {
		if req.SelectedCategory != "" {
			return "formulation/" + string(req.SelectedCategory)
		}
		return "formulation"
	}
	return string(req.Intervention)
}

// #endregion submit-turn

// #region start-intervention-phase

// StartInterventionPhase opens phase 2 once the checklist is complete. It
// returns phase.ErrFormulationIncomplete otherwise. Sessions without a
// formulation phase are returned unchanged.
func (s *Service) StartInterventionPhase(sessionID string) (StateView, error) {
	unlock, err := s.lock(sessionID)
	if err != nil {
		return StateView{}, err
	}
	defer unlock()

	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return StateView{}, err
	}
	cur, err := s.store.GetCurrent(sessionID)
	if err != nil {
		return StateView{}, err
	}
	patch, err := phase.StartIntervention(cur.State, sess.TurnCount)
	if err != nil {
		return StateView{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if patch.IsEmpty() {
		return s.view(sess, cur), nil
	}
	ver, err := s.store.MergePatch(sessionID, cur.VersionID, patch, phase.StartInterventionReason, false)
	if err != nil {
		return StateView{}, fmt.Errorf("start intervention phase: %w", err)
	}
	s.log.Info("intervention phase started",
		zap.String("session", sessionID),
		zap.Int("turn", sess.TurnCount),
	)
	sess.ActiveVersion = ver.VersionID
	return s.view(sess, ver), nil
}

// #endregion start-intervention-phase

// #region state

// State returns the session's current state.
func (s *Service) State(sessionID string) (StateView, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return StateView{}, err
	}
	cur, err := s.store.GetCurrent(sessionID)
	if err != nil {
		return StateView{}, err
	}
	return s.view(sess, cur), nil
}

func (s *Service) view(sess session.Session, ver session.Version) StateView {
	cfg := s.sim.Config()
	ph, rel := phase.Resolve(ver.State, sess.TurnCount, cfg)
	return StateView{
		Session:         sess,
		VersionID:       ver.VersionID,
		State:           ver.State,
		Phase:           ph,
		RelativeTurn:    rel,
		CAS:             metrics.CAS(ver.State, cfg),
		MetaWorry:       metrics.MetaWorry(ver.State, cfg),
		FormulationDone: ver.State.AskedCount(),
	}
}

// #endregion state
