// Package gate turns a navigation intent into an allow/block decision.
//
// A Gate serves one browser session and evaluates at most one navigation at
// a time. The lexical guard runs first; the classifier is only consulted
// when the guard is inconclusive.
package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"safebrowse/internal/models"

	"go.uber.org/zap"
)

var (
	ErrEmptyInput  = errors.New("navigation input is empty")
	ErrInvalidKind = errors.New("navigation kind must be search or visit")
	ErrBusy        = errors.New("a navigation is already being evaluated")
	ErrSuperseded  = errors.New("navigation superseded by a newer one")
)

// Screener is the local fast path. A nil result means inconclusive.
type Screener interface {
	Check(input string) *models.RiskAssessment
}

// Classifier always returns an assessment.
type Classifier interface {
	Classify(ctx context.Context, input string) models.RiskAssessment
}

// Emitter receives each completed Activity. Emit must not block on storage.
type Emitter interface {
	Emit(activity models.Activity)
}

// Mode decides what happens to a navigation that arrives mid-evaluation.
type Mode string

const (
	// ModeSupersede abandons the in-flight evaluation (last write wins).
	ModeSupersede Mode = "supersede"
	// ModeReject refuses the new navigation with ErrBusy.
	ModeReject Mode = "reject"
)

// Option configures a Gate.
type Option func(*Gate)

// WithMode sets the concurrency mode.
func WithMode(m Mode) Option {
	return func(g *Gate) {
		if m == ModeReject || m == ModeSupersede {
			g.mode = m
		}
	}
}

// WithTimeout bounds the whole evaluation, including the classifier call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// Gate is the per-session navigation state machine.
type Gate struct {
	screen   Screener
	classify Classifier
	emit     Emitter
	logger   *zap.Logger
	mode     Mode
	timeout  time.Duration
	now      func() time.Time

	// slot serializes evaluations so two never interleave.
	slot chan struct{}

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	subs   map[int]chan State
	nextID int
}

// New creates an idle Gate.
func New(screen Screener, classify Classifier, emit Emitter, logger *zap.Logger, opts ...Option) *Gate {
	g := &Gate{
		screen:   screen,
		classify: classify,
		emit:     emit,
		logger:   logger,
		mode:     ModeSupersede,
		now:      time.Now,
		slot:     make(chan struct{}, 1),
		state:    State{Phase: PhaseIdle},
		subs:     make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Navigate evaluates one navigation. Empty input is rejected before any
// state change. On success exactly one Activity has been emitted.
func (g *Gate) Navigate(ctx context.Context, input string, kind models.ActivityKind) (models.Activity, models.RiskAssessment, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return models.Activity{}, models.RiskAssessment{}, ErrEmptyInput
	}
	if !kind.Valid() {
		return models.Activity{}, models.RiskAssessment{}, ErrInvalidKind
	}

	evalCtx, seq, err := g.begin(ctx, content, kind)
	if err != nil {
		return models.Activity{}, models.RiskAssessment{}, err
	}
	defer g.release(seq)

	select {
	case g.slot <- struct{}{}:
		defer func() { <-g.slot }()
	case <-evalCtx.Done():
		return models.Activity{}, models.RiskAssessment{}, g.abandoned(ctx, seq)
	}

	if !g.current(seq) {
		return models.Activity{}, models.RiskAssessment{}, ErrSuperseded
	}

	assessment, source := g.assess(evalCtx, content)
	assessment.Normalize()

	g.mu.Lock()
	defer g.mu.Unlock()

	if seq != g.state.Seq {
		g.logger.Debug("Discarding stale assessment", zap.Uint64("seq", seq))
		return models.Activity{}, models.RiskAssessment{}, ErrSuperseded
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		g.publish(State{Seq: seq, Phase: PhaseIdle})
		return models.Activity{}, models.RiskAssessment{}, ctx.Err()
	}

	activity := models.NewActivity(kind, content, assessment, g.now())
	g.emit.Emit(activity)

	next := State{
		Seq:        seq,
		Phase:      PhaseAllowed,
		Input:      content,
		Kind:       kind,
		Activity:   &activity,
		Assessment: &assessment,
	}
	if kind == models.KindVisit {
		next.URL = DisplayURL(content)
	}
	if !assessment.IsSafe {
		next.Phase = PhaseBlocked
		next.Notice = NewBlockNotice(assessment.Reason)
		next.URL = ""
	}
	g.publish(next)

	g.logger.Info("Navigation evaluated",
		zap.String("activity_id", activity.ID),
		zap.String("source", source),
		zap.String("status", string(activity.Status)),
		zap.String("risk_level", string(activity.RiskLevel)),
		zap.Bool("verified", activity.Verified))

	return activity, assessment, nil
}

// begin moves the gate to Evaluating, abandoning or refusing a navigation
// already in flight depending on the mode.
func (g *Gate) begin(ctx context.Context, content string, kind models.ActivityKind) (context.Context, uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Phase == PhaseEvaluating {
		if g.mode == ModeReject {
			return nil, 0, ErrBusy
		}
		if g.cancel != nil {
			g.cancel()
		}
		g.logger.Debug("Superseding in-flight navigation", zap.Uint64("seq", g.state.Seq))
	}

	var (
		evalCtx context.Context
		cancel  context.CancelFunc
	)
	if g.timeout > 0 {
		evalCtx, cancel = context.WithTimeout(ctx, g.timeout)
	} else {
		evalCtx, cancel = context.WithCancel(ctx)
	}
	g.cancel = cancel

	seq := g.state.Seq + 1
	if g.state.Phase != PhaseIdle && g.state.Phase != PhaseEvaluating {
		g.publish(State{Seq: seq, Phase: PhaseIdle})
	}
	g.publish(State{Seq: seq, Phase: PhaseEvaluating, Input: content, Kind: kind})
	return evalCtx, seq, nil
}

// release drops the cancel func of seq once it is no longer needed.
func (g *Gate) release(seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Seq == seq && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

func (g *Gate) current(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Seq == seq
}

// abandoned resolves an evaluation that ended before it got the slot.
func (g *Gate) abandoned(ctx context.Context, seq uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Seq != seq {
		return ErrSuperseded
	}
	g.publish(State{Seq: seq, Phase: PhaseIdle})
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.DeadlineExceeded
}

func (g *Gate) assess(ctx context.Context, content string) (models.RiskAssessment, string) {
	if a := g.screen.Check(content); a != nil {
		return *a, "guard"
	}
	return g.classify.Classify(ctx, content), "classifier"
}

// State returns the latest published state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Subscribe returns a channel carrying the latest state. Slow readers only
// ever see the most recent value. Call the returned func to unsubscribe.
func (g *Gate) Subscribe() (<-chan State, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	ch := make(chan State, 1)
	ch <- g.state
	g.subs[id] = ch

	return ch, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
}

// publish must be called with g.mu held.
func (g *Gate) publish(s State) {
	g.state = s
	for _, ch := range g.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}
