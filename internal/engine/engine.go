package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// Sink is the relay actuator the engine dispatches events to.
// Satisfied by *relay.Controller.
type Sink interface {
	// Send switches one channel (1..8) to a value (0 or 1).
	Send(channel, value int) error

	// ResetAll releases every channel.
	ResetAll() error

	// Close releases the underlying transport.
	Close() error
}

// Opener creates a fresh sink for each run. Opening may fail (port
// unavailable, device unplugged); the engine reports that as ErrInitFailed
// and starts nothing.
type Opener interface {
	Open(ctx context.Context) (Sink, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Sink, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context) (Sink, error) {
	return f(ctx)
}

// Logger is the minimal logging interface the engine needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// EventHook observes every dispatched event. Used to feed telemetry;
// must not block.
type EventHook func(runID string, ev schedule.Event)

// CompletionHook observes run termination. Delivery mechanism for the
// completion notification (MQTT status, history recording, logging).
type CompletionHook func(res Result)

// Config contains engine tuning.
type Config struct {
	// Unit is the real duration of one schedule time unit.
	// The original controller counted in seconds; tests shrink this to
	// milliseconds. Defaults to one second.
	Unit time.Duration
}

// Engine owns the run lifecycle: it compiles run configurations into event
// queues and replays them against a relay sink on a background goroutine.
//
// Thread Safety: Start, Stop and Status are safe for concurrent use. The
// run goroutine is the sole writer of its own run's mutable state; the
// control path only flips the engine state and closes the cancel channel.
type Engine struct {
	opener Opener
	unit   time.Duration
	logger Logger

	onEvent    EventHook
	onComplete CompletionHook

	mu     sync.Mutex
	state  State
	active *run
}

// run is the state owned by one run goroutine.
type run struct {
	id     string
	cfg    schedule.RunConfig
	events []schedule.Event
	sink   Sink
	cancel chan struct{}

	startedAt time.Time

	// Written only by the run goroutine; read by Status under the
	// engine mutex after a memory barrier via dispatchedMu.
	dispatchedMu sync.Mutex
	dispatched   int

	cancelled bool
	failures  []DispatchFailure
}

// New creates an engine. The opener is invoked once per run.
func New(opener Opener, cfg Config, logger Logger) *Engine {
	unit := cfg.Unit
	if unit <= 0 {
		unit = time.Second
	}
	return &Engine{
		opener: opener,
		unit:   unit,
		logger: logger,
	}
}

// SetOnEvent registers a hook observing every dispatched event.
// Must be called before Start.
func (e *Engine) SetOnEvent(hook EventHook) {
	e.onEvent = hook
}

// SetOnComplete registers a hook observing run termination.
// Must be called before Start.
func (e *Engine) SetOnComplete(hook CompletionHook) {
	e.onComplete = hook
}

// Start begins executing a run configuration.
//
// It opens the sink, releases every channel, compiles the schedule, and
// spawns the run goroutine. Start returns as soon as the run is underway;
// completion is observable via Status polling or the completion hook.
//
// The RunConfig is taken by value; later mutation of the caller's copy
// cannot affect the run.
//
// Returns:
//   - string: the run id
//   - error: ErrAlreadyRunning if a run is active, or ErrInitFailed
//     (wrapped) if the sink could not be opened or initially reset.
//     On any error the engine remains Idle and spawns nothing.
func (e *Engine) Start(ctx context.Context, cfg schedule.RunConfig) (string, error) {
	e.mu.Lock()

	if e.state != StateIdle {
		e.mu.Unlock()
		return "", ErrAlreadyRunning
	}

	sink, err := e.opener.Open(ctx)
	if err != nil {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	// Known-safe starting point: all channels released before any
	// schedule runs.
	if err := sink.ResetAll(); err != nil {
		_ = sink.Close()
		e.mu.Unlock()
		return "", fmt.Errorf("%w: initial reset: %w", ErrInitFailed, err)
	}

	runID := "run-" + uuid.NewString()[:8]
	events := schedule.Build(cfg)

	e.logger.Info("schedule compiled",
		"run_id", runID,
		"description", cfg.Description,
		"channels", len(cfg.Channels),
		"events", len(events),
		"span_units", schedule.Span(events),
	)

	now := time.Now().UTC()

	if len(events) == 0 {
		// Legal degenerate run: nothing to replay. The reset above was
		// this run's termination reset; report completion and stay Idle.
		_ = sink.Close()
		e.mu.Unlock()
		e.logger.Info("run completed immediately, empty schedule", "run_id", runID)
		e.deliverCompletion(Result{
			RunID:       runID,
			Description: cfg.Description,
			Outcome:     OutcomeCompleted,
			StartedAt:   now,
			CompletedAt: now,
		})
		return runID, nil
	}

	r := &run{
		id:        runID,
		cfg:       cfg,
		events:    events,
		sink:      sink,
		cancel:    make(chan struct{}),
		startedAt: now,
	}

	e.state = StateRunning
	e.active = r
	e.mu.Unlock()

	go e.runLoop(r)

	return runID, nil
}

// Stop requests cancellation of the active run.
//
// Stop is asynchronous: it signals the run goroutine and returns
// immediately. The engine reaches Idle within one event's wait latency;
// remaining events are discarded and the board is reset on the way out.
//
// Returns false (a reported no-op, not an error) when no run is active.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		e.logger.Info("stop requested with no active run")
		return false
	}

	e.state = StateStopping
	close(e.active.cancel)
	e.logger.Info("stop requested, run will halt at next wait", "run_id", e.active.id)
	return true
}

// Status returns a snapshot of the engine state and the active run, if any.
func (e *Engine) Status() RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := RunStatus{State: e.state, StateName: e.state.String()}
	if e.active != nil {
		status.RunID = e.active.id
		status.Description = e.active.cfg.Description
		status.StartedAt = e.active.startedAt
		status.EventsTotal = len(e.active.events)
		status.EventsDispatched = e.active.progress()
	}
	return status
}

// runLoop replays the event queue until it drains or cancellation fires.
// It is the sole writer of the run's mutable state.
func (e *Engine) runLoop(r *run) {
	defer e.finish(r)

	elapsed := 0
	i := 0
	for i < len(r.events) {
		// Level-triggered cancellation: observed at every wait entry,
		// even if the signal arrived during the previous dispatch batch.
		select {
		case <-r.cancel:
			r.cancelled = true
			return
		default:
		}

		next := r.events[i]
		wait := time.Duration(next.Timestamp-elapsed) * e.unit
		e.logger.Debug("waiting for next event",
			"run_id", r.id, "wait", wait, "timestamp", next.Timestamp)

		timer := time.NewTimer(wait)
		select {
		case <-r.cancel:
			timer.Stop()
			r.cancelled = true
			return
		case <-timer.C:
		}

		// Dispatch every event due at this instant before waiting again,
		// so channels switching together are never separated by a sleep.
		elapsed = next.Timestamp
		for i < len(r.events) && r.events[i].Timestamp == elapsed {
			e.dispatch(r, r.events[i])
			i++
		}
	}
}

// dispatch sends one event to the sink, records failures, and feeds the
// event hook.
func (e *Engine) dispatch(r *run, ev schedule.Event) {
	e.logger.Info("set channel",
		"run_id", r.id,
		"name", ev.Name,
		"channel", ev.Channel,
		"state", ev.State,
		"timestamp", ev.Timestamp,
	)

	if err := r.sink.Send(ev.Channel, ev.State); err != nil {
		e.logger.Error("relay write failed",
			"run_id", r.id, "channel", ev.Channel, "error", err)
		r.failures = append(r.failures, DispatchFailure{
			Timestamp: ev.Timestamp,
			Channel:   ev.Channel,
			Name:      ev.Name,
			Error:     err.Error(),
		})
	}

	r.dispatchedMu.Lock()
	r.dispatched++
	r.dispatchedMu.Unlock()

	if e.onEvent != nil {
		e.onEvent(r.id, ev)
	}
}

// progress returns how many events have been dispatched so far.
func (r *run) progress() int {
	r.dispatchedMu.Lock()
	defer r.dispatchedMu.Unlock()
	return r.dispatched
}

// finish resets the board exactly once, releases the sink, transitions the
// engine back to Idle and delivers the completion notification.
func (e *Engine) finish(r *run) {
	if err := r.sink.ResetAll(); err != nil {
		e.logger.Error("final reset failed", "run_id", r.id, "error", err)
	}
	if err := r.sink.Close(); err != nil {
		e.logger.Error("closing sink failed", "run_id", r.id, "error", err)
	}

	res := Result{
		RunID:            r.id,
		Description:      r.cfg.Description,
		StartedAt:        r.startedAt,
		CompletedAt:      time.Now().UTC(),
		EventsTotal:      len(r.events),
		EventsDispatched: r.progress(),
		Failures:         r.failures,
	}
	switch {
	case r.cancelled:
		res.Outcome = OutcomeCancelled
	case len(r.failures) > 0:
		res.Outcome = OutcomePartial
	default:
		res.Outcome = OutcomeCompleted
	}

	e.mu.Lock()
	e.state = StateIdle
	e.active = nil
	e.mu.Unlock()

	e.logger.Info("run terminated",
		"run_id", r.id,
		"outcome", res.Outcome,
		"dispatched", res.EventsDispatched,
		"total", res.EventsTotal,
		"failures", len(res.Failures),
	)

	e.deliverCompletion(res)
}

// deliverCompletion invokes the completion hook outside the engine mutex.
func (e *Engine) deliverCompletion(res Result) {
	if e.onComplete != nil {
		e.onComplete(res)
	}
}
