package controller

import (
	"sync"

	"github.com/yildizm/DropPad/internal/logger"
)

// Presenter is the presentation layer the controller drives. Implementations
// are called while the controller holds its lock and must not call back into
// Dispatch synchronously.
type Presenter interface {
	Render(view View)
	OpenPicker()
	SyncInput(file SelectedFile)
	ScrollResults()
}

// Outcome is what a single Dispatch produced
type Outcome struct {
	Snapshot Snapshot
	View     View
	Effects  []Effect
}

// Controller owns a Snapshot and carries out transition effects against a
// Presenter and a Scheduler. All triggers, including fired timers, are
// serialized through one mutex.
type Controller struct {
	mu        sync.Mutex
	snap      Snapshot
	timings   Timings
	labels    Labels
	scheduler Scheduler
	presenter Presenter
	log       *logger.Logger
	pending   map[pendingKey]func()
	observe   func(Trigger, Outcome)
	closed    bool
}

type pendingKey struct {
	run   uint64
	stage Stage
}

// Option configures a Controller
type Option func(*Controller)

// WithScheduler sets the scheduler used for the analysis stages
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithTimings overrides the analysis delays
func WithTimings(t Timings) Option {
	return func(c *Controller) {
		c.timings = t
	}
}

// WithLabels overrides the analyze control captions
func WithLabels(l Labels) Option {
	return func(c *Controller) {
		c.labels = l
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithObserver registers fn to be called after every applied trigger,
// including stages fired by the scheduler. fn runs under the controller lock.
func WithObserver(fn func(Trigger, Outcome)) Option {
	return func(c *Controller) {
		c.observe = fn
	}
}

// Setup binds a new controller to presenter and renders the initial view.
// Hosts call it once their presentation tree exists.
func Setup(presenter Presenter, opts ...Option) *Controller {
	c := &Controller{
		snap:      Initial(),
		timings:   DefaultTimings(),
		labels:    DefaultLabels(),
		scheduler: RealScheduler{},
		presenter: presenter,
		log:       logger.Nop(),
		pending:   make(map[pendingKey]func()),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presenter != nil {
		c.presenter.Render(Render(c.snap, c.labels))
	}
	return c
}

// Dispatch applies t and carries out the resulting effects
func (c *Controller) Dispatch(t Trigger) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(t)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// View returns the current presentation flags
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Render(c.snap, c.labels)
}

// PendingTasks returns how many analysis stages are scheduled and not yet fired
func (c *Controller) PendingTasks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels every pending stage. Triggers dispatched afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cancel := range c.pending {
		cancel()
		delete(c.pending, key)
	}
	c.closed = true
}

func (c *Controller) apply(t Trigger) Outcome {
	if c.closed {
		return Outcome{Snapshot: c.snap, View: Render(c.snap, c.labels)}
	}

	prev := c.snap
	next, effects := Transition(prev, t, c.timings)
	c.snap = next

	if prev.State != next.State {
		c.log.DebugWithFields("transition %s -> %s", []logger.Field{logger.F("trigger", t.Name()), logger.Run(next.Run)}, prev.State, next.State)
	}

	for _, eff := range effects {
		c.carryOut(eff)
	}

	view := Render(next, c.labels)
	if c.presenter != nil {
		c.presenter.Render(view)
	}
	out := Outcome{Snapshot: next, View: view, Effects: effects}
	if c.observe != nil {
		c.observe(t, out)
	}
	return out
}

func (c *Controller) carryOut(eff Effect) {
	switch eff.Kind {
	case EffectSchedule:
		key := pendingKey{run: eff.Run, stage: eff.Stage}
		c.pending[key] = c.scheduler.After(eff.Delay, func() { c.fire(key) })
	case EffectCancel:
		for key, cancel := range c.pending {
			if key.run == eff.Run {
				cancel()
				delete(c.pending, key)
				c.log.DebugWithFields("cancelled %s stage", []logger.Field{logger.Run(key.run)}, key.stage)
			}
		}
	case EffectOpenPicker:
		if c.presenter != nil {
			c.presenter.OpenPicker()
		}
	case EffectSyncInput:
		if c.presenter != nil && eff.File != nil {
			c.presenter.SyncInput(*eff.File)
		}
	case EffectScrollResults:
		if c.presenter != nil {
			c.presenter.ScrollResults()
		}
	}
}

func (c *Controller) fire(key pendingKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
	c.apply(Elapsed{Run: key.run, Stage: key.stage})
}
