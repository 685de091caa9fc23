package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/logger"
)

// ErrTooManySessions is returned by Create once max_sessions is reached
var ErrTooManySessions = errors.New("session limit reached")

const subscriberBuffer = 16

// Event is one server-sent update pushed to a page
type Event struct {
	Type string                   `json:"type"`
	View *controller.View         `json:"view,omitempty"`
	File *controller.SelectedFile `json:"file,omitempty"`
}

// Event types
const (
	EventView          = "view"
	EventOpenPicker    = "open_picker"
	EventSyncInput     = "sync_input"
	EventScrollResults = "scroll_results"
)

// Session is one browser page bound to its own controller
type Session struct {
	ID        string
	CreatedAt time.Time

	ctrl *controller.Controller
	hub  *hub

	mu           sync.Mutex
	lastAccessed time.Time
}

// Controller returns the session's controller
func (s *Session) Controller() *controller.Controller {
	return s.ctrl
}

// Subscribe registers a listener for view changes. The returned function
// unregisters it.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.hub.subscribe()
}

// LastAccessed returns when the session was last used
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccessed = now
	s.mu.Unlock()
}

func (s *Session) close() {
	s.ctrl.Close()
	s.hub.close()
}

// hub is the controller.Presenter of a session. It fans controller output out
// to every open event stream. Its methods run under the controller lock, so
// sends never block: a subscriber that falls behind loses events.
type hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
	log    *logger.Logger
}

func newHub(log *logger.Logger) *hub {
	return &hub{subs: make(map[chan Event]struct{}), log: log}
}

func (h *hub) Render(view controller.View) {
	h.broadcast(Event{Type: EventView, View: &view})
}

func (h *hub) OpenPicker() {
	h.broadcast(Event{Type: EventOpenPicker})
}

func (h *hub) SyncInput(file controller.SelectedFile) {
	h.broadcast(Event{Type: EventSyncInput, File: &file})
}

func (h *hub) ScrollResults() {
	h.broadcast(Event{Type: EventScrollResults})
}

func (h *hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("event stream is behind, dropped %s event", ev.Type)
		}
	}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.closed = true
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ManagerOptions configures a SessionManager
type ManagerOptions struct {
	MaxSessions int
	TTL         time.Duration
	Timings     controller.Timings
	Labels      controller.Labels
	Logger      *logger.Logger

	// Scheduler overrides the real timers, tests use a ManualScheduler
	Scheduler controller.Scheduler
	Now       func() time.Time
}

// SessionManager keeps the live sessions of the HTTP surface
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     ManagerOptions
	log      *logger.Logger
}

// NewSessionManager creates an empty manager
func NewSessionManager(opts ManagerOptions) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Timings == (controller.Timings{}) {
		opts.Timings = controller.DefaultTimings()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = controller.RealScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      opts.Logger,
	}
}

// Create starts a new session with a freshly set-up controller
func (m *SessionManager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	now := m.opts.Now()
	id := uuid.New().String()
	log := m.log.WithComponent("session")
	h := newHub(log)
	sess := &Session{
		ID:           id,
		CreatedAt:    now,
		hub:          h,
		lastAccessed: now,
	}
	sess.ctrl = controller.Setup(h,
		controller.WithTimings(m.opts.Timings),
		controller.WithLabels(m.opts.Labels.OrDefault()),
		controller.WithScheduler(m.opts.Scheduler),
		controller.WithLogger(log),
	)
	m.sessions[id] = sess

	m.log.DebugWithFields("session created", []logger.Field{logger.Session(id), logger.F("active", len(m.sessions))})
	return sess, nil
}

// Get returns the session with id and marks it as used
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.opts.Now())
	}
	return sess, ok
}

// Delete closes and forgets a session
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.close()
		m.log.DebugWithFields("session deleted", []logger.Field{logger.Session(id)})
	}
	return ok
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle for longer than the TTL. Sessions with
// an open event stream are kept.
func (m *SessionManager) CleanupExpired() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.TTL)

	var expired []*Session
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.hub.count() > 0 || sess.LastAccessed().After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, sess)
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		m.log.Info("expired %d idle session(s)", len(expired))
	}
	return len(expired)
}

// RunCleanup calls CleanupExpired every interval until ctx is done
func (m *SessionManager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpired()
		}
	}
}

// CloseAll closes every session
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
