package controller

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs fn once after d. The returned func cancels the task if it
// has not fired yet; calling it more than once is safe.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// RealScheduler schedules on the wall clock
type RealScheduler struct{}

// After implements Scheduler using time.AfterFunc
func (RealScheduler) After(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}

// ManualScheduler is a virtual clock that only moves when Advance is called.
// Tasks fire synchronously on the goroutine calling Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at  time.Duration
	seq int
	fn  func()
}

// NewManualScheduler creates a virtual clock at zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After implements Scheduler
func (s *ManualScheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	task := &manualTask{at: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, task)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, t := range s.tasks {
			if t == task {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				return
			}
		}
	}
}

// Advance moves the clock forward by d, firing due tasks in schedule order.
// Tasks scheduled by fired tasks run too when they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool {
			if s.tasks[i].at == s.tasks[j].at {
				return s.tasks[i].seq < s.tasks[j].seq
			}
			return s.tasks[i].at < s.tasks[j].at
		})
		if len(s.tasks) == 0 || s.tasks[0].at > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		task := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.now = task.at
		s.mu.Unlock()

		task.fn()
	}
}

// Now returns the virtual time elapsed since creation
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of tasks that have not fired or been cancelled
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
