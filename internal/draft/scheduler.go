package draft

import (
	"runtime"
	"sync"
	"time"
)

// Scheduler runs at most one deferred job. Scheduling a new job cancels and
// replaces the pending one.
type Scheduler struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	job   func()
	gen   uint64
}

// NewScheduler creates a scheduler that defers jobs by delay.
func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{delay: delay}
}

// Schedule replaces any pending job with job, to run after the delay.
func (s *Scheduler) Schedule(job func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.job = job
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// fire runs the job scheduled under gen unless it was replaced or cancelled.
func (s *Scheduler) fire(gen uint64) {
	job := s.take(gen)
	if job == nil {
		return
	}
	// Low priority: let other runnable goroutines go first.
	runtime.Gosched()
	job()
}

func (s *Scheduler) take(gen uint64) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.job == nil {
		return nil
	}
	job := s.job
	s.job = nil
	s.timer = nil
	return job
}

// Flush runs the pending job immediately on the calling goroutine.
// Returns false if nothing was pending.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	if s.job == nil {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	job := s.job
	s.job = nil
	s.timer = nil
	s.mu.Unlock()

	job()
	return true
}

// Stop cancels the pending job, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	s.job = nil
	s.timer = nil
}

// Pending reports whether a job is waiting to run.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}
