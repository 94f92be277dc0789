package draft

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSchedulerRunsAfterDelay(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	done := make(chan struct{})
	s.Schedule(func() { close(done) })

	if !s.Pending() {
		t.Error("expected job to be pending")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	if s.Pending() {
		t.Error("expected nothing pending after run")
	}
}

func TestSchedulerReplacesPendingJob(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	var first, second atomic.Int32
	done := make(chan struct{})

	s.Schedule(func() { first.Add(1) })
	s.Schedule(func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement job never ran")
	}
	time.Sleep(40 * time.Millisecond)

	if first.Load() != 0 {
		t.Errorf("expected replaced job not to run, ran %d times", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("expected replacement to run once, ran %d times", second.Load())
	}
}

func TestSchedulerFlush(t *testing.T) {
	s := NewScheduler(time.Hour)
	var runs int
	s.Schedule(func() { runs++ })

	if !s.Flush() {
		t.Fatal("expected Flush to run the pending job")
	}
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
	if s.Flush() {
		t.Error("expected second Flush to find nothing")
	}
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	var runs atomic.Int32
	s.Schedule(func() { runs.Add(1) })
	s.Stop()

	time.Sleep(40 * time.Millisecond)
	if runs.Load() != 0 {
		t.Errorf("expected stopped job not to run, ran %d times", runs.Load())
	}
	if s.Pending() {
		t.Error("expected nothing pending after Stop")
	}
}
