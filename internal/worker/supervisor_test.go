package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSupervisorRunsJobs(t *testing.T) {
	var runs atomic.Int32
	s := NewSupervisor([]Job{
		{
			Name:     "counter",
			Interval: 10 * time.Millisecond,
			Run:      func(ctx context.Context) { runs.Add(1) },
		},
	}, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if runs.Load() < 2 {
		t.Errorf("runs = %d, want at least 2", runs.Load())
	}
}

func TestSupervisorSurvivesPanic(t *testing.T) {
	var after atomic.Int32
	panicked := false
	s := NewSupervisor([]Job{
		{
			Name:     "flaky",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) {
				if !panicked {
					panicked = true
					panic("boom")
				}
				after.Add(1)
			},
		},
	}, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for after.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if after.Load() < 1 {
		t.Error("expected the sweep to keep running after a panic")
	}
}

func TestSupervisorStopCancelsJobs(t *testing.T) {
	started := make(chan struct{}, 1)
	s := NewSupervisor([]Job{
		{
			Name:     "slow",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) {
				select {
				case started <- struct{}{}:
				default:
				}
			},
		},
	}, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
