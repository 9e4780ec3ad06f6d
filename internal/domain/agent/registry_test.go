package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/utils/platformerrors"
)

func newTestRegistry() *Registry {
	return NewRegistry(nil, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	r := newTestRegistry()

	a, err := r.Register(context.Background(), &Agent{Name: "Sam", Languages: []string{"en"}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.ID == "" {
		t.Error("expected a generated id")
	}
	if a.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want default 3", a.MaxConcurrent)
	}
	if a.Status != StatusOffline {
		t.Errorf("Status = %s, want offline default", a.Status)
	}
	if a.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", a.Sequence)
	}

	b, err := r.Register(context.Background(), &Agent{Name: "Alex"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if b.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", b.Sequence)
	}

	if _, err := r.Register(context.Background(), &Agent{Name: ""}); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
	if _, err := r.Register(context.Background(), &Agent{ID: a.ID, Name: "Dup"}); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("expected conflict for duplicate id, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register(context.Background(), &Agent{Name: "Sam", Specialties: []string{"billing"}})

	got, err := r.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Specialties[0] = "mutated"
	got.CurrentLoad = 99

	again, _ := r.Get(context.Background(), a.ID)
	if again.Specialties[0] != "billing" || again.CurrentLoad != 0 {
		t.Error("Get leaked a mutable reference to registry state")
	}

	if _, err := r.Get(context.Background(), "agt_missing"); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestLoadNeverExceedsCapacity(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register(context.Background(), &Agent{Name: "Sam", Status: StatusAvailable, MaxConcurrent: 3})

	var wg sync.WaitGroup
	successes := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.IncrementLoad(context.Background(), a.ID); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	granted := 0
	for range successes {
		granted++
	}
	if granted != 3 {
		t.Errorf("granted = %d increments, want exactly MaxConcurrent", granted)
	}

	loaded, _ := r.Get(context.Background(), a.ID)
	if loaded.CurrentLoad != 3 {
		t.Errorf("CurrentLoad = %d, want 3", loaded.CurrentLoad)
	}

	if err := r.IncrementLoad(context.Background(), a.ID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeCapacity) {
		t.Errorf("expected capacity error at max load, got %v", err)
	}
}

func TestDecrementLoadClamps(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register(context.Background(), &Agent{Name: "Sam", MaxConcurrent: 2})

	r.DecrementLoad(context.Background(), a.ID)
	loaded, _ := r.Get(context.Background(), a.ID)
	if loaded.CurrentLoad != 0 {
		t.Errorf("CurrentLoad = %d, want clamp at 0", loaded.CurrentLoad)
	}

	_ = r.IncrementLoad(context.Background(), a.ID)
	r.ResetLoad(context.Background(), a.ID)
	loaded, _ = r.Get(context.Background(), a.ID)
	if loaded.CurrentLoad != 0 {
		t.Errorf("CurrentLoad = %d, want 0 after reset", loaded.CurrentLoad)
	}
}

func TestUpdateStatus(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register(context.Background(), &Agent{Name: "Sam"})

	previous, changed, err := r.UpdateStatus(context.Background(), a.ID, StatusAvailable)
	if err != nil || !changed || previous != StatusOffline {
		t.Fatalf("UpdateStatus = %s/%v/%v, want offline/true/nil", previous, changed, err)
	}

	// Same status again reports no change.
	_, changed, err = r.UpdateStatus(context.Background(), a.ID, StatusAvailable)
	if err != nil || changed {
		t.Errorf("repeat UpdateStatus changed = %v, want false", changed)
	}

	if _, _, err := r.UpdateStatus(context.Background(), "agt_missing", StatusBusy); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestAvailableFilters(t *testing.T) {
	r := newTestRegistry()
	ready, _ := r.Register(context.Background(), &Agent{Name: "Ready", Status: StatusAvailable, Languages: []string{"en"}, MaxConcurrent: 2})
	_, _ = r.Register(context.Background(), &Agent{Name: "Away", Status: StatusAway, Languages: []string{"en"}})
	full, _ := r.Register(context.Background(), &Agent{Name: "Full", Status: StatusAvailable, Languages: []string{"en"}, MaxConcurrent: 1})
	_, _ = r.Register(context.Background(), &Agent{Name: "Spanish", Status: StatusAvailable, Languages: []string{"es"}})

	if err := r.IncrementLoad(context.Background(), full.ID); err != nil {
		t.Fatalf("IncrementLoad: %v", err)
	}

	got := r.Available(context.Background(), "en")
	if len(got) != 1 || got[0].ID != ready.ID {
		names := make([]string, len(got))
		for i, a := range got {
			names[i] = a.Name
		}
		t.Errorf("Available(en) = %v, want [Ready]", names)
	}

	// Empty language matches every accepting agent.
	got = r.Available(context.Background(), "")
	if len(got) != 2 {
		t.Errorf("Available(\"\") = %d agents, want 2", len(got))
	}
}

func TestRecordOutcome(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register(context.Background(), &Agent{Name: "Sam"})

	five := 5
	three := 3
	r.RecordOutcome(context.Background(), a.ID, &five)
	r.RecordOutcome(context.Background(), a.ID, &three)
	r.RecordOutcome(context.Background(), a.ID, nil)

	loaded, _ := r.Get(context.Background(), a.ID)
	if loaded.TotalConversations != 3 {
		t.Errorf("TotalConversations = %d, want 3", loaded.TotalConversations)
	}
	// Satisfaction averages only the scored outcomes' running mean:
	// (5)/1 then (5+3)/2 = 4, unchanged by the unscored third.
	if loaded.Satisfaction != 4 {
		t.Errorf("Satisfaction = %v, want 4", loaded.Satisfaction)
	}
}

func TestRestoreZeroesLoad(t *testing.T) {
	repo := &stubRepo{
		agents: []*Agent{
			{ID: "agt_1", Name: "Sam", CurrentLoad: 2, Sequence: 4},
			{ID: "agt_2", Name: "Alex", CurrentLoad: 1, Sequence: 7},
		},
	}
	r := NewRegistry(repo, zerolog.Nop())
	if err := r.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	for _, id := range []string{"agt_1", "agt_2"} {
		a, err := r.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if a.CurrentLoad != 0 {
			t.Errorf("CurrentLoad(%s) = %d, want 0", id, a.CurrentLoad)
		}
	}

	// New registrations continue after the highest restored sequence.
	fresh, err := r.Register(context.Background(), &Agent{Name: "New"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if fresh.Sequence != 8 {
		t.Errorf("Sequence = %d, want 8", fresh.Sequence)
	}
}

type stubRepo struct {
	mu     sync.Mutex
	agents []*Agent
	saved  []*Agent
}

func (s *stubRepo) Save(_ context.Context, a *Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, a)
	return nil
}

func (s *stubRepo) List(_ context.Context) ([]*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents, nil
}
