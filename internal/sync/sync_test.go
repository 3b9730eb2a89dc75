package sync

import (
	"sort"
	"sync/atomic"
	"testing"
	"time"
)

// TestDiffPhones: partners known internally but gone from the sheet expire;
// sheet rows unknown internally enroll; the overlap is untouched.
func TestDiffPhones(t *testing.T) {
	internal := map[string]struct{}{
		"+79110000001": {},
		"+79110000002": {},
	}
	external := map[string]string{
		"+79110000002": "Иванов",
		"+79110000003": "Петров",
	}

	expired, fresh := diffPhones(internal, external)
	sort.Strings(expired)
	sort.Strings(fresh)

	if len(expired) != 1 || expired[0] != "+79110000001" {
		t.Errorf("expired = %v, want [+79110000001]", expired)
	}
	if len(fresh) != 1 || fresh[0] != "+79110000003" {
		t.Errorf("fresh = %v, want [+79110000003]", fresh)
	}
}

func TestDiffPhones_Converged(t *testing.T) {
	internal := map[string]struct{}{"+79110000001": {}}
	external := map[string]string{"+79110000001": "Иванов"}

	expired, fresh := diffPhones(internal, external)
	if len(expired) != 0 || len(fresh) != 0 {
		t.Errorf("converged sets produced expired=%v fresh=%v", expired, fresh)
	}
}

func TestDiffPhones_EmptySheet(t *testing.T) {
	internal := map[string]struct{}{"+79110000001": {}}

	expired, fresh := diffPhones(internal, map[string]string{})
	if len(expired) != 1 || len(fresh) != 0 {
		t.Errorf("empty sheet: expired=%v fresh=%v, want all internal expired", expired, fresh)
	}
}

// blockingRunner parks inside Run until released, so tests can hold a run in
// flight while more ticks arrive.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func (r *blockingRunner) Run() error {
	r.runs.Add(1)
	r.started <- struct{}{}
	<-r.release
	return nil
}

// TestSupervisor_SingleFlight: a tick landing while a run is still in flight
// is dropped, and the next tick after the run finishes starts a fresh one.
func TestSupervisor_SingleFlight(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	s := NewSupervisor(runner, time.Hour)

	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()
	<-runner.started

	// Overlapping tick: must return immediately without a second run.
	s.tick()
	if n := runner.runs.Load(); n != 1 {
		t.Fatalf("overlapping tick started run %d, want the first still alone", n)
	}

	close(runner.release)
	<-done

	s.tick()
	if n := runner.runs.Load(); n != 2 {
		t.Fatalf("tick after completion ran %d times total, want 2", n)
	}
}
