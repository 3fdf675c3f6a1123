package state

import (
	"errors"
	"reflect"
	"testing"
)

type testSnap struct {
	Items []int
	Err   error
}

func cloneTestSnap(s testSnap) testSnap {
	dup := s
	if s.Items != nil {
		dup.Items = append([]int(nil), s.Items...)
	}
	dup.Err = CloneError(s.Err)
	return dup
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	s := NewStore(testSnap{}, cloneTestSnap)

	got := s.Update(func(snap *testSnap) { snap.Items = []int{1, 2} })
	if len(got.Items) != 2 || got.Items[0] != 1 {
		t.Fatalf("Update returned %#v, want 2 items", got)
	}

	snap := s.Snapshot()
	snap.Items[0] = 999
	if again := s.Snapshot(); again.Items[0] != 1 {
		t.Fatalf("Snapshot should clone items; got %d want 1", again.Items[0])
	}
}

func TestStore_SnapshotClonesError(t *testing.T) {
	s := NewStore(testSnap{}, cloneTestSnap)
	origErr := errors.New("boom")
	s.Update(func(snap *testSnap) { snap.Err = origErr })

	snap := s.Snapshot()
	if snap.Err == nil || snap.Err.Error() != "boom" || !errors.Is(snap.Err, origErr) {
		t.Fatalf("Err = %v, want wrapped boom", snap.Err)
	}
	if reflect.ValueOf(snap.Err).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_SubscribeKeepsLatestOnly(t *testing.T) {
	s := NewStore(testSnap{}, nil)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 1; i <= 3; i++ {
		n := i
		s.Update(func(snap *testSnap) { snap.Items = []int{n} })
	}

	got := <-ch
	if len(got.Items) != 1 || got.Items[0] != 3 {
		t.Fatalf("subscriber got %#v, want latest [3]", got.Items)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra value %#v", extra)
	default:
	}
}

func TestStore_UnsubscribeClosesChannel(t *testing.T) {
	s := NewStore(testSnap{}, nil)
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	// Updates after unsubscribe must not panic on the closed channel.
	s.Update(func(snap *testSnap) { snap.Items = []int{1} })
}

func TestPhase_StringAndSettled(t *testing.T) {
	settled := map[Phase]bool{
		Idle: false, Loading: false, Success: true, Empty: true, NotFound: true, Failure: true,
	}
	for p, want := range settled {
		if p.Settled() != want {
			t.Fatalf("%s.Settled() = %v, want %v", p, p.Settled(), want)
		}
	}
	if NotFound.String() != "not_found" || Phase(42).String() != "phase(42)" {
		t.Fatalf("unexpected Phase strings: %q %q", NotFound, Phase(42))
	}
}
