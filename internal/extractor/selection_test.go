package extractor

import (
	"errors"
	"testing"
	"time"
)

type fakeTimer struct {
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func newTestManager(t *testing.T) (*SelectionManager, *[]*fakeTimer) {
	t.Helper()
	m := NewSelectionManager(60 * time.Second)
	var timers []*fakeTimer
	m.afterFunc = func(d time.Duration, f func()) Timer {
		if d != 60*time.Second {
			t.Errorf("timer armed for %v, want 60s", d)
		}
		ft := &fakeTimer{fire: f}
		timers = append(timers, ft)
		return ft
	}
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }
	return m, &timers
}

func feedDoc(t *testing.T) Node {
	t.Helper()
	doc, err := ParseHTML(facebookFeedHTML)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSelectionTimeout(t *testing.T) {
	m, timers := newTestManager(t)

	n, err := m.Start(3, feedDoc(t), "facebook", "https://www.facebook.com/")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("candidates = %d, want 1", n)
	}
	if st := m.Status(3); !st.InProgress || st.State != StateAwaiting {
		t.Fatalf("status after start = %+v", st)
	}

	(*timers)[0].fire()

	st := m.Status(3)
	if st.InProgress {
		t.Error("InProgress should be false after the timeout")
	}
	if st.Data != nil {
		t.Errorf("Data = %+v, want nil", st.Data)
	}
	if st.State != StateTimedOut {
		t.Errorf("State = %q, want %q", st.State, StateTimedOut)
	}
	if _, err := m.Select(3, 0); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("Select after timeout err = %v, want ErrNotAwaiting", err)
	}
}

func TestSelectionSelect(t *testing.T) {
	m, timers := newTestManager(t)
	if _, err := m.Start(3, feedDoc(t), "facebook", "https://www.facebook.com/"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Select(3, 5); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("out of range err = %v, want ErrInvalidSelection", err)
	}
	if st := m.Status(3); st.State != StateAwaiting {
		t.Fatalf("bad index should keep the session awaiting, got %q", st.State)
	}

	data, err := m.Select(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if data.Username != "Crypto Giveaway Official" {
		t.Errorf("Username = %q", data.Username)
	}
	if !(*timers)[0].stopped {
		t.Error("timer should be stopped after a selection")
	}
	st := m.Status(3)
	if st.InProgress || st.State != StateSelected || st.Data != data {
		t.Errorf("status after select = %+v", st)
	}

	// A late timer callback must not clobber the selection.
	(*timers)[0].fire()
	if st := m.Status(3); st.State != StateSelected || st.Data == nil {
		t.Errorf("late expiry changed status to %+v", st)
	}
}

func TestSelectionCancel(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Cancel(9); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("cancel without session err = %v", err)
	}
	if _, err := m.Start(9, feedDoc(t), "facebook", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Cancel(9); err != nil {
		t.Fatal(err)
	}
	if st := m.Status(9); st.InProgress || st.State != StateCancelled || st.Data != nil {
		t.Errorf("status after cancel = %+v", st)
	}
	if err := m.Cancel(9); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("second cancel err = %v, want ErrNotAwaiting", err)
	}
}

func TestSelectionRestartIgnoresStaleTimer(t *testing.T) {
	m, timers := newTestManager(t)
	doc := feedDoc(t)
	if _, err := m.Start(1, doc, "facebook", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Start(1, doc, "facebook", ""); err != nil {
		t.Fatal(err)
	}
	if len(*timers) != 2 {
		t.Fatalf("armed %d timers, want 2", len(*timers))
	}
	if !(*timers)[0].stopped {
		t.Error("restart should stop the previous timer")
	}

	(*timers)[0].fire()
	if st := m.Status(1); st.State != StateAwaiting {
		t.Errorf("stale timer moved state to %q", st.State)
	}
	(*timers)[1].fire()
	if st := m.Status(1); st.State != StateTimedOut {
		t.Errorf("current timer left state %q", st.State)
	}
}

func TestSelectionNoCandidates(t *testing.T) {
	m, timers := newTestManager(t)
	doc, _ := ParseHTML(`<html><body><div role="article"><p>text only</p></div></body></html>`)
	if _, err := m.Start(2, doc, "facebook", ""); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("err = %v, want ErrNoCandidates", err)
	}
	if len(*timers) != 0 {
		t.Error("no timer should be armed without candidates")
	}
	if st := m.Status(2); st.State != StateIdle {
		t.Errorf("State = %q, want idle", st.State)
	}
}

func TestSelectionTakeConsumesSelectedPost(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Start(3, feedDoc(t), "facebook", "https://www.facebook.com/"); err != nil {
		t.Fatal(err)
	}

	if st := m.Take(3); st.State != StateAwaiting {
		t.Fatalf("Take while awaiting = %+v", st)
	}
	if st := m.Status(3); st.State != StateAwaiting {
		t.Fatalf("Take consumed an awaiting session: %+v", st)
	}

	if _, err := m.Select(3, 0); err != nil {
		t.Fatal(err)
	}
	st := m.Take(3)
	if st.State != StateSelected || st.Data == nil {
		t.Fatalf("first Take = %+v", st)
	}
	if st := m.Take(3); st.State != StateIdle || st.Data != nil {
		t.Errorf("second Take = %+v, want idle", st)
	}
}

func TestSelectionRemove(t *testing.T) {
	m, timers := newTestManager(t)
	if _, err := m.Start(4, feedDoc(t), "facebook", ""); err != nil {
		t.Fatal(err)
	}
	m.Remove(4)
	if !(*timers)[0].stopped {
		t.Error("Remove should stop the timer")
	}
	if st := m.Status(4); st.State != StateIdle {
		t.Errorf("State = %q, want idle", st.State)
	}
}

func TestSelectionTransitions(t *testing.T) {
	tests := []struct {
		from SelectionState
		ev   selectionEvent
		to   SelectionState
		ok   bool
	}{
		{StateIdle, evStart, StateAwaiting, true},
		{StateSelected, evStart, StateAwaiting, true},
		{StateAwaiting, evSelect, StateSelected, true},
		{StateAwaiting, evCancel, StateCancelled, true},
		{StateAwaiting, evExpire, StateTimedOut, true},
		{StateIdle, evSelect, StateIdle, false},
		{StateCancelled, evExpire, StateCancelled, false},
		{StateTimedOut, evCancel, StateTimedOut, false},
	}
	for _, tt := range tests {
		to, ok := tt.from.next(tt.ev)
		if to != tt.to || ok != tt.ok {
			t.Errorf("%s --%d--> (%s, %v), want (%s, %v)", tt.from, tt.ev, to, ok, tt.to, tt.ok)
		}
	}
}
