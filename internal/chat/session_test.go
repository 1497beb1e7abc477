package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matheus3301/counsel/internal/bus"
)

var me = Credential{Token: "tok", UserID: "me"}

type harness struct {
	backend *fakeBackend
	bus     *bus.Bus
	clock   *clockwork.FakeClock
	store   *Store
	session *Session
}

func newHarness(t *testing.T, backend Backend, fb *fakeBackend) *harness {
	t.Helper()
	b := bus.New()
	fc := clockwork.NewFakeClock()
	store := NewStore(b)
	s := NewSession(backend, store, b, nil, SessionOptions{Clock: fc})
	t.Cleanup(s.Close)
	return &harness{backend: fb, bus: b, clock: fc, store: store, session: s}
}

func newTestHarness(t *testing.T) *harness {
	fb := newFakeBackend()
	return newHarness(t, fb, fb)
}

func (h *harness) open(t *testing.T, peer string) {
	t.Helper()
	if err := h.session.Open(context.Background(), me, peer); err != nil {
		t.Fatalf("Open(%s) error = %v", peer, err)
	}
	expectFetch(t, h.backend, convFor(peer))
}

func msgAt(id, sender, text string, ts time.Time) Message {
	return Message{ID: id, SenderID: sender, Text: text, Timestamp: ts}
}

func TestSessionOpenSeedsAndPolls(t *testing.T) {
	h := newTestHarness(t)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.backend.msgs["conv-alice"] = []Message{msgAt("s1", "alice", "hi", ts)}

	h.open(t, "alice")

	if h.session.State() != Open {
		t.Fatalf("state = %s, want OPEN", h.session.State())
	}
	if got := h.session.ConversationID(); got != "conv-alice" {
		t.Errorf("conversation = %q, want conv-alice", got)
	}
	if h.store.Len() != 1 {
		t.Fatalf("store len = %d, want 1 after initial fetch", h.store.Len())
	}
	if !h.session.Polling() {
		t.Fatal("poller not armed after open")
	}

	h.backend.set(func(f *fakeBackend) {
		f.msgs["conv-alice"] = append(f.msgs["conv-alice"], msgAt("s2", "me", "hello", ts.Add(time.Minute)))
	})

	expectNoFetch(t, h.backend)
	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")
	waitFor(t, "second message", func() bool { return h.store.Len() == 2 })

	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")
}

func TestSessionSinglePoller(t *testing.T) {
	h := newTestHarness(t)

	h.open(t, "alice")
	h.open(t, "bob")
	if n := h.session.live.Load(); n != 1 {
		t.Fatalf("live pollers = %d, want 1", n)
	}
	h.open(t, "carol")
	if n := h.session.live.Load(); n != 1 {
		t.Fatalf("live pollers = %d, want 1", n)
	}

	for range 3 {
		h.clock.Advance(DefaultPollInterval)
		expectFetch(t, h.backend, "conv-carol")
	}
	expectNoFetch(t, h.backend)
}

func TestSessionReopenSamePeer(t *testing.T) {
	h := newTestHarness(t)
	h.open(t, "alice")
	h.open(t, "alice")

	if n := h.session.live.Load(); n != 1 {
		t.Fatalf("live pollers = %d, want 1", n)
	}
	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")
	expectNoFetch(t, h.backend)
}

func TestSessionDiscardsInFlightInitialFetch(t *testing.T) {
	h := newTestHarness(t)
	release := make(chan struct{})
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.backend.set(func(f *fakeBackend) {
		f.block["conv-alice"] = release
		f.ignoreCtx = true
		f.msgs["conv-alice"] = []Message{msgAt("a1", "alice", "from alice", ts)}
		f.msgs["conv-bob"] = []Message{msgAt("b1", "bob", "from bob", ts)}
	})

	aliceErr := make(chan error, 1)
	go func() { aliceErr <- h.session.Open(context.Background(), me, "alice") }()
	expectFetch(t, h.backend, "conv-alice")

	h.open(t, "bob")
	close(release)

	select {
	case err := <-aliceErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("alice open error = %v, want ErrSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("alice open never returned")
	}

	for _, m := range h.store.Messages() {
		if m.ConversationID != "conv-bob" {
			t.Errorf("store holds %s from %s while showing conv-bob", m.ID, m.ConversationID)
		}
	}
	if h.store.Len() != 1 {
		t.Errorf("store len = %d, want 1", h.store.Len())
	}
	if n := h.session.live.Load(); n != 1 {
		t.Errorf("live pollers = %d, want 1", n)
	}
}

func TestSessionDiscardsInFlightPoll(t *testing.T) {
	h := newTestHarness(t)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.open(t, "alice")

	h.backend.set(func(f *fakeBackend) {
		f.block["conv-alice"] = make(chan struct{})
		f.staleOnCancel = true
		f.msgs["conv-alice"] = []Message{msgAt("a1", "alice", "late", ts)}
	})
	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")

	h.open(t, "bob")

	if h.store.Len() != 0 {
		t.Fatalf("store len = %d, want 0: stale alice snapshot landed in bob's conversation", h.store.Len())
	}
}

func TestSessionOpenFailure(t *testing.T) {
	h := newTestHarness(t)
	ch, unsub := h.bus.Subscribe(EventOpenFailed, 4)
	defer unsub()

	h.open(t, "alice")
	boom := errors.New("boom")
	h.backend.set(func(f *fakeBackend) { f.startErr = boom })

	err := h.session.Open(context.Background(), me, "bob")
	var serr *ConversationStartError
	if !errors.As(err, &serr) || serr.PeerID != "bob" || !errors.Is(err, boom) {
		t.Fatalf("Open error = %v, want ConversationStartError for bob wrapping boom", err)
	}
	if h.session.State() != Closed {
		t.Errorf("state = %s, want CLOSED", h.session.State())
	}
	if h.session.ConversationID() != "" || h.session.PeerID() != "" {
		t.Errorf("leftover conversation %q peer %q", h.session.ConversationID(), h.session.PeerID())
	}
	if h.session.Polling() {
		t.Error("poller still alive after failed open")
	}
	if h.store.Len() != 0 {
		t.Errorf("store len = %d, want 0", h.store.Len())
	}

	select {
	case evt := <-ch:
		if _, ok := evt.Payload.(*ConversationStartError); !ok {
			t.Errorf("payload type = %T", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for open_failed")
	}

	h.clock.Advance(DefaultPollInterval)
	expectNoFetch(t, h.backend)
}

func TestSessionOpenEmptyPeer(t *testing.T) {
	h := newTestHarness(t)
	err := h.session.Open(context.Background(), me, "  ")
	if !errors.Is(err, ErrEmptyPeer) {
		t.Fatalf("error = %v, want ErrEmptyPeer", err)
	}
	if h.session.State() != Closed {
		t.Errorf("state = %s, want CLOSED", h.session.State())
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	h := newTestHarness(t)
	ch, unsub := h.bus.Subscribe(EventStateChanged, 16)
	defer unsub()

	h.session.Close()
	select {
	case evt := <-ch:
		t.Fatalf("close of closed session emitted %v", evt.Payload)
	case <-time.After(20 * time.Millisecond):
	}

	h.open(t, "alice")
	h.session.Close()
	h.session.Close()

	if h.session.State() != Closed {
		t.Errorf("state = %s, want CLOSED", h.session.State())
	}
	if h.session.Polling() {
		t.Error("poller alive after close")
	}
	if _, ok := h.session.Active(); ok {
		t.Error("Active() reports an open conversation after close")
	}
	h.clock.Advance(DefaultPollInterval)
	expectNoFetch(t, h.backend)
}

func TestSessionFetchErrorKeepsLastGoodState(t *testing.T) {
	h := newTestHarness(t)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.backend.msgs["conv-alice"] = []Message{msgAt("s1", "alice", "hi", ts), msgAt("s2", "me", "yo", ts)}
	h.open(t, "alice")
	before := h.store.Messages()

	ch, unsub := h.bus.Subscribe(EventFetchFailed, 4)
	defer unsub()
	h.backend.set(func(f *fakeBackend) { f.fetchErr = ErrUnauthorized })

	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")

	select {
	case evt := <-ch:
		ferr, ok := evt.Payload.(*FetchError)
		if !ok || !errors.Is(ferr, ErrUnauthorized) {
			t.Errorf("payload = %v, want FetchError wrapping ErrUnauthorized", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for fetch_failed")
	}

	if got := h.store.Messages(); len(got) != len(before) {
		t.Errorf("store len = %d, want %d after failed poll", len(got), len(before))
	}
	if !h.session.Polling() {
		t.Error("poller stopped after a failed fetch")
	}
}

func TestSessionInitialFetchFailureStillArms(t *testing.T) {
	h := newTestHarness(t)
	h.backend.set(func(f *fakeBackend) { f.fetchErr = errors.New("unreachable") })

	h.open(t, "alice")
	if h.session.State() != Open || !h.session.Polling() {
		t.Fatalf("state = %s polling = %v, want OPEN and polling", h.session.State(), h.session.Polling())
	}

	h.backend.set(func(f *fakeBackend) {
		f.fetchErr = nil
		f.msgs["conv-alice"] = []Message{msgAt("s1", "alice", "back", time.Now())}
	})
	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")
	waitFor(t, "recovered snapshot", func() bool { return h.store.Len() == 1 })
}

func TestSessionStopsWithContext(t *testing.T) {
	h := newTestHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	if err := h.session.Open(ctx, me, "alice"); err != nil {
		t.Fatal(err)
	}
	expectFetch(t, h.backend, "conv-alice")

	cancel()
	waitFor(t, "poller exit", func() bool { return !h.session.Polling() })
	h.clock.Advance(DefaultPollInterval)
	expectNoFetch(t, h.backend)
}

func TestSessionSlowFetchKeepsCadence(t *testing.T) {
	h := newTestHarness(t)
	h.open(t, "alice")

	gate := make(chan struct{})
	h.backend.set(func(f *fakeBackend) { f.block["conv-alice"] = gate })

	h.clock.Advance(DefaultPollInterval)
	expectFetch(t, h.backend, "conv-alice")

	// Two periods elapse while the fetch hangs. Only one tick is kept.
	h.clock.Advance(DefaultPollInterval)
	h.clock.Advance(DefaultPollInterval)
	expectNoFetch(t, h.backend)

	close(gate)
	expectFetch(t, h.backend, "conv-alice")
	expectNoFetch(t, h.backend)

	// The next tick stays on the original schedule.
	h.clock.Advance(DefaultPollInterval - time.Millisecond)
	expectNoFetch(t, h.backend)
	h.clock.Advance(time.Millisecond)
	expectFetch(t, h.backend, "conv-alice")
	expectNoFetch(t, h.backend)
}
