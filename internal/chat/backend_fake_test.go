package chat

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

type sendCall struct {
	ConversationID string
	Text           string
}

// fakeBackend is an in-memory Backend. Fetches are reported on the fetches
// channel before any blocking happens.
type fakeBackend struct {
	mu          sync.Mutex
	contacts    []Contact
	contactsErr error
	online      []string
	startErr    error
	msgs        map[string][]Message
	fetchErr    error
	sendErr     error
	sendErrFor  map[string]error
	sent        []sendCall

	// block holds, per conversation, a channel ListMessages waits on.
	// With ignoreCtx the wait ignores cancellation; with staleOnCancel a
	// cancelled wait still returns the snapshot instead of an error.
	block         map[string]chan struct{}
	ignoreCtx     bool
	staleOnCancel bool
	sendGate      chan struct{}

	fetches chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		msgs:       make(map[string][]Message),
		sendErrFor: make(map[string]error),
		block:      make(map[string]chan struct{}),
		fetches:    make(chan string, 64),
	}
}

func convFor(peerID string) string { return "conv-" + peerID }

func (f *fakeBackend) ListContacts(_ context.Context, _ Credential) ([]Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactsErr != nil {
		return nil, f.contactsErr
	}
	return slices.Clone(f.contacts), nil
}

func (f *fakeBackend) StartConversation(ctx context.Context, _ Credential, peerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	return convFor(peerID), ctx.Err()
}

func (f *fakeBackend) ListMessages(ctx context.Context, _ Credential, conversationID string) ([]Message, error) {
	f.fetches <- conversationID

	f.mu.Lock()
	gate := f.block[conversationID]
	ignoreCtx, staleOnCancel := f.ignoreCtx, f.staleOnCancel
	f.mu.Unlock()

	if gate != nil {
		if ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				if !staleOnCancel {
					return nil, ctx.Err()
				}
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return slices.Clone(f.msgs[conversationID]), nil
}

func (f *fakeBackend) SendMessage(_ context.Context, _ Credential, conversationID, text string) error {
	f.mu.Lock()
	gate := f.sendGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sendCall{ConversationID: conversationID, Text: text})
	if err, ok := f.sendErrFor[text]; ok {
		return err
	}
	return f.sendErr
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) sends() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// presenceBackend adds a presence feed to fakeBackend.
type presenceBackend struct {
	*fakeBackend
}

func (p presenceBackend) ListOnline(_ context.Context, _ Credential) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.online), nil
}

// expectFetch waits for the next ListMessages call and checks its conversation.
func expectFetch(t *testing.T, f *fakeBackend, want string) {
	t.Helper()
	select {
	case got := <-f.fetches:
		if got != want {
			t.Fatalf("fetch for %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for fetch of %q", want)
	}
}

// expectNoFetch checks that no ListMessages call happens for a short while.
func expectNoFetch(t *testing.T, f *fakeBackend) {
	t.Helper()
	select {
	case got := <-f.fetches:
		t.Fatalf("unexpected fetch for %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
