package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matheus3301/counsel/internal/bus"
	"github.com/matheus3301/counsel/internal/metrics"
	"go.uber.org/zap"
)

// DefaultPollInterval is the fixed synchronization period.
const DefaultPollInterval = 5 * time.Second

// SessionOptions tunes a Session. Zero values select the defaults.
type SessionOptions struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Metrics  *metrics.Chat
}

// Session is the single active conversation of a user session together with
// its polling task. At most one poller is alive at any time.
//
// Backend calls made by the poller must return once their context is
// cancelled: switching conversations waits for the previous poller to exit.
type Session struct {
	backend  Backend
	store    *Store
	machine  *Machine
	bus      *bus.Bus
	logger   *zap.Logger
	clock    clockwork.Clock
	interval time.Duration
	metrics  *metrics.Chat

	mu     sync.Mutex
	gen    uint64
	peerID string
	convID string
	cancel context.CancelFunc
	done   chan struct{}

	live atomic.Int32
}

// NewSession creates a closed session writing into store.
func NewSession(backend Backend, store *Store, b *bus.Bus, logger *zap.Logger, opts SessionOptions) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Session{
		backend:  backend,
		store:    store,
		machine:  NewMachine(b),
		bus:      b,
		logger:   logger,
		clock:    opts.Clock,
		interval: opts.Interval,
		metrics:  opts.Metrics,
	}
}

// Open makes the conversation with peerID the active one. Any previous
// poller is cancelled first. On success the store holds the first snapshot
// (or stays empty if that fetch failed) and the poller is armed. The poller
// lives until Close, the next Open, or cancellation of ctx.
func (s *Session) Open(ctx context.Context, cred Credential, peerID string) error {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		err := &ConversationStartError{PeerID: peerID, Err: ErrEmptyPeer}
		s.bus.Emit(EventOpenFailed, err)
		return err
	}

	s.mu.Lock()
	s.stopLocked()
	if err := s.machine.Transition(Opening); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.peerID = peerID
	s.mu.Unlock()

	s.logger.Info("opening conversation", zap.String("peer", peerID))
	convID, err := s.backend.StartConversation(runCtx, cred, peerID)
	if err == nil && convID == "" {
		err = errors.New("backend returned an empty conversation id")
	}
	if err != nil {
		return s.failOpen(gen, &ConversationStartError{PeerID: peerID, Err: err})
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.convID = convID
	ticket := s.store.Reset(convID)
	if err := s.machine.Transition(Open); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.sync(runCtx, cred, ticket)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrSuperseded
	}
	ticker := s.clock.NewTicker(s.interval)
	done := make(chan struct{})
	s.done = done
	s.live.Add(1)
	go s.poll(runCtx, cred, ticket, ticker, done)

	s.logger.Info("conversation open",
		zap.String("peer", peerID),
		zap.String("conversation", convID),
		zap.Duration("interval", s.interval))
	return nil
}

// Close cancels the poller and forgets the conversation. Closing a closed
// session does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Current() == Closed {
		return
	}
	s.stopLocked()
	if err := s.machine.Transition(Closed); err != nil {
		s.logger.Error("close transition", zap.Error(err))
	}
	s.logger.Info("conversation closed")
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return s.machine.Current()
}

// PeerID returns the peer of the open or opening conversation.
func (s *Session) PeerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// ConversationID returns the open conversation's identifier, or "".
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convID
}

// Active returns the store ticket of the open conversation.
func (s *Session) Active() (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Current() != Open {
		return Ticket{}, false
	}
	return s.store.Ticket(), true
}

// Polling reports whether a poller is alive.
func (s *Session) Polling() bool {
	return s.live.Load() > 0
}

// stopLocked tears down the current conversation. The store is invalidated
// before the poller is cancelled so a fetch that resolves during cancellation
// cannot land in it.
func (s *Session) stopLocked() {
	s.gen++
	s.store.Invalidate()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.done != nil {
		<-s.done
		s.done = nil
	}
	s.convID = ""
	s.peerID = ""
}

func (s *Session) failOpen(gen uint64, err *ConversationStartError) error {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.peerID = ""
	s.convID = ""
	if terr := s.machine.Transition(Closed); terr != nil {
		s.logger.Error("close after failed open", zap.Error(terr))
	}
	s.mu.Unlock()

	s.logger.Warn("open conversation failed", zap.String("peer", err.PeerID), zap.Error(err.Err))
	s.bus.Emit(EventOpenFailed, err)
	return err
}

func (s *Session) poll(ctx context.Context, cred Credential, t Ticket, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer s.live.Add(-1)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			s.sync(ctx, cred, t)
		}
	}
}

// sync fetches one full snapshot and reconciles it into the store. A failed
// fetch leaves the store untouched; the next tick retries.
func (s *Session) sync(ctx context.Context, cred Credential, t Ticket) {
	s.metrics.PollTick()
	msgs, err := s.backend.ListMessages(ctx, cred, t.ConversationID)
	if ctx.Err() != nil {
		s.metrics.StaleDiscarded()
		return
	}
	if err != nil {
		s.metrics.PollFailed()
		ferr := &FetchError{Op: "messages", Err: err}
		s.logger.Warn("message fetch failed", zap.String("conversation", t.ConversationID), zap.Error(err))
		s.bus.Emit(EventFetchFailed, ferr)
		return
	}
	if !s.store.Reconcile(t, msgs) {
		s.metrics.StaleDiscarded()
		s.logger.Debug("stale snapshot discarded", zap.String("conversation", t.ConversationID))
	}
}
