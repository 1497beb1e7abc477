package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/matheus3301/counsel/internal/bus"
	"github.com/matheus3301/counsel/internal/metrics"
	"go.uber.org/zap"
)

// LocalIDPrefix marks identifiers generated for optimistic messages.
const LocalIDPrefix = "local-"

// Composer owns the outbound text and performs optimistic sends into the
// store of the session's open conversation.
type Composer struct {
	session *Session
	store   *Store
	backend Backend
	bus     *bus.Bus
	logger  *zap.Logger
	clock   clockwork.Clock
	metrics *metrics.Chat

	mu   sync.Mutex
	text string

	inflight sync.WaitGroup
}

// NewComposer creates a composer bound to session and its store.
func NewComposer(session *Session, store *Store, backend Backend, b *bus.Bus, logger *zap.Logger, opts SessionOptions) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Composer{
		session: session,
		store:   store,
		backend: backend,
		bus:     b,
		logger:  logger,
		clock:   opts.Clock,
		metrics: opts.Metrics,
	}
}

// SetText replaces the input text.
func (c *Composer) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Text returns the input text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Send submits the input text. Blank input is a no-op returning "". Otherwise
// the message is appended as pending, the input is cleared, and the request
// runs in the background. When it fails the pending message is rolled back,
// the text is put back into the input and EventSendFailed is published once.
// Success changes nothing: the next poll confirms the message.
func (c *Composer) Send(ctx context.Context, cred Credential) (string, error) {
	c.mu.Lock()
	raw := c.text
	text := strings.TrimSpace(raw)
	if text == "" {
		c.mu.Unlock()
		return "", nil
	}
	t, ok := c.session.Active()
	if !ok {
		c.mu.Unlock()
		return "", ErrNoConversation
	}

	msg := Message{
		ID:        newLocalID(),
		SenderID:  cred.UserID,
		Text:      text,
		Timestamp: c.clock.Now(),
	}
	if !c.store.AppendOptimistic(t, msg) {
		c.mu.Unlock()
		return "", ErrNoConversation
	}
	c.text = ""
	c.mu.Unlock()

	c.inflight.Add(1)
	go c.deliver(ctx, cred, t.ConversationID, msg.ID, raw, text)
	return msg.ID, nil
}

// Wait blocks until every in-flight send has finished.
func (c *Composer) Wait() {
	c.inflight.Wait()
}

func (c *Composer) deliver(ctx context.Context, cred Credential, convID, localID, raw, text string) {
	defer c.inflight.Done()

	err := c.backend.SendMessage(ctx, cred, convID, text)
	c.metrics.Sent(err == nil)
	if err == nil {
		c.logger.Debug("message sent", zap.String("conversation", convID), zap.String("local_id", localID))
		c.bus.Emit(EventMessageSent, localID)
		return
	}

	c.store.Rollback(localID)
	c.restore(raw)

	serr := &SendError{ConversationID: convID, LocalID: localID, Err: err}
	c.logger.Warn("send failed", zap.String("conversation", convID), zap.String("local_id", localID), zap.Error(err))
	c.bus.Emit(EventSendFailed, serr)
}

// restore puts failed text back. Text typed since the send is kept after it.
func (c *Composer) restore(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.text == "" {
		c.text = raw
		return
	}
	c.text = raw + "\n" + c.text
}

// newLocalID returns a time-ordered identifier for an optimistic message.
func newLocalID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return LocalIDPrefix + uuid.NewString()
	}
	return LocalIDPrefix + id.String()
}
