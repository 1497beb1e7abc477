package chat

import (
	"slices"
	"sync"

	"github.com/matheus3301/counsel/internal/bus"
)

// Ticket identifies the store epoch a writer was scheduled against. A write
// carrying a ticket from an earlier epoch is dropped.
type Ticket struct {
	ConversationID string
	epoch          uint64
}

// Store is the ordered message list of the active conversation. It is written
// by the session poller (full replace) and the composer (append/rollback).
type Store struct {
	mu     sync.Mutex
	ticket Ticket
	msgs   []Message
	bus    *bus.Bus
}

// NewStore creates an empty store bound to no conversation.
func NewStore(b *bus.Bus) *Store {
	return &Store{bus: b}
}

// Reset discards the current list and starts a new epoch for conversationID.
func (s *Store) Reset(conversationID string) Ticket {
	s.mu.Lock()
	s.ticket = Ticket{ConversationID: conversationID, epoch: s.ticket.epoch + 1}
	s.msgs = nil
	t := s.ticket
	s.mu.Unlock()

	s.bus.Emit(EventMessagesChanged, conversationID)
	return t
}

// Invalidate discards the current list and leaves the store bound to no conversation.
func (s *Store) Invalidate() {
	s.Reset("")
}

// Ticket returns the current epoch's ticket.
func (s *Store) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

// Seed replaces the list with the first snapshot after a conversation opens.
func (s *Store) Seed(t Ticket, msgs []Message) bool {
	return s.Reconcile(t, msgs)
}

// Reconcile replaces the whole list with an authoritative snapshot. Every
// message becomes confirmed and in-flight optimistic messages are dropped.
// Snapshots are stably sorted by timestamp. Returns false when t is stale.
func (s *Store) Reconcile(t Ticket, msgs []Message) bool {
	next := make([]Message, len(msgs))
	for i, m := range msgs {
		m.Status = Confirmed
		if m.ConversationID == "" {
			m.ConversationID = t.ConversationID
		}
		next[i] = m
	}
	SortByTimestamp(next)

	s.mu.Lock()
	if s.ticket != t {
		s.mu.Unlock()
		return false
	}
	s.msgs = next
	s.mu.Unlock()

	s.bus.Emit(EventMessagesChanged, t.ConversationID)
	return true
}

// AppendOptimistic adds a pending message at the tail of the list.
func (s *Store) AppendOptimistic(t Ticket, m Message) bool {
	m.Status = Pending
	m.ConversationID = t.ConversationID

	s.mu.Lock()
	if s.ticket != t {
		s.mu.Unlock()
		return false
	}
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()

	s.bus.Emit(EventMessagesChanged, t.ConversationID)
	return true
}

// Rollback removes the pending message with the given local ID. Other
// messages, including other pending ones, are untouched.
func (s *Store) Rollback(localID string) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.msgs, func(m Message) bool {
		return m.ID == localID && m.Status == Pending
	})
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.msgs = slices.Delete(s.msgs, i, i+1)
	conv := s.ticket.ConversationID
	s.mu.Unlock()

	s.bus.Emit(EventMessagesChanged, conv)
	return true
}

// Messages returns a copy of the list in display order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.msgs)
}

// Len returns the number of messages, pending ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// SortByTimestamp orders msgs oldest first. Messages with equal timestamps
// keep their server order.
func SortByTimestamp(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}
