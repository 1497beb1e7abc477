// Package chat implements the messaging core of the marketplace client: the
// contact directory, the single active conversation session with its polling
// task, the message store with optimistic sends, and presence tracking.
package chat

import (
	"context"
	"time"
)

// Contact is someone the current user may message.
type Contact struct {
	ID      string
	Name    string
	Handle  string
	Picture string // optional
}

// DeliveryStatus tells whether a message has been seen in a backend snapshot.
type DeliveryStatus string

const (
	Pending   DeliveryStatus = "pending"
	Confirmed DeliveryStatus = "confirmed"
)

// Message is one entry of a conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Text           string
	Timestamp      time.Time
	Status         DeliveryStatus
}

// Credential is the bearer identity attached to every backend request.
type Credential struct {
	Token  string
	UserID string
}

// Backend is the REST collaborator the core talks to.
type Backend interface {
	ListContacts(ctx context.Context, cred Credential) ([]Contact, error)
	StartConversation(ctx context.Context, cred Credential, peerID string) (conversationID string, err error)
	ListMessages(ctx context.Context, cred Credential, conversationID string) ([]Message, error)
	SendMessage(ctx context.Context, cred Credential, conversationID, text string) error
}

// PresenceSource is an optional backend capability reporting which contacts
// are online.
type PresenceSource interface {
	ListOnline(ctx context.Context, cred Credential) ([]string, error)
}
