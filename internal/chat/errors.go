package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks backend rejections of the credential (401/403).
	ErrUnauthorized = errors.New("not authorized")
	// ErrNoConversation is returned by the composer when no conversation is open.
	ErrNoConversation = errors.New("no open conversation")
	// ErrSuperseded is returned by Open when a later Open or Close replaced it.
	ErrSuperseded = errors.New("conversation open superseded")
	// ErrEmptyPeer is returned by Open for a blank peer identifier.
	ErrEmptyPeer = errors.New("empty peer id")
)

// FetchError is a failed read: contacts or a message snapshot.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SendError is a failed send request. LocalID names the rolled back message.
type SendError struct {
	ConversationID string
	LocalID        string
	Err            error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to conversation %s: %v", e.ConversationID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ConversationStartError is a failed open/resume of a conversation.
type ConversationStartError struct {
	PeerID string
	Err    error
}

func (e *ConversationStartError) Error() string {
	return fmt.Sprintf("start conversation with %s: %v", e.PeerID, e.Err)
}

func (e *ConversationStartError) Unwrap() error { return e.Err }
