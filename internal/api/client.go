// Package api is the HTTP client for the marketplace chat REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matheus3301/counsel/internal/chat"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx answer other than 401/403.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server answered %d", e.Code)
	}
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Body)
}

// Client implements chat.Backend and chat.PresenceSource over REST.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the server at baseURL. A zero timeout selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var (
	_ chat.Backend        = (*Client)(nil)
	_ chat.PresenceSource = (*Client)(nil)
)

// ContactDTO is a contact on the wire.
type ContactDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Picture string `json:"picture,omitempty"`
}

// MessageDTO is a message on the wire.
type MessageDTO struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// StartRequest opens or resumes a conversation.
type StartRequest struct {
	PeerID string `json:"peer_id"`
}

// StartResponse carries the conversation of a StartRequest.
type StartResponse struct {
	ConversationID string `json:"conversation_id"`
}

// SendRequest submits one message.
type SendRequest struct {
	Text string `json:"text"`
}

// SendResponse carries the server-assigned message ID.
type SendResponse struct {
	ID string `json:"id"`
}

// PresenceResponse lists the online user IDs.
type PresenceResponse struct {
	Online []string `json:"online"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

func (c *Client) ListContacts(ctx context.Context, cred chat.Credential) ([]chat.Contact, error) {
	var dtos []ContactDTO
	if err := c.do(ctx, cred, http.MethodGet, "/api/chat/contacts", nil, &dtos); err != nil {
		return nil, err
	}
	contacts := make([]chat.Contact, 0, len(dtos))
	for _, d := range dtos {
		contacts = append(contacts, chat.Contact{ID: d.ID, Name: d.Name, Handle: d.Handle, Picture: d.Picture})
	}
	return contacts, nil
}

func (c *Client) StartConversation(ctx context.Context, cred chat.Credential, peerID string) (string, error) {
	var resp StartResponse
	if err := c.do(ctx, cred, http.MethodPost, "/api/chat/conversations", StartRequest{PeerID: peerID}, &resp); err != nil {
		return "", err
	}
	return resp.ConversationID, nil
}

func (c *Client) ListMessages(ctx context.Context, cred chat.Credential, conversationID string) ([]chat.Message, error) {
	var dtos []MessageDTO
	path := "/api/chat/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, cred, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, 0, len(dtos))
	for _, d := range dtos {
		msgs = append(msgs, chat.Message{
			ID:             d.ID,
			ConversationID: conversationID,
			SenderID:       d.SenderID,
			Text:           d.Text,
			Timestamp:      d.Timestamp,
		})
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, cred chat.Credential, conversationID, text string) error {
	path := "/api/chat/conversations/" + url.PathEscape(conversationID) + "/send"
	var resp SendResponse
	return c.do(ctx, cred, http.MethodPost, path, SendRequest{Text: text}, &resp)
}

func (c *Client) ListOnline(ctx context.Context, cred chat.Credential) ([]string, error) {
	var resp PresenceResponse
	if err := c.do(ctx, cred, http.MethodGet, "/api/chat/presence", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Online, nil
}

// Health checks that the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, chat.Credential{}, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server reports status %q", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, cred chat.Credential, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, chat.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{Code: resp.StatusCode, Body: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var er ErrorResponse
	if json.Unmarshal(raw, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(raw))
}
