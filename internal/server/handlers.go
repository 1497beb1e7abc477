package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/matheus3301/counsel/internal/api"
	"github.com/matheus3301/counsel/internal/ratelimit"
	"github.com/matheus3301/counsel/internal/store"
	"go.uber.org/zap"
)

// maxMessageLen bounds the text of one message.
const maxMessageLen = 4000

// ChatHandlers implements the /api/chat routes over the store.
type ChatHandlers struct {
	db       *store.DB
	limiter  *ratelimit.PerKey
	presence time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewChatHandlers creates the handlers. A nil limiter disables send limiting.
func NewChatHandlers(db *store.DB, limiter *ratelimit.PerKey, presenceWindow time.Duration, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		db:       db,
		limiter:  limiter,
		presence: presenceWindow,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *ChatHandlers) register(g *echo.Group) {
	g.GET("/contacts", h.listContacts)
	g.POST("/conversations", h.startConversation)
	g.GET("/conversations/:id/messages", h.listMessages)
	g.POST("/conversations/:id/send", h.send)
	g.GET("/presence", h.presenceList)
}

func (h *ChatHandlers) listContacts(c echo.Context) error {
	users, err := h.db.ListContacts(userID(c))
	if err != nil {
		return h.internal("list contacts", err)
	}
	out := make([]api.ContactDTO, 0, len(users))
	for _, u := range users {
		out = append(out, api.ContactDTO{ID: u.ID, Name: u.Name, Handle: u.Handle, Picture: u.Picture})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandlers) startConversation(c echo.Context) error {
	var req api.StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	peer := strings.TrimSpace(req.PeerID)
	if peer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "peer_id is required")
	}

	conv, err := h.db.StartConversation(userID(c), peer)
	if errors.Is(err, store.ErrNotContacts) {
		return echo.NewHTTPError(http.StatusForbidden, "peer is not a contact")
	}
	if err != nil {
		return h.internal("start conversation", err)
	}
	return c.JSON(http.StatusOK, api.StartResponse{ConversationID: conv.ID})
}

func (h *ChatHandlers) listMessages(c echo.Context) error {
	conv, err := h.participant(c)
	if err != nil {
		return err
	}
	msgs, err := h.db.ListMessages(conv.ID)
	if err != nil {
		return h.internal("list messages", err)
	}
	out := make([]api.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, api.MessageDTO{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Text:      m.Body,
			Timestamp: time.UnixMilli(m.CreatedAt).UTC(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandlers) send(c echo.Context) error {
	conv, err := h.participant(c)
	if err != nil {
		return err
	}
	var req api.SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if len(text) > maxMessageLen {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "text too long")
	}

	uid := userID(c)
	now := h.now()
	if !h.limiter.Allow(uid, now) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "send rate exceeded")
	}

	m := &store.Message{ConversationID: conv.ID, SenderID: uid, Body: text, CreatedAt: now.UnixMilli()}
	if err := h.db.InsertMessage(m); err != nil {
		return h.internal("insert message", err)
	}
	h.logger.Debug("message stored", zap.String("conversation", conv.ID), zap.String("id", m.ID))
	return c.JSON(http.StatusCreated, api.SendResponse{ID: m.ID})
}

func (h *ChatHandlers) presenceList(c echo.Context) error {
	since := h.now().Add(-h.presence).UnixMilli()
	online, err := h.db.OnlineContacts(userID(c), since)
	if err != nil {
		return h.internal("list presence", err)
	}
	if online == nil {
		online = []string{}
	}
	return c.JSON(http.StatusOK, api.PresenceResponse{Online: online})
}

// participant loads the :id conversation and checks the caller takes part in it.
func (h *ChatHandlers) participant(c echo.Context) (*store.Conversation, error) {
	conv, err := h.db.GetConversation(c.Param("id"))
	if err != nil {
		return nil, h.internal("get conversation", err)
	}
	if conv == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if !conv.Has(userID(c)) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not a participant")
	}
	return conv, nil
}

func (h *ChatHandlers) internal(op string, err error) error {
	h.logger.Error(op, zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, op+" failed")
}
