package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hays/backend/internal/auth"
	"hays/backend/internal/graph"
	"hays/backend/internal/messaging"
	apperrors "hays/backend/pkg/errors"
	"hays/backend/pkg/logger"
)

// Service is the messaging surface the HTTP handlers call into. It is
// implemented by *messaging.Service.
type Service interface {
	Send(ctx context.Context, caller auth.Caller, req messaging.SendRequest) (*messaging.SendResult, error)
	History(ctx context.Context, caller auth.Caller, conversationID string) ([]graph.Message, error)
	StartConversation(ctx context.Context, caller auth.Caller, otherID string) (*messaging.StartResult, error)
	ConversationWith(ctx context.Context, caller auth.Caller, otherID string) (*graph.ConversationSummary, error)
	ListConversations(ctx context.Context, caller auth.Caller, limit, offset int) ([]graph.ConversationSummary, error)
	MarkRead(ctx context.Context, caller auth.Caller, conversationID string) (int, error)
	DeleteConversationMessages(ctx context.Context, caller auth.Caller, conversationID string) (int, error)
	DeleteUserMessages(ctx context.Context, caller auth.Caller, userID string) (int, error)
}

// Handler wires the messaging service and the realtime hub into gin routes.
type Handler struct {
	svc  Service
	hub  Joiner
	auth *auth.Authenticator
	log  *zap.Logger
}

// NewHandler creates an HTTP handler set.
func NewHandler(svc Service, hub Joiner, authenticator *auth.Authenticator) *Handler {
	return &Handler{
		svc:  svc,
		hub:  hub,
		auth: authenticator,
		log:  logger.Named("http"),
	}
}

// Register mounts all routes on the given engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/", auth.Middleware(h.auth))

	messages := authed.Group("/messages")
	{
		messages.POST("/send", h.sendMessage)
		messages.GET("", h.getMessages)
		messages.GET("/by/:conversation_id", h.getMessagesByPath)
		messages.POST("/start", h.startConversation)
		messages.GET("/conversation/with/:user_id", h.getConversationWith)
		messages.GET("/conversations", h.listConversations)
		messages.POST("/mark_read", h.markRead)
		messages.DELETE("/conversation/:conversation_id", h.deleteConversationMessages)
		messages.DELETE("/user/:user_id", h.deleteUserMessages)
	}

	authed.GET("/ws", h.serveWS)
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Content        string `json:"content" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.svc.Send(c.Request.Context(), caller, messaging.SendRequest{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Content:        req.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getMessages(c *gin.Context) {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "conversation_id is required"})
		return
	}
	h.history(c, conversationID)
}

func (h *Handler) getMessagesByPath(c *gin.Context) {
	h.history(c, c.Param("conversation_id"))
}

// history serves both the query-parameter and path-parameter variants; the
// two must behave identically.
func (h *Handler) history(c *gin.Context, conversationID string) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	messages, err := h.svc.History(c.Request.Context(), caller, conversationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type startConversationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) startConversation(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.svc.StartConversation(c.Request.Context(), caller, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getConversationWith(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	summary, err := h.svc.ConversationWith(c.Request.Context(), caller, c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if summary == nil {
		c.JSON(http.StatusOK, gin.H{"conversation_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": summary.ID,
		"user":            summary.User,
		"last_message":    summary.LastMessage,
	})
}

func (h *Handler) listConversations(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	summaries, err := h.svc.ListConversations(c.Request.Context(), caller, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

type markReadRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

func (h *Handler) markRead(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	count, err := h.svc.MarkRead(c.Request.Context(), caller, req.ConversationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

func (h *Handler) deleteConversationMessages(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	deleted, err := h.svc.DeleteConversationMessages(c.Request.Context(), caller, c.Param("conversation_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_messages": deleted})
}

func (h *Handler) deleteUserMessages(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	deleted, err := h.svc.DeleteUserMessages(c.Request.Context(), caller, c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_messages": deleted})
}

// respondError is the single translation point from the error taxonomy to
// client-facing responses. Retry decisions happened before this.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	detail := "Internal server error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		detail = appErr.Message
	}
	c.JSON(status, gin.H{"detail": detail})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
