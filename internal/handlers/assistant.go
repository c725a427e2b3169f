package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnloop/coursechat/internal/sessions"
)

// AssistantHandler exposes the retention side of the AI chatbots:
// transcript turns and parsed document text per session. The model
// call itself happens elsewhere; this only keeps the state it needs,
// TTL-bounded instead of in a process-wide map.
type AssistantHandler struct {
	store sessions.Store
}

func NewAssistantHandler(store sessions.Store) *AssistantHandler {
	return &AssistantHandler{store: store}
}

func (h *AssistantHandler) AppendTurn(c *gin.Context) {
	sessionID := c.Param("id")

	var turn sessions.Turn
	if err := c.ShouldBindJSON(&turn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if turn.Role == "" || turn.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and content are required"})
		return
	}

	if err := h.store.AppendTurn(c.Request.Context(), sessionID, turn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store turn"})
		return
	}

	c.Status(http.StatusCreated)
}

func (h *AssistantHandler) GetTranscript(c *gin.Context) {
	sessionID := c.Param("id")

	turns, err := h.store.Transcript(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transcript"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (h *AssistantHandler) SetDocument(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SetDocument(c.Request.Context(), sessionID, req.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store document"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *AssistantHandler) GetDocument(c *gin.Context) {
	sessionID := c.Param("id")

	text, err := h.store.Document(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *AssistantHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}

	c.Status(http.StatusOK)
}
