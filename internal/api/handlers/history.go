package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Migui-6/Launcher-VRacing/internal/history"
	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

// HistoryStore is the read side of history.Store.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]history.Session, error)
	Get(ctx context.Context, id string) (history.Session, bool, error)
	Events(ctx context.Context, sessionID string) ([]history.EventRecord, error)
}

type HistoryHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) ListSessions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	sessions, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history", "details": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []history.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *HistoryHandler) ListEvents(c *gin.Context) {
	sessionID := c.Param("session")
	session, ok, err := h.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session", "details": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	events, err := h.store.Events(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events", "details": err.Error()})
		return
	}
	if events == nil {
		events = []history.EventRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "events": events})
}
