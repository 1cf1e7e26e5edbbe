package handlers

import (
	"log"
	"net/http"
	"net/url"

	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	ws "github.com/Migui-6/Launcher-VRacing/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StatusSource reports the current supervisor status.
type StatusSource interface {
	Status() supervisor.Status
}

type EventsHandler struct {
	hub    *ws.Hub
	status StatusSource
}

func NewEventsHandler(hub *ws.Hub, status StatusSource) *EventsHandler {
	return &EventsHandler{hub: hub, status: status}
}

// HandleWebSocket streams supervisor events. The first message is the
// current status so a fresh client does not need a separate request.
func (h *EventsHandler) HandleWebSocket(c *gin.Context) {
	upgrader := buildUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Events] Failed to upgrade WebSocket: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}

	client := &ws.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan *ws.Message, 64),
		Hub:  h.hub,
	}
	h.hub.Register <- client

	if err := client.SendMessage("status", h.status.Status()); err != nil {
		log.Printf("[Events] Failed to send initial status to %s: %v", client.ID, err)
	}

	go client.WritePump()
	go client.ReadPump()
}

func buildUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameHostOrigin,
	}
}

// sameHostOrigin accepts non-browser clients and pages served from the
// launcher's own host.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
