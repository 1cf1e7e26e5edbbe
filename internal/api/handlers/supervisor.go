package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	"github.com/gin-gonic/gin"
)

// Supervisor is the part of supervisor.Manager the handlers drive.
type Supervisor interface {
	Launch(ctx context.Context, cfg *supervisor.LaunchConfig) (supervisor.Handle, error)
	IsRunning() bool
	KillCurrent()
	Status() supervisor.Status
}

// Catalog provides the configured games.
type Catalog interface {
	Visible() []config.GameDefinition
	GetByID(id string) (config.GameDefinition, bool)
}

type SupervisorHandler struct {
	manager Supervisor
	games   Catalog

	// launchMu serializes the running check with the launch so two
	// requests cannot both start a game.
	launchMu sync.Mutex
}

func NewSupervisorHandler(manager Supervisor, games Catalog) *SupervisorHandler {
	return &SupervisorHandler{manager: manager, games: games}
}

func (h *SupervisorHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Status())
}

func (h *SupervisorHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.games.Visible()})
}

// LaunchGame starts a game. A running game is a conflict unless the
// request asks to replace it with ?replace=true.
func (h *SupervisorHandler) LaunchGame(c *gin.Context) {
	id := c.Param("id")
	game, ok := h.games.GetByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	replace, _ := strconv.ParseBool(c.DefaultQuery("replace", "false"))

	h.launchMu.Lock()
	defer h.launchMu.Unlock()

	if h.manager.IsRunning() {
		if !replace {
			c.JSON(http.StatusConflict, gin.H{"error": "A game is already running", "status": h.manager.Status()})
			return
		}
		h.manager.KillCurrent()
	}

	if _, err := h.manager.Launch(c.Request.Context(), supervisor.NewLaunchConfig(game)); err != nil {
		status := launchErrorStatus(err)
		logging.Component("api").Warn("launch request failed", "game_id", id, "status", status, "error", err)
		c.JSON(status, gin.H{"error": "Failed to launch game", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, h.manager.Status())
}

func (h *SupervisorHandler) KillCurrent(c *gin.Context) {
	h.manager.KillCurrent()
	c.JSON(http.StatusOK, h.manager.Status())
}

func launchErrorStatus(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, supervisor.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, supervisor.ErrLaunchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
