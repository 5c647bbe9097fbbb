package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"minigames/internal/domain"
	"minigames/internal/game"
	"minigames/internal/room"
	"minigames/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Manager *room.Manager
}

func NewHandler(m *room.Manager) *Handler {
	return &Handler{Manager: m}
}

type createRoomRequest struct {
	GameType domain.GameType `json:"game_type" binding:"required"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game_type required"})
		return
	}
	if !req.GameType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game_type"})
		return
	}

	created, err := h.Manager.CreateRoom(c.Request.Context(), req.GameType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewFor(created, ""))
}

func (h *Handler) ListRooms(c *gin.Context) {
	gameType := domain.GameType(c.Query("game_type"))
	if !gameType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game_type"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rooms, err := h.Manager.ListJoinable(c.Request.Context(), gameType, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, viewFor(r, ""))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

func (h *Handler) GetRoom(c *gin.Context) {
	r, err := h.Manager.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(r, c.Query("player_id")))
}

type joinRoomRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
		return
	}

	slot, r, err := h.Manager.JoinRoom(c.Request.Context(), c.Param("id"), req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slot": slot,
		"room": viewFor(r, req.PlayerID),
	})
}

type actRequest struct {
	PlayerID string      `json:"player_id" binding:"required"`
	Action   game.Action `json:"action"`
}

func (h *Handler) Act(c *gin.Context) {
	var req actRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and action required"})
		return
	}

	r, err := h.Manager.Act(c.Request.Context(), c.Param("id"), req.PlayerID, req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(r, req.PlayerID))
}

func (h *Handler) ResetRoom(c *gin.Context) {
	r, err := h.Manager.ResetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(r, c.Query("player_id")))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, room.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": "room full"})
	case errors.Is(err, room.ErrContention):
		c.JSON(http.StatusConflict, gin.H{"error": "too much contention, retry"})
	case errors.Is(err, room.ErrInvalidPhase), game.IsRuleViolation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
