package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/api/middleware"
	"github.com/bidpitch/auction/internal/service"
)

// PlayerHandler serves playing-profile endpoints.
type PlayerHandler struct {
	rosterSvc *service.RosterService
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(rosterSvc *service.RosterService) *PlayerHandler {
	return &PlayerHandler{rosterSvc: rosterSvc}
}

// Register godoc
// POST /api/players [JWT]
// Body: {"name":"...","role":"Batter","base_price":2000000,"stats":{...}}
func (h *PlayerHandler) Register(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	player, err := h.rosterSvc.RegisterPlayer(c.Request.Context(), &userID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, player)
}

// List godoc
// GET /api/players
func (h *PlayerHandler) List(c *gin.Context) {
	players, err := h.rosterSvc.ListPlayers(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch players")
		return
	}
	respondSuccess(c, http.StatusOK, players)
}

// GetByID godoc
// GET /api/players/:id
func (h *PlayerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_PLAYER_ID", "invalid player id")
		return
	}

	player, err := h.rosterSvc.GetPlayer(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, player)
}
