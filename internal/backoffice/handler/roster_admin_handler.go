package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/service"
)

// RosterAdminHandler serves /admin/roster approval endpoints.
type RosterAdminHandler struct {
	rosterSvc *service.RosterService
	cfg       *config.Config
}

// NewRosterAdminHandler creates a RosterAdminHandler.
func NewRosterAdminHandler(rosterSvc *service.RosterService, cfg *config.Config) *RosterAdminHandler {
	return &RosterAdminHandler{rosterSvc: rosterSvc, cfg: cfg}
}

// PendingTeams godoc
// GET /admin/roster/teams/pending
func (h *RosterAdminHandler) PendingTeams(c *gin.Context) {
	teams, err := h.rosterSvc.PendingTeams(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, teams)
}

// ApproveTeam godoc
// POST /admin/roster/teams/:id/approve
// Approval refills the team's purse to its full budget.
func (h *RosterAdminHandler) ApproveTeam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid team id")
		return
	}
	if err := h.rosterSvc.ApproveTeam(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"approved": id})
}

// PendingPlayers godoc
// GET /admin/roster/players/pending
func (h *RosterAdminHandler) PendingPlayers(c *gin.Context) {
	players, err := h.rosterSvc.PendingPlayers(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, players)
}

// ApprovePlayer godoc
// POST /admin/roster/players/:id/approve
func (h *RosterAdminHandler) ApprovePlayer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid player id")
		return
	}
	if err := h.rosterSvc.ApprovePlayer(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"approved": id})
}
