package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/api/middleware"
	"github.com/bidpitch/auction/internal/service"
)

// TeamHandler serves franchise endpoints.
type TeamHandler struct {
	rosterSvc *service.RosterService
}

// NewTeamHandler creates a TeamHandler.
func NewTeamHandler(rosterSvc *service.RosterService) *TeamHandler {
	return &TeamHandler{rosterSvc: rosterSvc}
}

// Create godoc
// POST /api/teams [JWT, role=team]
// Body: {"name":"...","logo_url":"...","strategy":"balanced"}
func (h *TeamHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	team, err := h.rosterSvc.CreateTeam(c.Request.Context(), userID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, team)
}

// List godoc
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.rosterSvc.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch teams")
		return
	}
	respondSuccess(c, http.StatusOK, teams)
}

// GetByID godoc
// GET /api/teams/:id
func (h *TeamHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_TEAM_ID", "invalid team id")
		return
	}

	team, err := h.rosterSvc.GetTeam(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, team)
}

// Mine godoc
// GET /api/teams/mine [JWT]
func (h *TeamHandler) Mine(c *gin.Context) {
	userID := middleware.GetUserID(c)

	teamID, err := h.rosterSvc.TeamForUser(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	team, err := h.rosterSvc.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, team)
}
