package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/service"
)

// AuctionAdminHandler serves /admin/auctions catalog endpoints: create,
// lot assembly, go-live, export. Round control is on the public server.
type AuctionAdminHandler struct {
	auctionSvc *service.AuctionService
	cfg        *config.Config
}

// NewAuctionAdminHandler creates an AuctionAdminHandler.
func NewAuctionAdminHandler(auctionSvc *service.AuctionService, cfg *config.Config) *AuctionAdminHandler {
	return &AuctionAdminHandler{auctionSvc: auctionSvc, cfg: cfg}
}

// Create godoc
// POST /admin/auctions
// Body: {"name":"...","scheduled_at":"...","budget_per_team":100000000}
func (h *AuctionAdminHandler) Create(c *gin.Context) {
	adminID := adminUserID(c)

	var req service.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	auction, err := h.auctionSvc.Create(c.Request.Context(), adminID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, auction)
}

// AddLot godoc
// POST /admin/auctions/:id/lots
// Body: {"player_id":"uuid"}
func (h *AuctionAdminHandler) AddLot(c *gin.Context) {
	auctionID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		PlayerID string `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	playerID, err := uuid.Parse(body.PlayerID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid player_id format")
		return
	}

	lot, err := h.auctionSvc.AddLot(c.Request.Context(), auctionID, playerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, lot)
}

// GoLive godoc
// POST /admin/auctions/:id/go-live
func (h *AuctionAdminHandler) GoLive(c *gin.Context) {
	auctionID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.auctionSvc.GoLive(c.Request.Context(), auctionID); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "live"})
}

// ExportCSV godoc
// GET /admin/auctions/:id/export
// Streams the settled lots as a CSV attachment.
func (h *AuctionAdminHandler) ExportCSV(c *gin.Context) {
	auctionID, ok := pathID(c)
	if !ok {
		return
	}

	rows, err := h.auctionSvc.Results(c.Request.Context(), auctionID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="auction-%s-results.csv"`, auctionID))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"order", "player", "role", "base_price", "status", "team", "final_price"})
	for _, row := range rows {
		team, price := "", ""
		if row.TeamName != nil {
			team = *row.TeamName
		}
		if row.FinalPrice != nil {
			price = strconv.FormatInt(*row.FinalPrice, 10)
		}
		_ = w.Write([]string{
			strconv.Itoa(row.OrderIndex),
			row.PlayerName,
			row.PlayerRole,
			strconv.FormatInt(row.BasePrice, 10),
			row.Status,
			team,
			price,
		})
	}
	w.Flush()
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid auction id")
		return uuid.Nil, false
	}
	return id, true
}

// adminUserID reads the admin's user id stashed by the JWT middleware.
func adminUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	id, _ := uuid.Parse(s)
	return id
}
