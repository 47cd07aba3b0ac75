package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/service"
)

// AuctionHandler serves auctions: public reads (listings, lots, live state,
// results) plus the admin round controls. Round control lives here, not in the
// backoffice, because the live rooms exist only inside this process; catalog
// mutation stays on the backoffice.
type AuctionHandler struct {
	auctionSvc *service.AuctionService
}

// NewAuctionHandler creates an AuctionHandler.
func NewAuctionHandler(auctionSvc *service.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionSvc: auctionSvc}
}

// List godoc
// GET /api/auctions
func (h *AuctionHandler) List(c *gin.Context) {
	auctions, err := h.auctionSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch auctions")
		return
	}
	respondSuccess(c, http.StatusOK, auctions)
}

// GetByID godoc
// GET /api/auctions/:id
func (h *AuctionHandler) GetByID(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	auction, err := h.auctionSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, auction)
}

// Lots godoc
// GET /api/auctions/:id/lots
func (h *AuctionHandler) Lots(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	lots, err := h.auctionSvc.Lots(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, lots)
}

// Live godoc
// GET /api/auctions/:id/live
// Returns the same snapshot a WS join delivers, for clients that poll.
func (h *AuctionHandler) Live(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, h.auctionSvc.LiveState(id))
}

// Bids godoc
// GET /api/auctions/:id/bids
func (h *AuctionHandler) Bids(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	bids, err := h.auctionSvc.Bids(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, bids)
}

// Results godoc
// GET /api/auctions/:id/results
func (h *AuctionHandler) Results(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	rows, err := h.auctionSvc.Results(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, rows)
}

// StartRound godoc
// POST /api/admin/auctions/:id/rounds  {lot_id}
func (h *AuctionHandler) StartRound(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	var req struct {
		LotID uuid.UUID `json:"lot_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "lot_id is required")
		return
	}
	if err := h.auctionSvc.StartRound(c.Request.Context(), id, req.LotID); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"auction_id": id, "lot_id": req.LotID})
}

// StartNextRound godoc
// POST /api/admin/auctions/:id/rounds/next
// Opens a round for the first unsettled lot in catalog order.
func (h *AuctionHandler) StartNextRound(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	lot, err := h.auctionSvc.StartNextRound(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, lot)
}

// ForceEndRound godoc
// POST /api/admin/auctions/:id/rounds/force-end
// Settles the live round immediately through the same finalize path a natural
// expiry takes.
func (h *AuctionHandler) ForceEndRound(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	if err := h.auctionSvc.ForceEndRound(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"auction_id": id})
}

// End godoc
// POST /api/admin/auctions/:id/end
func (h *AuctionHandler) End(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	if err := h.auctionSvc.End(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"auction_id": id})
}

func (h *AuctionHandler) auctionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return uuid.Nil, false
	}
	return id, true
}
