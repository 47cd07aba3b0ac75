package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/repository"
)

// UserAdminHandler serves /admin/users moderation endpoints.
type UserAdminHandler struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
}

// NewUserAdminHandler creates a UserAdminHandler.
func NewUserAdminHandler(userRepo *repository.UserRepository, cfg *config.Config) *UserAdminHandler {
	return &UserAdminHandler{userRepo: userRepo, cfg: cfg}
}

// Suspend godoc
// POST /admin/users/:id/suspend
func (h *UserAdminHandler) Suspend(c *gin.Context) {
	h.setActive(c, false)
}

// Activate godoc
// POST /admin/users/:id/activate
func (h *UserAdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserAdminHandler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid user id")
		return
	}
	if err := h.userRepo.SetActive(c.Request.Context(), id, active); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user_id": id, "is_active": active})
}
