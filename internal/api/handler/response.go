// Package handler contains the public API's HTTP handlers.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bidpitch/auction/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, "data": data} with the given status.
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses. Use
// it for the common tail of a handler's error switch.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "ERR_CONFLICT", err.Error())
	case errors.Is(err, domain.ErrInsufficientBudget):
		respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BUDGET", err.Error())
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrTeamNotApproved):
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
	case domain.IsAuthError(err):
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", err.Error())
	case errors.Is(err, domain.ErrInvalidPlayerRole):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROLE", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "internal error")
	}
}
