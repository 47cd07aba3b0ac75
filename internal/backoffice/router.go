// Package backoffice builds the admin HTTP surface served on its own port:
// approvals, auction setup, and exports.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bidpitch/auction/internal/backoffice/handler"
	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/repository"
	"github.com/bidpitch/auction/internal/service"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	AuthSvc    *service.AuthService
	RosterSvc  *service.RosterService
	AuctionSvc *service.AuctionService
	UserRepo   *repository.UserRepository
	Cfg        *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	rosterH := handler.NewRosterAdminHandler(deps.RosterSvc, deps.Cfg)
	auctionH := handler.NewAuctionAdminHandler(deps.AuctionSvc, deps.Cfg)
	userH := handler.NewUserAdminHandler(deps.UserRepo, deps.Cfg)

	jwtMW := adminJWTMiddleware(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(jwtMW)
	{
		// Approvals
		roster := admin.Group("/roster")
		{
			roster.GET("/teams/pending", rosterH.PendingTeams)
			roster.POST("/teams/:id/approve", rosterH.ApproveTeam)
			roster.GET("/players/pending", rosterH.PendingPlayers)
			roster.POST("/players/:id/approve", rosterH.ApprovePlayer)
		}

		// Auctions: catalog setup and exports. Round control (start, next,
		// force-end, auction end) lives on the public server's admin routes —
		// the live rooms exist only in that process.
		a := admin.Group("/auctions")
		{
			a.POST("", auctionH.Create)
			a.POST("/:id/lots", auctionH.AddLot)
			a.POST("/:id/go-live", auctionH.GoLive)
			a.GET("/:id/export", auctionH.ExportCSV)
		}

		// Users
		u := admin.Group("/users")
		{
			u.POST("/:id/suspend", userH.Suspend)
			u.POST("/:id/activate", userH.Activate)
		}
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !allowed[clientIP] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the admin role.
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
