// Package api builds the public HTTP surface: REST endpoints plus the
// WebSocket upgrade path.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bidpitch/auction/internal/api/handler"
	"github.com/bidpitch/auction/internal/api/middleware"
	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/repository"
	"github.com/bidpitch/auction/internal/service"
	"github.com/bidpitch/auction/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc    *service.AuthService
	RosterSvc  *service.RosterService
	AuctionSvc *service.AuctionService
	UserRepo   *repository.UserRepository
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	userH := handler.NewUserHandler(deps.AuthSvc, deps.UserRepo)
	teamH := handler.NewTeamHandler(deps.RosterSvc)
	playerH := handler.NewPlayerHandler(deps.RosterSvc)
	auctionH := handler.NewAuctionHandler(deps.AuctionSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware("auth", 10)    // per IP, auth endpoints
	writeRL := middleware.RateLimitMiddleware("writes", 30) // per IP, roster writes

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", userH.Register)
			auth.POST("/login", userH.Login)
			auth.POST("/refresh", userH.Refresh)
		}

		// ── Public read surface ──────────────────────────────────────────────
		api.GET("/teams", teamH.List)
		api.GET("/players", playerH.List)
		api.GET("/players/:id", playerH.GetByID)

		auctions := api.Group("/auctions")
		{
			auctions.GET("", auctionH.List)
			auctions.GET("/:id", auctionH.GetByID)
			auctions.GET("/:id/lots", auctionH.Lots)
			auctions.GET("/:id/live", auctionH.Live)
			auctions.GET("/:id/bids", auctionH.Bids)
			auctions.GET("/:id/results", auctionH.Results)
		}

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			authed.GET("/me", userH.Me)
			authed.GET("/me/team", teamH.Mine)
			authed.GET("/teams/:id", teamH.GetByID)

			// Roster writes
			writes := authed.Group("")
			writes.Use(writeRL)
			{
				writes.POST("/teams",
					middleware.RoleMiddleware(domain.RoleTeam, domain.RoleAdmin), teamH.Create)
				writes.POST("/players",
					middleware.RoleMiddleware(domain.RolePlayer, domain.RoleAdmin), playerH.Register)
			}

			// ── Admin round control ──────────────────────────────────────────
			// Served here rather than on the backoffice: the live rooms exist
			// only in this process, so force-end must reach this engine.
			admin := authed.Group("/admin", middleware.AdminMiddleware())
			{
				admin.POST("/auctions/:id/rounds", auctionH.StartRound)
				admin.POST("/auctions/:id/rounds/next", auctionH.StartNextRound)
				admin.POST("/auctions/:id/rounds/force-end", auctionH.ForceEndRound)
				admin.POST("/auctions/:id/end", auctionH.End)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured ones.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Production: allow only the bidpitch frontends
			allowed := map[string]bool{
				"https://bidpitch.in":     true,
				"https://www.bidpitch.in": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
