package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"rafflywin/internal/handler/api"
	"rafflywin/internal/handler/middleware"
	"rafflywin/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	raffleHandler *api.RaffleHandler,
	ticketHandler *api.TicketHandler,
	adminHandler *api.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, raffleHandler, ticketHandler, adminHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	raffleHandler *api.RaffleHandler,
	ticketHandler *api.TicketHandler,
	adminHandler *api.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/register", Handler: authHandler.Register},
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
				{Method: http.MethodPost, Path: "/refresh", Handler: authHandler.Refresh},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: authHandler.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: authHandler.Me},
			})
		}

		raffles := apiGroup.Group("/raffles")
		{
			addRoutes(raffles, []route{
				{Method: http.MethodPost, Path: "/quote-fee", Handler: raffleHandler.QuoteFee},
				{Method: http.MethodGet, Path: "", Handler: raffleHandler.ListRaffles},
			})

			rafflesAuth := raffles.Group("")
			rafflesAuth.Use(authMiddleware.RequireAuth())
			addRoutes(rafflesAuth, []route{
				{Method: http.MethodPost, Path: "", Handler: raffleHandler.CreateRaffle, Mw: []gin.HandlerFunc{authMiddleware.RequireCreator()}},
				{Method: http.MethodGet, Path: "/mine", Handler: raffleHandler.ListMyRaffles},
				{Method: http.MethodPost, Path: "/:id/confirm-payment", Handler: raffleHandler.ConfirmFeePayment},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: raffleHandler.CancelRaffle},
			})

			// Param route last so static paths above take precedence
			addRoutes(raffles, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: raffleHandler.GetRaffle},
			})
		}

		tickets := apiGroup.Group("/tickets")
		tickets.Use(authMiddleware.RequireAuth())
		{
			addRoutes(tickets, []route{
				{Method: http.MethodPost, Path: "/purchase", Handler: ticketHandler.Purchase},
				{Method: http.MethodPost, Path: "/confirm-payment", Handler: ticketHandler.ConfirmPayment},
				{Method: http.MethodGet, Path: "/mine", Handler: ticketHandler.ListMyTickets},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/draw", Handler: adminHandler.RunDraws},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
