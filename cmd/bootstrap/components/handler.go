package components

import (
	"rafflywin/internal/handler"
	"rafflywin/internal/handler/api"
	"rafflywin/internal/handler/middleware"
	"rafflywin/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		func(cfg config.Config) config.CookieConfig {
			return cfg.Cookie
		},
		api.NewAuthHandler,
		api.NewRaffleHandler,
		api.NewTicketHandler,
		api.NewAdminHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
