package components

import (
	"rafflywin/internal/gateway"
	"rafflywin/internal/pkg/clock"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/usecase"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	gateway.NewRegistry,
	func(cfg config.Config) config.PaymentsConfig {
		return cfg.Payments
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewRaffleCommands,
		commands.NewTicketCommands,
		commands.NewMaintenanceCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		queries.NewRaffleQueries,
		queries.NewTicketQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
