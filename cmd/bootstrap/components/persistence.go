package components

import (
	"rafflywin/internal/infra/db"
	"rafflywin/internal/infra/readstore"
	"rafflywin/internal/infra/uow"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewRaffleReadStore,
			fx.As(new(queries.RaffleViewRepo)),
		),
		fx.Annotate(
			readstore.NewTicketReadStore,
			fx.As(new(queries.TicketViewRepo)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserReadStore)),
		),
		fx.Annotate(
			readstore.NewPaymentIntentReadStore,
			fx.As(new(commands.IntentViewStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
