package readstore

import (
	"context"

	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"
	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TicketReadStore struct {
	db db.DBTX
}

func NewTicketReadStore(dbtx db.DBTX) *TicketReadStore {
	return &TicketReadStore{db: dbtx}
}

const findTicketsByOwnerSQL = `
SELECT t.id, t.raffle_id, r.title, t.number, r.raffle_date, t.created_at
FROM tickets t
JOIN raffles r ON r.id = t.raffle_id
WHERE t.owner_id = $1
ORDER BY t.created_at DESC, t.number
LIMIT $2`

func (r *TicketReadStore) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*queries.TicketView, error) {
	rows, err := r.db.Query(ctx, findTicketsByOwnerSQL, ownerID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find tickets by owner", err)
	}
	return scanTicketViews(rows)
}

const findTicketsByIntentSQL = `
SELECT t.id, t.raffle_id, r.title, t.number, r.raffle_date, t.created_at
FROM tickets t
JOIN raffles r ON r.id = t.raffle_id
WHERE t.intent_id = $1
ORDER BY t.number`

func (r *TicketReadStore) FindByIntent(ctx context.Context, intentID uuid.UUID) ([]*queries.TicketView, error) {
	rows, err := r.db.Query(ctx, findTicketsByIntentSQL, intentID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find tickets by intent", err)
	}
	return scanTicketViews(rows)
}

func scanTicketViews(rows pgx.Rows) ([]*queries.TicketView, error) {
	defer rows.Close()

	var result []*queries.TicketView
	for rows.Next() {
		var v queries.TicketView
		err := rows.Scan(&v.ID, &v.RaffleID, &v.RaffleTitle, &v.Number, &v.RaffleDate, &v.CreatedAt)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan ticket view", err)
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read ticket views", err)
	}
	return result, nil
}
