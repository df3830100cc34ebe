package readstore

import (
	"context"
	"time"

	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"
	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RaffleReadStore struct {
	db db.DBTX
}

func NewRaffleReadStore(dbtx db.DBTX) *RaffleReadStore {
	return &RaffleReadStore{db: dbtx}
}

const findRaffleByIDSQL = `
SELECT r.id, r.creator_id, u.display_name, r.title, r.description,
       r.unit_price_cents, r.capacity,
       (SELECT count(*) FROM tickets t WHERE t.raffle_id = r.id) AS sold_count,
       r.raffle_date, r.status, r.creation_fee_cents, r.fee_tier,
       r.categories, r.images, r.winning_number, r.winner_id,
       r.created_at, r.updated_at
FROM raffles r
JOIN users u ON u.id = r.creator_id
WHERE r.id = $1`

func (r *RaffleReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.RaffleView, error) {
	var v queries.RaffleView
	err := r.db.QueryRow(ctx, findRaffleByIDSQL, id).Scan(
		&v.ID, &v.CreatorID, &v.CreatorName, &v.Title, &v.Description,
		&v.UnitPriceCents, &v.Capacity, &v.SoldCount,
		&v.RaffleDate, &v.Status, &v.CreationFeeCents, &v.FeeTier,
		&v.Categories, &v.Images, &v.WinningNumber, &v.WinnerID,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("raffle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find raffle by ID", err)
	}
	return &v, nil
}

const findRafflesFirstPageSQL = `
SELECT r.id, r.title, r.unit_price_cents, r.capacity,
       (SELECT count(*) FROM tickets t WHERE t.raffle_id = r.id) AS sold_count,
       r.raffle_date, r.status, r.categories, r.created_at
FROM raffles r
WHERE ($1 = '' OR r.status = $1)
  AND ($2 = '' OR $2 = ANY(r.categories))
ORDER BY r.created_at DESC, r.id DESC
LIMIT $3`

func (r *RaffleReadStore) FindPageFirst(ctx context.Context, filter queries.RaffleFilter, limit int32) ([]*queries.RaffleListItem, error) {
	rows, err := r.db.Query(ctx, findRafflesFirstPageSQL, filter.Status, filter.Category, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list raffles", err)
	}
	return scanRaffleListItems(rows)
}

const findRafflesKeysetSQL = `
SELECT r.id, r.title, r.unit_price_cents, r.capacity,
       (SELECT count(*) FROM tickets t WHERE t.raffle_id = r.id) AS sold_count,
       r.raffle_date, r.status, r.categories, r.created_at
FROM raffles r
WHERE ($1 = '' OR r.status = $1)
  AND ($2 = '' OR $2 = ANY(r.categories))
  AND (r.created_at, r.id) < ($3, $4)
ORDER BY r.created_at DESC, r.id DESC
LIMIT $5`

func (r *RaffleReadStore) FindPageKeyset(ctx context.Context, filter queries.RaffleFilter, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.RaffleListItem, error) {
	rows, err := r.db.Query(ctx, findRafflesKeysetSQL, filter.Status, filter.Category, lastCreatedAt, lastID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list raffles keyset", err)
	}
	return scanRaffleListItems(rows)
}

const findRafflesByCreatorSQL = `
SELECT r.id, r.title, r.unit_price_cents, r.capacity,
       (SELECT count(*) FROM tickets t WHERE t.raffle_id = r.id) AS sold_count,
       r.raffle_date, r.status, r.categories, r.created_at
FROM raffles r
WHERE r.creator_id = $1
ORDER BY r.created_at DESC, r.id DESC
LIMIT $2`

func (r *RaffleReadStore) FindByCreator(ctx context.Context, creatorID uuid.UUID, limit int32) ([]*queries.RaffleListItem, error) {
	rows, err := r.db.Query(ctx, findRafflesByCreatorSQL, creatorID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list raffles by creator", err)
	}
	return scanRaffleListItems(rows)
}

const countActiveByCreatorSQL = `
SELECT count(*)
FROM raffles
WHERE creator_id = $1 AND status IN ('pending_payment', 'active')`

func (r *RaffleReadStore) CountActiveByCreator(ctx context.Context, creatorID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countActiveByCreatorSQL, creatorID).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count active raffles", err)
	}
	return count, nil
}

func scanRaffleListItems(rows pgx.Rows) ([]*queries.RaffleListItem, error) {
	defer rows.Close()

	var result []*queries.RaffleListItem
	for rows.Next() {
		var item queries.RaffleListItem
		err := rows.Scan(
			&item.ID, &item.Title, &item.UnitPriceCents, &item.Capacity,
			&item.SoldCount, &item.RaffleDate, &item.Status, &item.Categories,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan raffle list item", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read raffle list", err)
	}
	return result, nil
}
