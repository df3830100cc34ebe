package repository

import (
	"context"
	"time"

	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"

	"github.com/google/uuid"
)

type RaffleRepository struct {
	db db.DBTX
}

func NewRaffleRepository(dbtx db.DBTX) *RaffleRepository {
	return &RaffleRepository{db: dbtx}
}

const createRaffleSQL = `
INSERT INTO raffles (
    id, creator_id, title, description, unit_price_cents, capacity,
    raffle_date, status, creation_fee_cents, fee_tier, categories, images
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

func (r *RaffleRepository) Create(ctx context.Context, rf *raffle.Raffle) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, createRaffleSQL,
		rf.ID(),
		rf.CreatorID(),
		rf.Title().String(),
		rf.Description().String(),
		rf.UnitPrice().Cents(),
		rf.Capacity(),
		rf.RaffleDate(),
		string(rf.Status()),
		rf.CreationFee().Cents(),
		rf.FeeTier(),
		rf.Categories(),
		rf.Images(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create raffle", err)
	}
	return id, nil
}

const getRaffleForUpdateSQL = `
SELECT id, creator_id, title, description, unit_price_cents, capacity,
       raffle_date, status, creation_fee_cents, fee_tier, categories, images,
       created_at, updated_at
FROM raffles
WHERE id = $1
FOR UPDATE`

func (r *RaffleRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*raffle.Raffle, error) {
	row := r.db.QueryRow(ctx, getRaffleForUpdateSQL, id)

	var (
		raffleID, creatorID        uuid.UUID
		title, description         string
		unitPriceCents, feeCents   int64
		capacity                   int
		raffleDate                 time.Time
		status, feeTier            string
		categories, images         []string
		createdAt, updatedAt       time.Time
	)
	err := row.Scan(
		&raffleID, &creatorID, &title, &description, &unitPriceCents, &capacity,
		&raffleDate, &status, &feeCents, &feeTier, &categories, &images,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("raffle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock raffle", err)
	}

	return raffle.ReconstructRaffle(
		raffleID, creatorID,
		raffle.ReconstructTitle(title),
		raffle.ReconstructDescription(description),
		raffle.NewMoney(unitPriceCents),
		capacity,
		raffleDate,
		raffle.Status(status),
		raffle.NewMoney(feeCents),
		feeTier,
		categories, images,
		createdAt, updatedAt,
	), nil
}

const updateRaffleStatusSQL = `
UPDATE raffles
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2`

func (r *RaffleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to raffle.Status) (int64, error) {
	tag, err := r.db.Exec(ctx, updateRaffleStatusSQL, id, string(from), string(to))
	if err != nil {
		return 0, infra.WrapRepoErr("failed to update raffle status", err)
	}
	return tag.RowsAffected(), nil
}

const expireStaleRafflesSQL = `
UPDATE raffles
SET status = 'expired', updated_at = now()
WHERE status = 'pending_payment' AND created_at < $1`

func (r *RaffleRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, expireStaleRafflesSQL, cutoff)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire stale raffles", err)
	}
	return tag.RowsAffected(), nil
}

const dueForDrawSQL = `
SELECT id
FROM raffles
WHERE status = 'active' AND raffle_date <= $1
ORDER BY raffle_date
FOR UPDATE SKIP LOCKED`

func (r *RaffleRepository) DueForDraw(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, dueForDrawSQL, asOf)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list raffles due for draw", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan due raffle", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due raffles", err)
	}
	return ids, nil
}

const completeDrawSQL = `
UPDATE raffles
SET status = 'completed', winning_number = $2, winner_id = $3, updated_at = now()
WHERE id = $1 AND status = 'active'`

func (r *RaffleRepository) CompleteDraw(ctx context.Context, id uuid.UUID, winningNumber int, winnerID *uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, completeDrawSQL, id, winningNumber, winnerID)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to complete draw", err)
	}
	return tag.RowsAffected(), nil
}
