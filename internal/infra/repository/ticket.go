package repository

import (
	"context"

	"rafflywin/internal/domain/ticket"
	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"

	"github.com/google/uuid"
)

type TicketRepository struct {
	db db.DBTX
}

func NewTicketRepository(dbtx db.DBTX) *TicketRepository {
	return &TicketRepository{db: dbtx}
}

const insertTicketSQL = `
INSERT INTO tickets (id, raffle_id, owner_id, number, intent_id)
VALUES ($1, $2, $3, $4, $5)`

// InsertBatch persists the drawn tickets. The UNIQUE(raffle_id, number)
// constraint is the last line of defense against duplicate numbers.
func (r *TicketRepository) InsertBatch(ctx context.Context, tickets []*ticket.Ticket) error {
	for _, t := range tickets {
		_, err := r.db.Exec(ctx, insertTicketSQL,
			t.ID(), t.RaffleID(), t.OwnerID(), t.Number(), t.IntentID())
		if err != nil {
			return infra.WrapRepoErr("failed to insert ticket", err)
		}
	}
	return nil
}

const soldNumbersSQL = `
SELECT number FROM tickets WHERE raffle_id = $1 ORDER BY number`

func (r *TicketRepository) SoldNumbers(ctx context.Context, raffleID uuid.UUID) ([]int, error) {
	rows, err := r.db.Query(ctx, soldNumbersSQL, raffleID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load sold ticket numbers", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, infra.WrapRepoErr("failed to scan ticket number", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read sold ticket numbers", err)
	}
	return numbers, nil
}

const numbersByIntentSQL = `
SELECT number FROM tickets WHERE intent_id = $1 ORDER BY number`

func (r *TicketRepository) NumbersByIntent(ctx context.Context, intentID uuid.UUID) ([]int, error) {
	rows, err := r.db.Query(ctx, numbersByIntentSQL, intentID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load tickets by intent", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, infra.WrapRepoErr("failed to scan ticket number", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read tickets by intent", err)
	}
	return numbers, nil
}

const ownerOfNumberSQL = `
SELECT owner_id FROM tickets WHERE raffle_id = $1 AND number = $2`

func (r *TicketRepository) OwnerOfNumber(ctx context.Context, raffleID uuid.UUID, number int) (*uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.QueryRow(ctx, ownerOfNumberSQL, raffleID, number).Scan(&ownerID)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to resolve ticket owner", err)
	}
	return &ownerID, nil
}
