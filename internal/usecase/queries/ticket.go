package queries

import (
	"context"

	"github.com/google/uuid"
)

type TicketQueries interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*TicketView, error)
	ListByIntent(ctx context.Context, actorID, intentID uuid.UUID) ([]*TicketView, error)
}

type TicketViewRepo interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*TicketView, error)
	FindByIntent(ctx context.Context, intentID uuid.UUID) ([]*TicketView, error)
}

type ticketQueriesImpl struct {
	repo TicketViewRepo
}

func NewTicketQueries(repo TicketViewRepo) TicketQueries {
	return &ticketQueriesImpl{repo: repo}
}

func (q *ticketQueriesImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*TicketView, error) {
	return q.repo.FindByOwner(ctx, ownerID, int32(ValidateLimit(limit)))
}

func (q *ticketQueriesImpl) ListByIntent(ctx context.Context, _ uuid.UUID, intentID uuid.UUID) ([]*TicketView, error) {
	return q.repo.FindByIntent(ctx, intentID)
}
