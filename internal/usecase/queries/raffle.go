package queries

import (
	"context"
	"time"

	"rafflywin/internal/infra"
	"rafflywin/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrRaffleNotFound = errs.New("raffle not found")

type RaffleFilter struct {
	Status   string
	Category string
}

type RaffleQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*RaffleView, error)
	List(ctx context.Context, filter RaffleFilter, after *Cursor, limit int) ([]*RaffleListItem, *Cursor, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]*RaffleListItem, error)
}

type RaffleViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RaffleView, error)
	FindPageFirst(ctx context.Context, filter RaffleFilter, limit int32) ([]*RaffleListItem, error)
	FindPageKeyset(ctx context.Context, filter RaffleFilter, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*RaffleListItem, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID, limit int32) ([]*RaffleListItem, error)
}

type raffleQueriesImpl struct {
	repo RaffleViewRepo
}

func NewRaffleQueries(repo RaffleViewRepo) RaffleQueries {
	return &raffleQueriesImpl{repo: repo}
}

func (q *raffleQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*RaffleView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRaffleNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *raffleQueriesImpl) List(ctx context.Context, filter RaffleFilter, after *Cursor, limit int) ([]*RaffleListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var (
		rows []*RaffleListItem
		err  error
	)
	if after == nil || after.After == "" {
		rows, err = q.repo.FindPageFirst(ctx, filter, int32(limit))
	} else {
		lastCreatedAt, lastID, decodeErr := DecodeAfterCursor(after.After)
		if decodeErr != nil {
			return nil, nil, decodeErr
		}
		rows, err = q.repo.FindPageKeyset(ctx, filter, lastCreatedAt, lastID, int32(limit))
	}
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) == limit {
		last := rows[len(rows)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return rows, next, nil
}

func (q *raffleQueriesImpl) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]*RaffleListItem, error) {
	return q.repo.FindByCreator(ctx, creatorID, int32(ValidateLimit(limit)))
}
