package readstore

import (
	"context"
	"time"

	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"
	"rafflywin/internal/usecase/shared"

	"github.com/google/uuid"
)

type IdempotencyReadStore struct {
	db db.DBTX
}

func NewIdempotencyReadStore(dbtx db.DBTX) *IdempotencyReadStore {
	return &IdempotencyReadStore{db: dbtx}
}

const getIdempotencyKeySQL = `
SELECT key, user_id, status, request_hash, result_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND user_id = $2`

func (r *IdempotencyReadStore) Get(ctx context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var record shared.IdempotencyRecord
	err := r.db.QueryRow(ctx, getIdempotencyKeySQL, key, userID).Scan(
		&record.Key, &record.UserID, &record.Status, &record.RequestHash,
		&record.ResultID, &record.ExpiresAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	// Expired keys behave as absent so the caller starts a fresh attempt.
	if time.Now().After(record.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency key expired", nil, infra.KindNotFound)
	}

	return &record, nil
}
