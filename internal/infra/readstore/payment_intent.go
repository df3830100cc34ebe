package readstore

import (
	"context"

	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"
	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
)

type PaymentIntentReadStore struct {
	db db.DBTX
}

func NewPaymentIntentReadStore(dbtx db.DBTX) *PaymentIntentReadStore {
	return &PaymentIntentReadStore{db: dbtx}
}

const findIntentByIDSQL = `
SELECT id, purpose, raffle_id, payer_id, quantity, amount_cents, currency,
       gateway, status, checkout_ref, external_ref, created_at
FROM payment_intents
WHERE id = $1`

func (r *PaymentIntentReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.IntentView, error) {
	var v queries.IntentView
	err := r.db.QueryRow(ctx, findIntentByIDSQL, id).Scan(
		&v.ID, &v.Purpose, &v.RaffleID, &v.PayerID, &v.Quantity, &v.AmountCents,
		&v.Currency, &v.Gateway, &v.Status, &v.CheckoutRef, &v.ExternalRef,
		&v.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("payment intent not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find payment intent by ID", err)
	}
	return &v, nil
}
