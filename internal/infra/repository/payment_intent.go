package repository

import (
	"context"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"

	"github.com/google/uuid"
)

type PaymentIntentRepository struct {
	db db.DBTX
}

func NewPaymentIntentRepository(dbtx db.DBTX) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: dbtx}
}

const createIntentSQL = `
INSERT INTO payment_intents (
    id, purpose, raffle_id, payer_id, quantity, amount_cents, currency,
    gateway, status, checkout_ref, external_ref, idempotency_key
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (r *PaymentIntentRepository) Create(ctx context.Context, intent *payment.Intent) error {
	_, err := r.db.Exec(ctx, createIntentSQL,
		intent.ID(),
		string(intent.Purpose()),
		intent.RaffleID(),
		intent.PayerID(),
		intent.Quantity(),
		intent.Amount().Cents(),
		intent.Currency(),
		string(intent.Gateway()),
		string(intent.Status()),
		intent.CheckoutRef(),
		intent.ExternalRef(),
		intent.IdempotencyKey(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create payment intent", err)
	}
	return nil
}

const getIntentForUpdateSQL = `
SELECT id, purpose, raffle_id, payer_id, quantity, amount_cents, currency,
       gateway, status, checkout_ref, external_ref, idempotency_key,
       created_at, updated_at
FROM payment_intents
WHERE id = $1
FOR UPDATE`

func (r *PaymentIntentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*payment.Intent, error) {
	row := r.db.QueryRow(ctx, getIntentForUpdateSQL, id)

	var (
		intentID, raffleID, payerID, idemKey uuid.UUID
		purpose, currency, gateway, status   string
		quantity                             int
		amountCents                          int64
		checkoutRef, externalRef             *string
		createdAt, updatedAt                 time.Time
	)
	err := row.Scan(
		&intentID, &purpose, &raffleID, &payerID, &quantity, &amountCents, &currency,
		&gateway, &status, &checkoutRef, &externalRef, &idemKey,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("payment intent not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock payment intent", err)
	}

	return payment.ReconstructIntent(
		intentID,
		payment.Purpose(purpose),
		raffleID, payerID,
		quantity,
		raffle.NewMoney(amountCents),
		currency,
		payment.Gateway(gateway),
		payment.Status(status),
		checkoutRef, externalRef,
		idemKey,
		createdAt, updatedAt,
	), nil
}

const setAwaitingGatewaySQL = `
UPDATE payment_intents
SET status = 'awaiting_gateway', checkout_ref = $2, updated_at = now()
WHERE id = $1 AND status = 'created'`

func (r *PaymentIntentRepository) SetAwaitingGateway(ctx context.Context, id uuid.UUID, checkoutRef string) error {
	_, err := r.db.Exec(ctx, setAwaitingGatewaySQL, id, checkoutRef)
	if err != nil {
		return infra.WrapRepoErr("failed to record checkout session", err)
	}
	return nil
}

const confirmIfPendingSQL = `
UPDATE payment_intents
SET status = 'confirmed', external_ref = $2, updated_at = now()
WHERE id = $1 AND status IN ('created', 'awaiting_gateway')`

// ConfirmIfPending wins exactly once per intent: concurrent confirmations
// race on the status predicate and every loser sees zero rows affected.
func (r *PaymentIntentRepository) ConfirmIfPending(ctx context.Context, id uuid.UUID, externalRef string) (bool, error) {
	tag, err := r.db.Exec(ctx, confirmIfPendingSQL, id, externalRef)
	if err != nil {
		return false, infra.WrapRepoErr("failed to confirm payment intent", err)
	}
	return tag.RowsAffected() == 1, nil
}

const updateIntentStatusSQL = `
UPDATE payment_intents
SET status = $2, updated_at = now()
WHERE id = $1`

func (r *PaymentIntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status) error {
	_, err := r.db.Exec(ctx, updateIntentStatusSQL, id, string(status))
	if err != nil {
		return infra.WrapRepoErr("failed to update payment intent status", err)
	}
	return nil
}

const cancelIntentsByRaffleSQL = `
UPDATE payment_intents
SET status = 'cancelled', updated_at = now()
WHERE raffle_id = $1 AND status IN ('created', 'awaiting_gateway')`

func (r *PaymentIntentRepository) CancelByRaffle(ctx context.Context, raffleID uuid.UUID) error {
	_, err := r.db.Exec(ctx, cancelIntentsByRaffleSQL, raffleID)
	if err != nil {
		return infra.WrapRepoErr("failed to cancel intents by raffle", err)
	}
	return nil
}

const cancelStaleIntentsSQL = `
UPDATE payment_intents
SET status = 'cancelled', updated_at = now()
WHERE status IN ('created', 'awaiting_gateway') AND created_at < $1
RETURNING raffle_id`

func (r *PaymentIntentRepository) CancelStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, cancelStaleIntentsSQL, cutoff)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to cancel stale payment intents", err)
	}
	defer rows.Close()

	var raffleIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan stale intent", err)
		}
		raffleIDs = append(raffleIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read stale intents", err)
	}
	return raffleIDs, nil
}
