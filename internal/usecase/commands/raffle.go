package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/gateway"
	reqdto "rafflywin/internal/handler/dto/request"
	"rafflywin/internal/infra"
	"rafflywin/internal/pkg/clock"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/queries"
	"rafflywin/internal/usecase/shared"

	"github.com/google/uuid"
)

const createRaffleEndpoint = "POST /raffles"

// A creator may only have this many raffles in play (pending_payment or
// active) at once.
const maxActiveRafflesPerCreator = 3

type CreateRaffleResult struct {
	Raffle     *queries.RaffleView
	Intent     *queries.IntentView
	Checkout   *gateway.Checkout
	IsReplayed bool
}

type ConfirmRaffleResult struct {
	Raffle     *queries.RaffleView
	IsReplayed bool
}

type RaffleCommands interface {
	QuoteFee(unitPriceCents int64, capacity int) (raffle.FeeQuote, error)
	CreateRaffle(ctx context.Context, req reqdto.CreateRaffleRequest, creatorID, idempotencyKey uuid.UUID) (*CreateRaffleResult, error)
	ConfirmFeePayment(ctx context.Context, req reqdto.ConfirmPaymentRequest, raffleID, actorID uuid.UUID) (*ConfirmRaffleResult, error)
	CancelRaffle(ctx context.Context, raffleID, actorID uuid.UUID) error
}

type raffleCommandsImpl struct {
	uow           shared.UnitOfWork
	gateways      *gateway.Registry
	raffleQueries queries.RaffleQueries
	intentStore   IntentViewStore
	cfg           config.PaymentsConfig
	clock         clock.Clock
}

// IntentViewStore lets commands return the read model for a freshly written
// intent without depending on the full query service.
type IntentViewStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*queries.IntentView, error)
}

func NewRaffleCommands(
	uow shared.UnitOfWork,
	gateways *gateway.Registry,
	raffleQueries queries.RaffleQueries,
	intentStore IntentViewStore,
	cfg config.PaymentsConfig,
	clk clock.Clock,
) RaffleCommands {
	return &raffleCommandsImpl{
		uow:           uow,
		gateways:      gateways,
		raffleQueries: raffleQueries,
		intentStore:   intentStore,
		cfg:           cfg,
		clock:         clk,
	}
}

func (c *raffleCommandsImpl) QuoteFee(unitPriceCents int64, capacity int) (raffle.FeeQuote, error) {
	quote, err := raffle.QuoteFee(raffle.NewMoney(unitPriceCents), capacity)
	if err != nil {
		if errors.Is(err, raffle.ErrValueExceeded) {
			return raffle.FeeQuote{}, errs.Mark(err, errs.ErrValueExceeded)
		}
		return raffle.FeeQuote{}, errs.Mark(err, errs.ErrDomainValidation)
	}
	return quote, nil
}

func (c *raffleCommandsImpl) CreateRaffle(
	ctx context.Context,
	req reqdto.CreateRaffleRequest,
	creatorID, idempotencyKey uuid.UUID,
) (*CreateRaffleResult, error) {
	requestHash := calculateRequestHash(req)
	expiresAt := c.clock.Now().Add(c.cfg.PendingTTL)

	replayed, err := c.handleIdempotency(ctx, idempotencyKey, creatorID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	activeCount, err := c.uow.CommandReads().ActiveRaffleCount(ctx, creatorID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if activeCount >= maxActiveRafflesPerCreator {
		return nil, errs.ErrActiveRaffleLimit
	}

	rf, err := req.ToDomain(creatorID, c.clock.Now())
	if err != nil {
		if errors.Is(err, raffle.ErrValueExceeded) {
			return nil, errs.Mark(err, errs.ErrValueExceeded)
		}
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	gatewayKind, err := payment.NewGateway(req.Gateway)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	// A zero fee always settles through the free gateway, whatever the
	// client asked for.
	if rf.FreeToCreate() {
		gatewayKind = payment.GatewayFree
	} else if gatewayKind == payment.GatewayFree {
		return nil, errs.Mark(payment.ErrFreeGatewayAmount, errs.ErrDomainValidation)
	}

	intent, err := payment.NewIntent(
		payment.PurposeRaffleCreationFee,
		rf.ID(), creatorID,
		1,
		rf.CreationFee(),
		c.cfg.Currency,
		gatewayKind,
		idempotencyKey,
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	gw, err := c.gateways.For(gatewayKind)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	var checkout *gateway.Checkout
	if rf.FreeToCreate() {
		// Inline settlement: no external round trip, the raffle goes
		// active in the same transaction it is created in.
		checkout, err = gw.CreateCheckout(ctx, intent)
		if err != nil {
			return nil, mapGatewayError(err)
		}
		// Walk the full intent lifecycle even though nothing is owed:
		// checkout_ref is non-nullable, so the ref must land before insert.
		if err := intent.AwaitGateway(checkout.CheckoutRef); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		if err := intent.Confirm(checkout.CheckoutRef); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		if err := rf.Activate(); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
	} else {
		checkout, err = gw.CreateCheckout(ctx, intent)
		if err != nil {
			return nil, mapGatewayError(err)
		}
		if err := intent.AwaitGateway(checkout.CheckoutRef); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		if err := rf.BeginPayment(); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Raffles().Create(ctx, rf); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.PaymentIntents().Create(ctx, intent); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if rf.IsActive() {
			if err := createRaffleNotification(ctx, tx, rf.ID(), "raffle_activated", c.clock.Now()); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		if err := tx.Idempotency().UpdateStatusCompleted(ctx, idempotencyKey, creatorID, calculateIDHash(rf.ID()), rf.ID()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.buildCreateResult(ctx, rf.ID(), intent.ID(), checkout, false)
}

func (c *raffleCommandsImpl) ConfirmFeePayment(
	ctx context.Context,
	req reqdto.ConfirmPaymentRequest,
	raffleID, actorID uuid.UUID,
) (*ConfirmRaffleResult, error) {
	snap, err := c.uow.CommandReads().IntentByID(ctx, req.IntentID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrIntentNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if snap.RaffleID != raffleID || snap.Purpose != string(payment.PurposeRaffleCreationFee) {
		return nil, errs.ErrIntentNotFound
	}
	if snap.PayerID != actorID {
		return nil, errs.ErrPermissionDenied
	}

	// Confirming twice replays the original outcome without touching the
	// gateway again.
	if snap.Status == string(payment.StatusConfirmed) {
		view, err := c.raffleQueries.GetByID(ctx, raffleID)
		if err != nil {
			return nil, err
		}
		return &ConfirmRaffleResult{Raffle: view, IsReplayed: true}, nil
	}

	if err := c.capture(ctx, snap, req.ExternalRef); err != nil {
		return nil, err
	}

	replayed := false
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		won, err := tx.PaymentIntents().ConfirmIfPending(ctx, snap.ID, req.ExternalRef)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !won {
			// A concurrent confirmation got there first.
			replayed = true
			return nil
		}

		rows, err := tx.Raffles().UpdateStatus(ctx, raffleID, raffle.StatusPendingPayment, raffle.StatusActive)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if rows == 0 {
			// Raffle expired or was cancelled while the payment was in
			// flight: roll everything back, the intent stays unconfirmed.
			return errs.ErrRaffleNotActive
		}

		if err := createRaffleNotification(ctx, tx, raffleID, "raffle_activated", c.clock.Now()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := c.raffleQueries.GetByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	return &ConfirmRaffleResult{Raffle: view, IsReplayed: replayed}, nil
}

func (c *raffleCommandsImpl) CancelRaffle(ctx context.Context, raffleID, actorID uuid.UUID) error {
	snap, err := c.uow.CommandReads().RaffleByID(ctx, raffleID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.ErrRaffleNotFound
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if snap.CreatorID != actorID {
		return errs.ErrPermissionDenied
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		rows, err := tx.Raffles().UpdateStatus(ctx, raffleID, raffle.StatusPendingPayment, raffle.StatusCancelled)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if rows == 0 {
			return errs.ErrRaffleNotCancelable
		}
		if err := tx.PaymentIntents().CancelByRaffle(ctx, raffleID); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
}

// handleIdempotency claims the key and decides between a fresh attempt (nil
// result), a replay of a completed one, or a conflict.
func (c *raffleCommandsImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*CreateRaffleResult, error) {
	var claimed bool
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var inErr error
		claimed, inErr = tx.Idempotency().TryInsert(ctx, idempotencyKey, userID, createRaffleEndpoint, requestHash, expiresAt)
		return inErr
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if claimed {
		return nil, nil
	}

	existing, err := c.uow.CommandReads().IdempotencyByKey(ctx, idempotencyKey, userID)
	if err != nil {
		// The conflicting row can expire between the insert and this read.
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}

	switch existing.Status {
	case "completed":
		if existing.ResultID == nil {
			return nil, errs.New("completed request missing result raffle ID")
		}
		return c.buildCreateResult(ctx, *existing.ResultID, uuid.Nil, nil, true)

	case "processing":
		if existing.RequestHash != requestHash {
			return nil, errs.ErrDuplicateRequest
		}
		return nil, errs.ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (c *raffleCommandsImpl) buildCreateResult(
	ctx context.Context,
	raffleID, intentID uuid.UUID,
	checkout *gateway.Checkout,
	replayed bool,
) (*CreateRaffleResult, error) {
	view, err := c.raffleQueries.GetByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	result := &CreateRaffleResult{
		Raffle:     view,
		Checkout:   checkout,
		IsReplayed: replayed,
	}
	if intentID != uuid.Nil {
		intentView, err := c.intentStore.FindByID(ctx, intentID)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		result.Intent = intentView
	}
	return result, nil
}

func (c *raffleCommandsImpl) capture(ctx context.Context, snap *shared.IntentSnapshot, externalRef string) error {
	gw, err := c.gateways.For(payment.Gateway(snap.Gateway))
	if err != nil {
		return errs.Mark(err, errs.ErrDomainValidation)
	}

	checkoutRef := ""
	if snap.CheckoutRef != nil {
		checkoutRef = *snap.CheckoutRef
	}

	res, err := gw.Capture(ctx, checkoutRef, externalRef)
	if err != nil {
		return mapGatewayError(err)
	}
	if !res.Succeeded {
		return errs.ErrGatewayDeclined
	}
	return nil
}

func createRaffleNotification(ctx context.Context, tx shared.Tx, raffleID uuid.UUID, topic string, runAt time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"raffle_id": raffleID,
		"type":      topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, "email", topic, payload, runAt)
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrDeclined):
		return errs.Mark(err, errs.ErrGatewayDeclined)
	case errors.Is(err, gateway.ErrCancelled):
		return errs.Mark(err, errs.ErrGatewayCancelled)
	default:
		return errs.Mark(err, errs.ErrGatewayUnavailable)
	}
}

func calculateRequestHash(req any) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func calculateIDHash(id uuid.UUID) string {
	hash := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(hash[:])
}
