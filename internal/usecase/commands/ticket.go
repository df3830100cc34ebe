package commands

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/domain/ticket"
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

const purchaseTicketsEndpoint = "POST /tickets/purchase"

type PurchaseResult struct {
	Intent     *queries.IntentView
	Checkout   *gateway.Checkout
	Numbers    []int
	IsReplayed bool
}

type ConfirmPurchaseResult struct {
	Intent     *queries.IntentView
	Numbers    []int
	IsReplayed bool
}

type TicketCommands interface {
	Purchase(ctx context.Context, req reqdto.PurchaseTicketsRequest, buyerID, idempotencyKey uuid.UUID) (*PurchaseResult, error)
	ConfirmPayment(ctx context.Context, req reqdto.ConfirmPaymentRequest, actorID uuid.UUID) (*ConfirmPurchaseResult, error)
}

type ticketCommandsImpl struct {
	uow         shared.UnitOfWork
	gateways    *gateway.Registry
	intentStore IntentViewStore
	cfg         config.PaymentsConfig
	clock       clock.Clock
}

func NewTicketCommands(
	uow shared.UnitOfWork,
	gateways *gateway.Registry,
	intentStore IntentViewStore,
	cfg config.PaymentsConfig,
	clk clock.Clock,
) TicketCommands {
	return &ticketCommandsImpl{
		uow:         uow,
		gateways:    gateways,
		intentStore: intentStore,
		cfg:         cfg,
		clock:       clk,
	}
}

func (c *ticketCommandsImpl) Purchase(
	ctx context.Context,
	req reqdto.PurchaseTicketsRequest,
	buyerID, idempotencyKey uuid.UUID,
) (*PurchaseResult, error) {
	requestHash := calculateRequestHash(req)
	expiresAt := c.clock.Now().Add(c.cfg.PendingTTL)

	replayed, err := c.handleIdempotency(ctx, idempotencyKey, buyerID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	snap, err := c.validateRaffle(ctx, req.RaffleID, req.Quantity)
	if err != nil {
		return nil, err
	}

	amount := raffle.NewMoney(snap.UnitPriceCents).Mul(req.Quantity)

	gatewayKind, err := payment.NewGateway(req.Gateway)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	if amount.IsZero() {
		gatewayKind = payment.GatewayFree
	} else if gatewayKind == payment.GatewayFree {
		return nil, errs.Mark(payment.ErrFreeGatewayAmount, errs.ErrDomainValidation)
	}

	intent, err := payment.NewIntent(
		payment.PurposeTicketPurchase,
		req.RaffleID, buyerID,
		req.Quantity,
		amount,
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

	checkout, err := gw.CreateCheckout(ctx, intent)
	if err != nil {
		return nil, mapGatewayError(err)
	}

	if amount.IsZero() {
		return c.settleFreePurchase(ctx, intent, checkout, idempotencyKey, buyerID)
	}

	if err := intent.AwaitGateway(checkout.CheckoutRef); err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.PaymentIntents().Create(ctx, intent); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return tx.Idempotency().UpdateStatusCompleted(ctx, idempotencyKey, buyerID, calculateIDHash(intent.ID()), intent.ID())
	})
	if err != nil {
		return nil, err
	}

	intentView, err := c.intentStore.FindByID(ctx, intent.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &PurchaseResult{Intent: intentView, Checkout: checkout}, nil
}

// settleFreePurchase allocates tickets immediately: there is nothing for the
// buyer to pay, so intent confirmation, the draw, and ticket issuance happen
// in one transaction.
func (c *ticketCommandsImpl) settleFreePurchase(
	ctx context.Context,
	intent *payment.Intent,
	checkout *gateway.Checkout,
	idempotencyKey, buyerID uuid.UUID,
) (*PurchaseResult, error) {
	// checkout_ref is non-nullable, so the ref must land on the intent
	// before it is inserted even though no gateway round trip happens.
	if err := intent.AwaitGateway(checkout.CheckoutRef); err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	if err := intent.Confirm(checkout.CheckoutRef); err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	var numbers []int
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// Intent first: issued tickets reference it.
		if err := tx.PaymentIntents().Create(ctx, intent); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		drawn, err := c.allocateTickets(ctx, tx, intent)
		if err != nil {
			return err
		}
		numbers = drawn

		if err := createTicketsNotification(ctx, tx, intent, numbers, c.clock.Now()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return tx.Idempotency().UpdateStatusCompleted(ctx, idempotencyKey, buyerID, calculateIDHash(intent.ID()), intent.ID())
	})
	if err != nil {
		return nil, err
	}

	intentView, err := c.intentStore.FindByID(ctx, intent.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &PurchaseResult{Intent: intentView, Numbers: numbers}, nil
}

func (c *ticketCommandsImpl) ConfirmPayment(
	ctx context.Context,
	req reqdto.ConfirmPaymentRequest,
	actorID uuid.UUID,
) (*ConfirmPurchaseResult, error) {
	snap, err := c.uow.CommandReads().IntentByID(ctx, req.IntentID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrIntentNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if snap.Purpose != string(payment.PurposeTicketPurchase) {
		return nil, errs.ErrIntentNotFound
	}
	if snap.PayerID != actorID {
		return nil, errs.ErrPermissionDenied
	}

	if snap.Status == string(payment.StatusConfirmed) {
		return c.replayConfirmed(ctx, snap.ID)
	}

	gw, err := c.gateways.For(payment.Gateway(snap.Gateway))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	checkoutRef := ""
	if snap.CheckoutRef != nil {
		checkoutRef = *snap.CheckoutRef
	}
	res, err := gw.Capture(ctx, checkoutRef, req.ExternalRef)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	if !res.Succeeded {
		return nil, errs.ErrGatewayDeclined
	}

	var (
		numbers  []int
		replayed bool
	)
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		won, err := tx.PaymentIntents().ConfirmIfPending(ctx, snap.ID, res.ExternalRef)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !won {
			replayed = true
			drawn, err := tx.Tickets().NumbersByIntent(ctx, snap.ID)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			numbers = drawn
			return nil
		}

		intent, err := tx.PaymentIntents().GetForUpdate(ctx, snap.ID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		drawn, err := c.allocateTickets(ctx, tx, intent)
		if err != nil {
			// Full rollback: the confirmation is undone together with the
			// draw, so a later attempt can still settle or refund.
			return err
		}
		numbers = drawn

		return createTicketsNotification(ctx, tx, intent, numbers, c.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	intentView, err := c.intentStore.FindByID(ctx, snap.ID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &ConfirmPurchaseResult{Intent: intentView, Numbers: numbers, IsReplayed: replayed}, nil
}

// allocateTickets draws ticket numbers under the raffle row lock and inserts
// them in the same transaction. The lock serializes concurrent draws; the
// unique constraint on (raffle_id, number) backstops it.
func (c *ticketCommandsImpl) allocateTickets(ctx context.Context, tx shared.Tx, intent *payment.Intent) ([]int, error) {
	rf, err := tx.Raffles().GetForUpdate(ctx, intent.RaffleID())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrRaffleNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !rf.IsActive() {
		return nil, errs.ErrRaffleNotActive
	}

	sold, err := tx.Tickets().SoldNumbers(ctx, rf.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	pool, err := ticket.NewPool(rf.Capacity(), sold)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	if pool.Available() == 0 {
		return nil, errs.ErrSoldOut
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	numbers, err := pool.Draw(intent.Quantity(), rng)
	if err != nil {
		if errors.Is(err, ticket.ErrInsufficientTickets) {
			return nil, errs.Mark(err, errs.ErrInsufficientTickets)
		}
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	intentID := intent.ID()
	tickets := make([]*ticket.Ticket, len(numbers))
	for i, n := range numbers {
		tickets[i] = ticket.NewTicket(rf.ID(), intent.PayerID(), n, &intentID)
	}
	if err := tx.Tickets().InsertBatch(ctx, tickets); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return numbers, nil
}

func (c *ticketCommandsImpl) replayConfirmed(ctx context.Context, intentID uuid.UUID) (*ConfirmPurchaseResult, error) {
	var numbers []int
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		drawn, err := tx.Tickets().NumbersByIntent(ctx, intentID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		numbers = drawn
		return nil
	})
	if err != nil {
		return nil, err
	}

	intentView, err := c.intentStore.FindByID(ctx, intentID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &ConfirmPurchaseResult{Intent: intentView, Numbers: numbers, IsReplayed: true}, nil
}

func (c *ticketCommandsImpl) validateRaffle(ctx context.Context, raffleID uuid.UUID, quantity int) (*shared.RaffleSnapshot, error) {
	snap, err := c.uow.CommandReads().RaffleByID(ctx, raffleID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrRaffleNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if snap.Status != string(raffle.StatusActive) {
		return nil, errs.ErrRaffleNotActive
	}

	// Advisory precheck; the draw re-validates under the row lock.
	remaining := snap.Capacity - snap.SoldCount
	if remaining == 0 {
		return nil, errs.ErrSoldOut
	}
	if quantity > remaining {
		return nil, errs.ErrInsufficientTickets
	}
	return snap, nil
}

func (c *ticketCommandsImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*PurchaseResult, error) {
	var claimed bool
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var inErr error
		claimed, inErr = tx.Idempotency().TryInsert(ctx, idempotencyKey, userID, purchaseTicketsEndpoint, requestHash, expiresAt)
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
			return nil, errs.New("completed request missing result intent ID")
		}
		return c.replayPurchase(ctx, *existing.ResultID)

	case "processing":
		if existing.RequestHash != requestHash {
			return nil, errs.ErrDuplicateRequest
		}
		return nil, errs.ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (c *ticketCommandsImpl) replayPurchase(ctx context.Context, intentID uuid.UUID) (*PurchaseResult, error) {
	intentView, err := c.intentStore.FindByID(ctx, intentID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var numbers []int
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		drawn, err := tx.Tickets().NumbersByIntent(ctx, intentID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		numbers = drawn
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PurchaseResult{Intent: intentView, Numbers: numbers, IsReplayed: true}, nil
}

func createTicketsNotification(ctx context.Context, tx shared.Tx, intent *payment.Intent, numbers []int, runAt time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"raffle_id": intent.RaffleID(),
		"intent_id": intent.ID(),
		"numbers":   numbers,
		"type":      "tickets_issued",
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, "email", "tickets_issued", payload, runAt)
}
