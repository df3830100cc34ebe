package payment

import (
	"errors"
	"time"

	"rafflywin/internal/domain/raffle"

	"github.com/google/uuid"
)

var (
	ErrInvalidPurpose    = errors.New("invalid payment purpose")
	ErrInvalidGateway    = errors.New("invalid payment gateway")
	ErrInvalidStatus     = errors.New("invalid intent status")
	ErrInvalidTransition = errors.New("invalid intent status transition")
	ErrNegativeAmount    = errors.New("intent amount cannot be negative")
	ErrEmptyExternalRef  = errors.New("external reference cannot be empty")
	ErrAlreadyConfirmed  = errors.New("intent already confirmed")
	ErrFreeGatewayAmount = errors.New("free gateway requires a zero amount")
)

type Purpose string

const (
	PurposeRaffleCreationFee Purpose = "raffle_creation_fee"
	PurposeTicketPurchase    Purpose = "ticket_purchase"
)

func (p Purpose) IsValid() bool {
	return p == PurposeRaffleCreationFee || p == PurposeTicketPurchase
}

func NewPurpose(s string) (Purpose, error) {
	p := Purpose(s)
	if !p.IsValid() {
		return "", ErrInvalidPurpose
	}
	return p, nil
}

// Gateway identifies which adapter settles an intent. Sandbox is only
// selectable when the service runs in the sandbox payments environment.
type Gateway string

const (
	GatewayPaddle  Gateway = "paddle"
	GatewayPayPal  Gateway = "paypal"
	GatewayFree    Gateway = "free"
	GatewaySandbox Gateway = "sandbox"
)

func (g Gateway) IsValid() bool {
	switch g {
	case GatewayPaddle, GatewayPayPal, GatewayFree, GatewaySandbox:
		return true
	default:
		return false
	}
}

func NewGateway(s string) (Gateway, error) {
	g := Gateway(s)
	if !g.IsValid() {
		return "", ErrInvalidGateway
	}
	return g, nil
}

type Status string

const (
	StatusCreated         Status = "created"
	StatusAwaitingGateway Status = "awaiting_gateway"
	StatusConfirmed       Status = "confirmed"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusAwaitingGateway, StatusConfirmed, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func NewStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Intent records one attempted charge, independent of the gateway used.
// Exactly one confirmed intent may ever trigger its side effect; the
// check-and-set lives in the repository, the entity enforces legality.
type Intent struct {
	id             uuid.UUID
	purpose        Purpose
	raffleID       uuid.UUID
	payerID        uuid.UUID
	quantity       int
	amount         raffle.Money
	currency       string
	gateway        Gateway
	status         Status
	checkoutRef    *string
	externalRef    *string
	idempotencyKey uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

func NewIntent(
	purpose Purpose,
	raffleID, payerID uuid.UUID,
	quantity int,
	amount raffle.Money,
	currency string,
	gateway Gateway,
	idempotencyKey uuid.UUID,
) (*Intent, error) {
	if !purpose.IsValid() {
		return nil, ErrInvalidPurpose
	}
	if !gateway.IsValid() {
		return nil, ErrInvalidGateway
	}
	if amount.Cents() < 0 {
		return nil, ErrNegativeAmount
	}
	if gateway == GatewayFree && !amount.IsZero() {
		return nil, ErrFreeGatewayAmount
	}
	return &Intent{
		id:             uuid.New(),
		purpose:        purpose,
		raffleID:       raffleID,
		payerID:        payerID,
		quantity:       quantity,
		amount:         amount,
		currency:       currency,
		gateway:        gateway,
		status:         StatusCreated,
		idempotencyKey: idempotencyKey,
	}, nil
}

func ReconstructIntent(
	id uuid.UUID,
	purpose Purpose,
	raffleID, payerID uuid.UUID,
	quantity int,
	amount raffle.Money,
	currency string,
	gateway Gateway,
	status Status,
	checkoutRef, externalRef *string,
	idempotencyKey uuid.UUID,
	createdAt, updatedAt time.Time,
) *Intent {
	return &Intent{
		id:             id,
		purpose:        purpose,
		raffleID:       raffleID,
		payerID:        payerID,
		quantity:       quantity,
		amount:         amount,
		currency:       currency,
		gateway:        gateway,
		status:         status,
		checkoutRef:    checkoutRef,
		externalRef:    externalRef,
		idempotencyKey: idempotencyKey,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// AwaitGateway records the checkout session handed to the client.
func (i *Intent) AwaitGateway(checkoutRef string) error {
	if i.status != StatusCreated {
		return ErrInvalidTransition
	}
	i.status = StatusAwaitingGateway
	i.checkoutRef = &checkoutRef
	return nil
}

// Confirm marks the intent settled with the gateway's transaction reference.
// Confirming an already confirmed intent returns ErrAlreadyConfirmed so the
// caller can replay the prior result instead of re-running side effects.
func (i *Intent) Confirm(externalRef string) error {
	if externalRef == "" {
		return ErrEmptyExternalRef
	}
	switch i.status {
	case StatusConfirmed:
		return ErrAlreadyConfirmed
	case StatusCreated, StatusAwaitingGateway:
		i.status = StatusConfirmed
		i.externalRef = &externalRef
		return nil
	default:
		return ErrInvalidTransition
	}
}

func (i *Intent) Fail() error {
	if i.status == StatusConfirmed {
		return ErrInvalidTransition
	}
	i.status = StatusFailed
	return nil
}

func (i *Intent) CancelIntent() error {
	if i.status == StatusConfirmed {
		return ErrInvalidTransition
	}
	i.status = StatusCancelled
	return nil
}

func (i *Intent) IsConfirmed() bool {
	return i.status == StatusConfirmed
}

func (i *Intent) ID() uuid.UUID             { return i.id }
func (i *Intent) Purpose() Purpose          { return i.purpose }
func (i *Intent) RaffleID() uuid.UUID       { return i.raffleID }
func (i *Intent) PayerID() uuid.UUID        { return i.payerID }
func (i *Intent) Quantity() int             { return i.quantity }
func (i *Intent) Amount() raffle.Money      { return i.amount }
func (i *Intent) Currency() string          { return i.currency }
func (i *Intent) Gateway() Gateway          { return i.gateway }
func (i *Intent) Status() Status            { return i.status }
func (i *Intent) CheckoutRef() *string      { return i.checkoutRef }
func (i *Intent) ExternalRef() *string      { return i.externalRef }
func (i *Intent) IdempotencyKey() uuid.UUID { return i.idempotencyKey }
func (i *Intent) CreatedAt() time.Time      { return i.createdAt }
func (i *Intent) UpdatedAt() time.Time      { return i.updatedAt }
