package raffle

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinCapacity    = 10
	MaxImages      = 5
	MaxTitleLength = 200
	// Raffle date must be at least this far in the future at creation time.
	MinLeadTime = 24 * time.Hour
)

var (
	ErrEmptyTitle          = errors.New("title cannot be empty")
	ErrTitleTooLong        = errors.New("title too long")
	ErrEmptyDescription    = errors.New("description cannot be empty")
	ErrNegativeUnitPrice   = errors.New("unit price cannot be negative")
	ErrCapacityTooSmall    = errors.New("ticket capacity must be at least 10")
	ErrRaffleDateTooSoon   = errors.New("raffle date must be at least one day ahead")
	ErrTooManyImages       = errors.New("too many images")
	ErrInvalidStatus       = errors.New("invalid raffle status")
	ErrInvalidTransition   = errors.New("invalid raffle status transition")
	ErrRaffleNotCancelable = errors.New("raffle can only be cancelled before payment")
)

type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingPayment, StatusActive, StatusCompleted, StatusCancelled, StatusExpired:
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

// Raffle is the aggregate root for a published prize draw. Once active, the
// capacity and unit price are frozen and only the sold set grows.
type Raffle struct {
	id          uuid.UUID
	creatorID   uuid.UUID
	title       Title
	description Description
	unitPrice   Money
	capacity    int
	raffleDate  time.Time
	status      Status
	creationFee Money
	feeTier     string
	categories  []string
	images      []string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewRaffle validates the creation form and returns a raffle in draft.
// The creation fee is recomputed here from the fee schedule; client-submitted
// fees are never trusted.
func NewRaffle(
	creatorID uuid.UUID,
	title, description string,
	unitPrice Money,
	capacity int,
	raffleDate time.Time,
	categories, images []string,
	now time.Time,
) (*Raffle, error) {
	t, err := NewTitle(strings.TrimSpace(title))
	if err != nil {
		return nil, err
	}
	d, err := NewDescription(strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	if unitPrice.Cents() < 0 {
		return nil, ErrNegativeUnitPrice
	}
	if capacity < MinCapacity {
		return nil, ErrCapacityTooSmall
	}
	if raffleDate.Before(now.Add(MinLeadTime)) {
		return nil, ErrRaffleDateTooSoon
	}
	if len(images) > MaxImages {
		return nil, ErrTooManyImages
	}

	quote, err := QuoteFee(unitPrice, capacity)
	if err != nil {
		return nil, err
	}

	return &Raffle{
		id:          uuid.New(),
		creatorID:   creatorID,
		title:       t,
		description: d,
		unitPrice:   unitPrice,
		capacity:    capacity,
		raffleDate:  raffleDate,
		status:      StatusDraft,
		creationFee: quote.Fee,
		feeTier:     quote.Tier,
		categories:  categories,
		images:      images,
	}, nil
}

func ReconstructRaffle(
	id, creatorID uuid.UUID,
	title Title,
	description Description,
	unitPrice Money,
	capacity int,
	raffleDate time.Time,
	status Status,
	creationFee Money,
	feeTier string,
	categories, images []string,
	createdAt, updatedAt time.Time,
) *Raffle {
	return &Raffle{
		id:          id,
		creatorID:   creatorID,
		title:       title,
		description: description,
		unitPrice:   unitPrice,
		capacity:    capacity,
		raffleDate:  raffleDate,
		status:      status,
		creationFee: creationFee,
		feeTier:     feeTier,
		categories:  categories,
		images:      images,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// BeginPayment moves a draft into pending_payment once a fee intent exists.
func (r *Raffle) BeginPayment() error {
	if r.status != StatusDraft {
		return ErrInvalidTransition
	}
	r.status = StatusPendingPayment
	return nil
}

// Activate publishes the raffle. Reachable from pending_payment on a
// confirmed fee payment, or directly from draft when the fee is zero.
func (r *Raffle) Activate() error {
	switch r.status {
	case StatusPendingPayment, StatusDraft:
		r.status = StatusActive
		return nil
	case StatusActive:
		// Already published: confirming twice is a no-op.
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Cancel abandons an unpaid raffle. The record stays visible to the creator.
func (r *Raffle) Cancel() error {
	if r.status != StatusPendingPayment {
		return ErrRaffleNotCancelable
	}
	r.status = StatusCancelled
	return nil
}

func (r *Raffle) Complete() error {
	if r.status != StatusActive {
		return ErrInvalidTransition
	}
	r.status = StatusCompleted
	return nil
}

func (r *Raffle) IsActive() bool {
	return r.status == StatusActive
}

// FreeToCreate reports whether publication requires no fee payment.
func (r *Raffle) FreeToCreate() bool {
	return r.creationFee.IsZero()
}

func (r *Raffle) ID() uuid.UUID            { return r.id }
func (r *Raffle) CreatorID() uuid.UUID     { return r.creatorID }
func (r *Raffle) Title() Title             { return r.title }
func (r *Raffle) Description() Description { return r.description }
func (r *Raffle) UnitPrice() Money         { return r.unitPrice }
func (r *Raffle) Capacity() int            { return r.capacity }
func (r *Raffle) RaffleDate() time.Time    { return r.raffleDate }
func (r *Raffle) Status() Status           { return r.status }
func (r *Raffle) CreationFee() Money       { return r.creationFee }
func (r *Raffle) FeeTier() string          { return r.feeTier }
func (r *Raffle) Categories() []string     { return r.categories }
func (r *Raffle) Images() []string         { return r.images }
func (r *Raffle) CreatedAt() time.Time     { return r.createdAt }
func (r *Raffle) UpdatedAt() time.Time     { return r.updatedAt }
