package request

import (
	"time"

	"rafflywin/internal/domain/raffle"

	"github.com/google/uuid"
)

type QuoteFeeRequest struct {
	UnitPriceCents int64 `json:"unit_price_cents" binding:"min=0"`
	Capacity       int   `json:"capacity" binding:"required,min=1"`
}

type CreateRaffleRequest struct {
	Title          string    `json:"title" binding:"required,max=200"`
	Description    string    `json:"description" binding:"required"`
	UnitPriceCents int64     `json:"unit_price_cents" binding:"min=0"`
	Capacity       int       `json:"capacity" binding:"required,min=10"`
	RaffleDate     time.Time `json:"raffle_date" binding:"required"`
	Categories     []string  `json:"categories,omitempty"`
	Images         []string  `json:"images,omitempty" binding:"max=5"`
	Gateway        string    `json:"gateway" binding:"required,oneof=paddle paypal free sandbox"`
}

func (r CreateRaffleRequest) ToDomain(creatorID uuid.UUID, now time.Time) (*raffle.Raffle, error) {
	return raffle.NewRaffle(
		creatorID,
		r.Title,
		r.Description,
		raffle.NewMoney(r.UnitPriceCents),
		r.Capacity,
		r.RaffleDate,
		r.Categories,
		r.Images,
		now,
	)
}

type ConfirmPaymentRequest struct {
	IntentID    uuid.UUID `json:"intent_id" binding:"required"`
	ExternalRef string    `json:"external_ref" binding:"required"`
}
