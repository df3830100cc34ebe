package request

import (
	"github.com/google/uuid"
)

type PurchaseTicketsRequest struct {
	RaffleID uuid.UUID `json:"raffle_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
	Gateway  string    `json:"gateway" binding:"required,oneof=paddle paypal free sandbox"`
}
