package shared

import (
	"time"

	"github.com/google/uuid"
)

// Minimal snapshots for command-side validation reads.

type RaffleSnapshot struct {
	ID               uuid.UUID
	CreatorID        uuid.UUID
	Status           string
	Capacity         int
	UnitPriceCents   int64
	CreationFeeCents int64
	SoldCount        int
	RaffleDate       time.Time
}

type IntentSnapshot struct {
	ID          uuid.UUID
	Purpose     string
	RaffleID    uuid.UUID
	PayerID     uuid.UUID
	Quantity    int
	AmountCents int64
	Currency    string
	Gateway     string
	Status      string
	CheckoutRef *string
	ExternalRef *string
}

type IdempotencyRecord struct {
	Key         uuid.UUID
	UserID      uuid.UUID
	Status      string
	RequestHash string
	ResultID    *uuid.UUID
	ExpiresAt   time.Time
}
