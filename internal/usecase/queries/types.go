package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type RaffleView struct {
	ID               uuid.UUID  `json:"id"`
	CreatorID        uuid.UUID  `json:"creator_id"`
	CreatorName      string     `json:"creator_name"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	UnitPriceCents   int64      `json:"unit_price_cents"`
	Capacity         int        `json:"capacity"`
	SoldCount        int        `json:"sold_count"`
	RaffleDate       time.Time  `json:"raffle_date"`
	Status           string     `json:"status"`
	CreationFeeCents int64      `json:"creation_fee_cents"`
	FeeTier          string     `json:"fee_tier"`
	Categories       []string   `json:"categories"`
	Images           []string   `json:"images"`
	WinningNumber    *int       `json:"winning_number,omitempty"`
	WinnerID         *uuid.UUID `json:"winner_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type RaffleListItem struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Capacity       int       `json:"capacity"`
	SoldCount      int       `json:"sold_count"`
	RaffleDate     time.Time `json:"raffle_date"`
	Status         string    `json:"status"`
	Categories     []string  `json:"categories"`
	CreatedAt      time.Time `json:"created_at"`
}

type TicketView struct {
	ID          uuid.UUID `json:"id"`
	RaffleID    uuid.UUID `json:"raffle_id"`
	RaffleTitle string    `json:"raffle_title"`
	Number      int       `json:"number"`
	RaffleDate  time.Time `json:"raffle_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type IntentView struct {
	ID          uuid.UUID `json:"id"`
	Purpose     string    `json:"purpose"`
	RaffleID    uuid.UUID `json:"raffle_id"`
	PayerID     uuid.UUID `json:"payer_id"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Gateway     string    `json:"gateway"`
	Status      string    `json:"status"`
	CheckoutRef *string   `json:"checkout_ref,omitempty"`
	ExternalRef *string   `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthorizedUserView struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
}
