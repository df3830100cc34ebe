package response

import (
	"time"

	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
)

type IntentResponse struct {
	ID          uuid.UUID `json:"id"`
	Purpose     string    `json:"purpose"`
	RaffleID    uuid.UUID `json:"raffleId"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Gateway     string    `json:"gateway"`
	Status      string    `json:"status"`
	CheckoutRef *string   `json:"checkoutRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromIntentView(v *queries.IntentView) *IntentResponse {
	if v == nil {
		return nil
	}
	return &IntentResponse{
		ID:          v.ID,
		Purpose:     v.Purpose,
		RaffleID:    v.RaffleID,
		Quantity:    v.Quantity,
		AmountCents: v.AmountCents,
		Currency:    v.Currency,
		Gateway:     v.Gateway,
		Status:      v.Status,
		CheckoutRef: v.CheckoutRef,
		CreatedAt:   v.CreatedAt,
	}
}

type PurchaseResponse struct {
	Intent   *IntentResponse   `json:"intent"`
	Checkout *CheckoutResponse `json:"checkout,omitempty"`
	Numbers  []int             `json:"numbers,omitempty"`
	Replayed bool              `json:"replayed"`
}

func FromPurchaseResult(r *commands.PurchaseResult) *PurchaseResponse {
	return &PurchaseResponse{
		Intent:   FromIntentView(r.Intent),
		Checkout: FromCheckout(r.Checkout),
		Numbers:  r.Numbers,
		Replayed: r.IsReplayed,
	}
}

type ConfirmPurchaseResponse struct {
	Intent   *IntentResponse `json:"intent"`
	Numbers  []int           `json:"numbers"`
	Replayed bool            `json:"replayed"`
}

func FromConfirmPurchaseResult(r *commands.ConfirmPurchaseResult) *ConfirmPurchaseResponse {
	return &ConfirmPurchaseResponse{
		Intent:   FromIntentView(r.Intent),
		Numbers:  r.Numbers,
		Replayed: r.IsReplayed,
	}
}

type TicketResponse struct {
	ID          uuid.UUID `json:"id"`
	RaffleID    uuid.UUID `json:"raffleId"`
	RaffleTitle string    `json:"raffleTitle"`
	Number      int       `json:"number"`
	RaffleDate  time.Time `json:"raffleDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromTicketView(v *queries.TicketView) *TicketResponse {
	return &TicketResponse{
		ID:          v.ID,
		RaffleID:    v.RaffleID,
		RaffleTitle: v.RaffleTitle,
		Number:      v.Number,
		RaffleDate:  v.RaffleDate,
		CreatedAt:   v.CreatedAt,
	}
}
