package response

import (
	"time"

	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/gateway"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/google/uuid"
)

type FeeQuoteResponse struct {
	FeeCents        int64  `json:"feeCents"`
	Tier            string `json:"tier,omitempty"`
	TotalValueCents int64  `json:"totalValueCents"`
}

func FromFeeQuote(q raffle.FeeQuote) *FeeQuoteResponse {
	return &FeeQuoteResponse{
		FeeCents:        q.Fee.Cents(),
		Tier:            q.Tier,
		TotalValueCents: q.TotalValue.Cents(),
	}
}

type RaffleResponse struct {
	ID               uuid.UUID  `json:"id"`
	CreatorID        uuid.UUID  `json:"creatorId"`
	CreatorName      string     `json:"creatorName"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	UnitPriceCents   int64      `json:"unitPriceCents"`
	Capacity         int        `json:"capacity"`
	SoldCount        int        `json:"soldCount"`
	RaffleDate       time.Time  `json:"raffleDate"`
	Status           string     `json:"status"`
	CreationFeeCents int64      `json:"creationFeeCents"`
	FeeTier          string     `json:"feeTier,omitempty"`
	Categories       []string   `json:"categories,omitempty"`
	Images           []string   `json:"images,omitempty"`
	WinningNumber    *int       `json:"winningNumber,omitempty"`
	WinnerID         *uuid.UUID `json:"winnerId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func FromRaffleView(v *queries.RaffleView) *RaffleResponse {
	return &RaffleResponse{
		ID:               v.ID,
		CreatorID:        v.CreatorID,
		CreatorName:      v.CreatorName,
		Title:            v.Title,
		Description:      v.Description,
		UnitPriceCents:   v.UnitPriceCents,
		Capacity:         v.Capacity,
		SoldCount:        v.SoldCount,
		RaffleDate:       v.RaffleDate,
		Status:           v.Status,
		CreationFeeCents: v.CreationFeeCents,
		FeeTier:          v.FeeTier,
		Categories:       v.Categories,
		Images:           v.Images,
		WinningNumber:    v.WinningNumber,
		WinnerID:         v.WinnerID,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

type RaffleListResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	Capacity       int       `json:"capacity"`
	SoldCount      int       `json:"soldCount"`
	RaffleDate     time.Time `json:"raffleDate"`
	Status         string    `json:"status"`
	Categories     []string  `json:"categories,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func FromRaffleListItem(item *queries.RaffleListItem) *RaffleListResponse {
	return &RaffleListResponse{
		ID:             item.ID,
		Title:          item.Title,
		UnitPriceCents: item.UnitPriceCents,
		Capacity:       item.Capacity,
		SoldCount:      item.SoldCount,
		RaffleDate:     item.RaffleDate,
		Status:         item.Status,
		Categories:     item.Categories,
		CreatedAt:      item.CreatedAt,
	}
}

type RaffleListPageResponse struct {
	Items      []*RaffleListResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

type CheckoutResponse struct {
	CheckoutRef  string         `json:"checkoutRef"`
	ClientConfig map[string]any `json:"clientConfig,omitempty"`
}

func FromCheckout(c *gateway.Checkout) *CheckoutResponse {
	if c == nil {
		return nil
	}
	return &CheckoutResponse{
		CheckoutRef:  c.CheckoutRef,
		ClientConfig: c.ClientConfig,
	}
}

type CreateRaffleResponse struct {
	Raffle   *RaffleResponse   `json:"raffle"`
	Intent   *IntentResponse   `json:"intent,omitempty"`
	Checkout *CheckoutResponse `json:"checkout,omitempty"`
	Replayed bool              `json:"replayed"`
}

func FromCreateRaffleResult(r *commands.CreateRaffleResult) *CreateRaffleResponse {
	return &CreateRaffleResponse{
		Raffle:   FromRaffleView(r.Raffle),
		Intent:   FromIntentView(r.Intent),
		Checkout: FromCheckout(r.Checkout),
		Replayed: r.IsReplayed,
	}
}

type ConfirmRaffleResponse struct {
	Raffle   *RaffleResponse `json:"raffle"`
	Replayed bool            `json:"replayed"`
}

func FromConfirmRaffleResult(r *commands.ConfirmRaffleResult) *ConfirmRaffleResponse {
	return &ConfirmRaffleResponse{
		Raffle:   FromRaffleView(r.Raffle),
		Replayed: r.IsReplayed,
	}
}
