package gateway

import (
	"context"

	"rafflywin/internal/domain/payment"
)

const freeRefPrefix = "FREE_"

// FreeGateway settles zero-amount intents synchronously. CreateCheckout is a
// no-op returning an immediate success; Capture always succeeds for refs it
// issued.
type FreeGateway struct{}

func NewFreeGateway() *FreeGateway {
	return &FreeGateway{}
}

func (g *FreeGateway) Kind() payment.Gateway {
	return payment.GatewayFree
}

func (g *FreeGateway) CreateCheckout(_ context.Context, intent *payment.Intent) (*Checkout, error) {
	if !intent.Amount().IsZero() {
		return nil, ErrDeclined
	}
	ref := freeRefPrefix + intent.ID().String()
	return &Checkout{
		CheckoutRef: ref,
		ClientConfig: map[string]any{
			"gateway": "free",
			"instant": true,
		},
	}, nil
}

func (g *FreeGateway) Capture(_ context.Context, checkoutRef, externalRef string) (*CaptureResult, error) {
	ref := externalRef
	if ref == "" {
		ref = checkoutRef
	}
	if len(ref) < len(freeRefPrefix) || ref[:len(freeRefPrefix)] != freeRefPrefix {
		return nil, ErrDeclined
	}
	return &CaptureResult{ExternalRef: ref, Succeeded: true}, nil
}
