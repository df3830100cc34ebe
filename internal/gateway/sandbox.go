package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rafflywin/internal/domain/payment"
)

// SandboxRefPrefix is the synthetic reference format accepted in sandbox
// runs: TEST_SANDBOX_<timestamp>.
const SandboxRefPrefix = "TEST_SANDBOX_"

// SandboxGateway simulates a real gateway for non-production configuration.
// It is only registered when the payments environment is sandbox.
type SandboxGateway struct{}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{}
}

func (g *SandboxGateway) Kind() payment.Gateway {
	return payment.GatewaySandbox
}

func (g *SandboxGateway) CreateCheckout(_ context.Context, intent *payment.Intent) (*Checkout, error) {
	return &Checkout{
		CheckoutRef: "sbx_" + intent.ID().String(),
		ClientConfig: map[string]any{
			"gateway":       "sandbox",
			"environment":   "sandbox",
			"amount_cents":  intent.Amount().Cents(),
			"currency":      intent.Currency(),
			"testReference": fmt.Sprintf("%s%d", SandboxRefPrefix, time.Now().Unix()),
		},
	}, nil
}

// Capture accepts only synthetic TEST_SANDBOX_ references; anything else is
// treated as a decline.
func (g *SandboxGateway) Capture(_ context.Context, _, externalRef string) (*CaptureResult, error) {
	if !strings.HasPrefix(externalRef, SandboxRefPrefix) {
		return nil, ErrDeclined
	}
	return &CaptureResult{ExternalRef: externalRef, Succeeded: true}, nil
}
