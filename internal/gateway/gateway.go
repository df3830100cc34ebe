package gateway

import (
	"context"
	"net/http"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
)

// Failure taxonomy surfaced to the lifecycle layer. On any of these the
// raffle/purchase stays in its pre-payment state.
var (
	ErrUnavailable    = errs.New("gateway unavailable")
	ErrDeclined       = errs.New("gateway declined payment")
	ErrCancelled      = errs.New("gateway checkout cancelled")
	ErrUnknownGateway = errs.New("unknown gateway")
)

// Checkout is the opaque per-gateway payload the client needs to render its
// payment widget.
type Checkout struct {
	CheckoutRef  string
	ClientConfig map[string]any
}

// CaptureResult is the uniform confirmation shape each gateway's native
// callback (Paddle eventCallback, PayPal onApprove, sandbox test reference)
// is translated into.
type CaptureResult struct {
	ExternalRef string
	Succeeded   bool
}

type Gateway interface {
	Kind() payment.Gateway
	CreateCheckout(ctx context.Context, intent *payment.Intent) (*Checkout, error)
	Capture(ctx context.Context, checkoutRef, externalRef string) (*CaptureResult, error)
}

// Registry holds the gateways enabled for this process. The set is fixed at
// startup from configuration; in particular the sandbox gateway only exists
// when the payments environment is sandbox, so it can never be reached when
// real money is at stake.
type Registry struct {
	gateways map[payment.Gateway]Gateway
}

func NewRegistry(cfg config.PaymentsConfig) *Registry {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	gateways := map[payment.Gateway]Gateway{
		payment.GatewayFree:   NewFreeGateway(),
		payment.GatewayPaddle: NewPaddleGateway(cfg, httpClient),
		payment.GatewayPayPal: NewPayPalGateway(cfg, httpClient),
	}
	if cfg.IsSandbox() {
		gateways[payment.GatewaySandbox] = NewSandboxGateway()
	}
	return &Registry{gateways: gateways}
}

func (r *Registry) For(kind payment.Gateway) (Gateway, error) {
	gw, ok := r.gateways[kind]
	if !ok {
		return nil, errs.Mark(errs.New("gateway not enabled: "+string(kind)), ErrUnknownGateway)
	}
	return gw, nil
}
