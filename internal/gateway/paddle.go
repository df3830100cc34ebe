package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
)

const (
	paddleProductionURL = "https://api.paddle.com"
	paddleSandboxURL    = "https://sandbox-api.paddle.com"
)

// PaddleGateway drives Paddle Billing transactions. The client renders the
// overlay checkout from ClientConfig; its eventCallback posts the completed
// transaction id back, which Capture verifies server-side.
type PaddleGateway struct {
	apiKey      string
	clientToken string
	baseURL     string
	environment string
	client      *http.Client
}

func NewPaddleGateway(cfg config.PaymentsConfig, client *http.Client) *PaddleGateway {
	baseURL := cfg.Paddle.BaseURL
	if baseURL == "" {
		if cfg.IsSandbox() {
			baseURL = paddleSandboxURL
		} else {
			baseURL = paddleProductionURL
		}
	}
	return &PaddleGateway{
		apiKey:      cfg.Paddle.APIKey,
		clientToken: cfg.Paddle.ClientToken,
		baseURL:     baseURL,
		environment: cfg.Environment,
		client:      client,
	}
}

func (g *PaddleGateway) Kind() payment.Gateway {
	return payment.GatewayPaddle
}

type paddleTransactionItem struct {
	Quantity int `json:"quantity"`
	Price    struct {
		Description string `json:"description"`
		Name        string `json:"name"`
		UnitPrice   struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currency_code"`
		} `json:"unit_price"`
	} `json:"price"`
}

type paddleTransactionRequest struct {
	Items      []paddleTransactionItem `json:"items"`
	CustomData map[string]string       `json:"custom_data,omitempty"`
}

type paddleTransactionResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
	Error *struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func (g *PaddleGateway) CreateCheckout(ctx context.Context, intent *payment.Intent) (*Checkout, error) {
	if g.apiKey == "" {
		return nil, errs.Mark(errs.New("paddle api key not configured"), ErrUnavailable)
	}

	item := paddleTransactionItem{Quantity: 1}
	item.Price.Name = string(intent.Purpose())
	item.Price.Description = string(intent.Purpose())
	item.Price.UnitPrice.Amount = fmt.Sprintf("%d", intent.Amount().Cents())
	item.Price.UnitPrice.CurrencyCode = intent.Currency()

	reqBody := paddleTransactionRequest{
		Items: []paddleTransactionItem{item},
		CustomData: map[string]string{
			"intent_id": intent.ID().String(),
			"raffle_id": intent.RaffleID().String(),
		},
	}

	var resp paddleTransactionResponse
	if err := g.post(ctx, "/transactions", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, errs.Mark(errs.New("paddle transaction rejected: "+resp.Error.Code), ErrDeclined)
	}

	return &Checkout{
		CheckoutRef: resp.Data.ID,
		ClientConfig: map[string]any{
			"gateway":       "paddle",
			"environment":   g.environment,
			"clientToken":   g.clientToken,
			"transactionId": resp.Data.ID,
		},
	}, nil
}

// Capture re-reads the transaction from Paddle and requires a completed or
// paid status; the client-relayed reference alone is never trusted.
func (g *PaddleGateway) Capture(ctx context.Context, checkoutRef, externalRef string) (*CaptureResult, error) {
	if g.apiKey == "" {
		return nil, errs.Mark(errs.New("paddle api key not configured"), ErrUnavailable)
	}

	ref := externalRef
	if ref == "" {
		ref = checkoutRef
	}

	var resp paddleTransactionResponse
	if err := g.get(ctx, "/transactions/"+ref, &resp); err != nil {
		return nil, err
	}

	switch resp.Data.Status {
	case "completed", "paid":
		return &CaptureResult{ExternalRef: resp.Data.ID, Succeeded: true}, nil
	case "canceled":
		return nil, ErrCancelled
	default:
		return nil, errs.Mark(errs.New("paddle transaction not settled: "+resp.Data.Status), ErrDeclined)
	}
}

func (g *PaddleGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *PaddleGateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	return g.do(req, out)
}

func (g *PaddleGateway) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errs.Mark(errs.New(fmt.Sprintf("paddle api status %d", resp.StatusCode)), ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return errs.Mark(errs.New(fmt.Sprintf("paddle api status %d", resp.StatusCode)), ErrDeclined)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	return nil
}
