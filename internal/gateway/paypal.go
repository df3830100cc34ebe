package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
)

const (
	paypalProductionURL = "https://api-m.paypal.com"
	paypalSandboxURL    = "https://api-m.sandbox.paypal.com"
)

// PayPalGateway drives the Orders v2 API. CreateCheckout opens an order the
// client approves with the PayPal buttons; Capture executes the capture
// server-side after the onApprove callback relays the order id.
type PayPalGateway struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalGateway(cfg config.PaymentsConfig, client *http.Client) *PayPalGateway {
	baseURL := cfg.PayPal.BaseURL
	if baseURL == "" {
		if cfg.IsSandbox() {
			baseURL = paypalSandboxURL
		} else {
			baseURL = paypalProductionURL
		}
	}
	return &PayPalGateway{
		clientID:     cfg.PayPal.ClientID,
		clientSecret: cfg.PayPal.ClientSecret,
		baseURL:      baseURL,
		client:       client,
	}
}

func (g *PayPalGateway) Kind() payment.Gateway {
	return payment.GatewayPayPal
}

type paypalOrderResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	PurchaseUnits    []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (g *PayPalGateway) CreateCheckout(ctx context.Context, intent *payment.Intent) (*Checkout, error) {
	token, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	order := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": intent.ID().String(),
				"amount": map[string]any{
					"currency_code": intent.Currency(),
					"value":         fmt.Sprintf("%.2f", intent.Amount().Dollars()),
				},
			},
		},
	}

	var resp paypalOrderResponse
	if err := g.call(ctx, http.MethodPost, "/v2/checkout/orders", token, order, &resp); err != nil {
		return nil, err
	}

	return &Checkout{
		CheckoutRef: resp.ID,
		ClientConfig: map[string]any{
			"gateway":  "paypal",
			"orderId":  resp.ID,
			"clientId": g.clientID,
			"intent":   "capture",
		},
	}, nil
}

func (g *PayPalGateway) Capture(ctx context.Context, checkoutRef, externalRef string) (*CaptureResult, error) {
	token, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	orderID := checkoutRef
	if orderID == "" {
		orderID = externalRef
	}

	var resp paypalOrderResponse
	err = g.call(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", token, nil, &resp)
	if err != nil {
		// An already-captured order replays as a success.
		var already paypalOrderResponse
		if getErr := g.call(ctx, http.MethodGet, "/v2/checkout/orders/"+orderID, token, nil, &already); getErr == nil && already.Status == "COMPLETED" {
			resp = already
		} else {
			return nil, err
		}
	}

	if resp.Status != "COMPLETED" {
		return nil, errs.Mark(errs.New("paypal order not completed: "+resp.Status), ErrDeclined)
	}

	captureID := resp.ID
	if len(resp.PurchaseUnits) > 0 && len(resp.PurchaseUnits[0].Payments.Captures) > 0 {
		captureID = resp.PurchaseUnits[0].Payments.Captures[0].ID
	}
	return &CaptureResult{ExternalRef: captureID, Succeeded: true}, nil
}

func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return "", errs.Mark(errs.New("paypal credentials not configured"), ErrUnavailable)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.Mark(err, ErrUnavailable)
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errs.Mark(err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.Mark(errs.New(fmt.Sprintf("paypal oauth status %d", resp.StatusCode)), ErrUnavailable)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errs.Mark(err, ErrUnavailable)
	}

	g.accessToken = body.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return g.accessToken, nil
}

func (g *PayPalGateway) call(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errs.Mark(err, ErrUnavailable)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errs.Mark(errs.New(fmt.Sprintf("paypal api status %d", resp.StatusCode)), ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return errs.Mark(errs.New(fmt.Sprintf("paypal api status %d", resp.StatusCode)), ErrDeclined)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Mark(err, ErrUnavailable)
	}
	return nil
}
