package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yeremiapane/service-booking/models"
)

// GatewayResult is what a payment collaborator reports for one transaction.
type GatewayResult struct {
	Approved  bool
	Reference string
	Message   string
}

// PaymentGateway settles a pending transaction.
type PaymentGateway interface {
	Charge(ctx context.Context, txn models.PaymentTransaction) (GatewayResult, error)
}

// CashGateway records cash handed to the worker; it always approves.
type CashGateway struct{}

func (CashGateway) Charge(_ context.Context, txn models.PaymentTransaction) (GatewayResult, error) {
	return GatewayResult{
		Approved:  true,
		Reference: "CASH-" + txn.Reference,
		Message:   "cash submission recorded",
	}, nil
}

// HTTPGateway posts transactions to an external payment service as JSON.
type HTTPGateway struct {
	URL        string
	Key        string
	Currency   string
	httpClient *http.Client
}

func NewHTTPGateway(url, key, currency string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		URL:        url,
		Key:        key,
		Currency:   currency,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type gatewayRequest struct {
	Reference string `json:"reference"`
	BookingID uint   `json:"booking_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"payment_method"`
}

type gatewayResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

func (g *HTTPGateway) Charge(ctx context.Context, txn models.PaymentTransaction) (GatewayResult, error) {
	payload, err := json.Marshal(gatewayRequest{
		Reference: txn.Reference,
		BookingID: txn.BookingID,
		Amount:    txn.Amount.StringFixed(2),
		Currency:  g.Currency,
		Method:    txn.PaymentMethod,
	})
	if err != nil {
		return GatewayResult{}, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewBuffer(payload))
	if err != nil {
		return GatewayResult{}, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", txn.Reference)
	if g.Key != "" {
		req.Header.Set("Authorization", "Bearer "+g.Key)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GatewayResult{}, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return GatewayResult{}, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out gatewayResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return GatewayResult{}, fmt.Errorf("decode gateway response: %w", err)
	}

	return GatewayResult{
		Approved:  gatewayApproved(out.Status),
		Reference: out.Reference,
		Message:   out.Message,
	}, nil
}

func gatewayApproved(status string) bool {
	switch strings.ToLower(status) {
	case "approved", "captured", "settled", "succeeded", "success":
		return true
	}
	return false
}
