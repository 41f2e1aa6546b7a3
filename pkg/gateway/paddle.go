package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds Paddle Billing credentials.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Sandbox       bool   `env:"PADDLE_SANDBOX" envDefault:"true"`
	BaseURL       string `env:"PADDLE_BASE_URL"` // overrides the sandbox/production API host
}

// Paddle is a Gateway backed by Paddle Billing transactions.
// Items must carry the Paddle price ID in Ref; Paddle bills Quantity times that
// catalog price and ignores UnitPrice and the request Amount.
type Paddle struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	observer Observer
}

// NewPaddle builds the Paddle client once.
func NewPaddle(cfg PaddleConfig, observer Observer) (*Paddle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: PADDLE_API_KEY is empty", ErrNotConfigured)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: PADDLE_WEBHOOK_SECRET is empty", ErrNotConfigured)
	}

	var opts []paddle.Option
	if cfg.BaseURL != "" {
		opts = append(opts, paddle.WithBaseURL(cfg.BaseURL))
	}

	var (
		client *paddle.SDK
		err    error
	)
	if cfg.Sandbox {
		client, err = paddle.NewSandbox(cfg.APIKey, opts...)
	} else {
		client, err = paddle.New(cfg.APIKey, opts...)
	}
	if err != nil {
		return nil, errors.Join(ErrNotConfigured, err)
	}

	return &Paddle{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		observer: observer,
	}, nil
}

func (p *Paddle) CreateSession(ctx context.Context, req SessionRequest) (_ *Session, err error) {
	defer func(start time.Time) { p.observer.observe("create_session", start, err) }(time.Now())

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidRequest)
	}

	items := make([]paddle.CreateTransactionItems, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Ref == "" {
			return nil, &RejectionError{
				StatusCode: http.StatusUnprocessableEntity,
				Message:    "Custom amounts are not supported by this payment provider. Please pay the listed price.",
			}
		}
		item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
			PriceID:  it.Ref,
			Quantity: max(it.Quantity, 1),
		})
		items = append(items, *item)
	}

	custom := paddle.CustomData{"nonce": req.Nonce}
	for k, v := range req.Metadata {
		custom[k] = v
	}
	if req.Email != "" {
		custom["email"] = req.Email
	}

	txReq := &paddle.CreateTransactionRequest{
		Items:      items,
		CustomData: custom,
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, classifyPaddleError(err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoPaymentURL
	}
	return &Session{SessionID: tx.ID, PaymentURL: *tx.Checkout.URL}, nil
}

func (p *Paddle) GetStatus(ctx context.Context, sessionID string) (_ *StatusResult, err error) {
	defer func(start time.Time) { p.observer.observe("get_status", start, err) }(time.Now())

	tx, err := p.client.TransactionsClient.GetTransaction(ctx, &paddle.GetTransactionRequest{TransactionID: sessionID})
	if err != nil {
		return nil, classifyPaddleError(err)
	}
	return &StatusResult{
		Status:        paddleStatus(string(tx.Status)),
		TransactionID: tx.ID,
	}, nil
}

// ParseNotification verifies the Paddle-Signature header and decodes transaction events.
func (p *Paddle) ParseNotification(r *http.Request, body []byte) (*Notification, error) {
	verifyReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, r.URL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	verifyReq.Header = r.Header.Clone()

	ok, err := p.verifier.Verify(verifyReq)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: paddle signature verification failed", ErrInvalidRequest)
	}

	var event struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
		Data      struct {
			ID         string         `json:"id"`
			Status     string         `json:"status"`
			CustomData map[string]any `json:"custom_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: notification is not valid JSON", ErrProtocol)
	}
	if !strings.HasPrefix(event.EventType, "transaction.") {
		return nil, fmt.Errorf("%w: unsupported event %q", ErrInvalidRequest, event.EventType)
	}

	n := &Notification{
		EventID:       event.EventID,
		SessionID:     event.Data.ID,
		TransactionID: event.Data.ID,
		Status:        string(paddleStatus(event.Data.Status)),
	}
	if nonce, ok := event.Data.CustomData["nonce"].(string); ok {
		n.Nonce = nonce
	}
	return n, nil
}

func paddleStatus(s string) Status {
	switch strings.ToLower(s) {
	case "completed", "paid":
		return StatusSuccess
	case "canceled":
		return StatusCancelled
	case "past_due":
		return StatusFailed
	default:
		return StatusPending
	}
}

func classifyPaddleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrNetwork, err)
	}
	return errors.Join(ErrRejected, err)
}
