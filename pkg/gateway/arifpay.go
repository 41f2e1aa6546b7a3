package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

const (
	arifPayKeyHeader  = "x-arifpay-key"
	arifPayTimeLayout = "2006-01-02T15:04:05"
	maxResponseBytes  = 1 << 20
)

// ArifPayConfig holds ArifPay credentials and client limits.
type ArifPayConfig struct {
	APIKey         string        `env:"ARIFPAY_API_KEY"`
	BaseURL        string        `env:"ARIFPAY_BASE_URL" envDefault:"https://gateway.arifpay.net"`
	Timeout        time.Duration `env:"ARIFPAY_TIMEOUT" envDefault:"15s"`
	RatePerSecond  float64       `env:"ARIFPAY_RATE_PER_SECOND" envDefault:"10"`
	RateBurst      int           `env:"ARIFPAY_RATE_BURST" envDefault:"5"`
	PaymentMethods []string      `env:"ARIFPAY_PAYMENT_METHODS" envSeparator:"," envDefault:"TELEBIRR,CBE,AWASH,AMOLE"`
}

// Validate checks the parts of the config that have defaults. A missing API key is
// reported by NewArifPay so callers can decide between failing and Disabled.
func (c ArifPayConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: ARIFPAY_BASE_URL must be an absolute URL", ErrInvalidRequest)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: ARIFPAY_TIMEOUT must be positive", ErrInvalidRequest)
	}
	return nil
}

// ArifPay is a Gateway backed by the ArifPay checkout API.
type ArifPay struct {
	cfg      ArifPayConfig
	base     string
	client   *http.Client
	limiter  *rate.Limiter
	observer Observer
}

// ArifPayOption configures the ArifPay client.
type ArifPayOption func(*ArifPay)

func WithHTTPClient(c *http.Client) ArifPayOption {
	return func(a *ArifPay) {
		if c != nil {
			a.client = c
		}
	}
}

func WithObserver(o Observer) ArifPayOption {
	return func(a *ArifPay) { a.observer = o }
}

// NewArifPay builds the client once; it is safe for concurrent use.
func NewArifPay(cfg ArifPayConfig, opts ...ArifPayOption) (*ArifPay, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: ARIFPAY_API_KEY is empty", ErrNotConfigured)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	a := &ArifPay{
		cfg:     cfg,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type arifPayItem struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

type arifPayBeneficiary struct {
	AccountNumber string `json:"accountNumber"`
	Bank          string `json:"bank"`
	Amount        int64  `json:"amount"`
}

type arifPaySessionRequest struct {
	CancelURL      string               `json:"cancelUrl"`
	Phone          string               `json:"phone,omitempty"`
	Email          string               `json:"email,omitempty"`
	Nonce          string               `json:"nonce"`
	SuccessURL     string               `json:"successUrl"`
	ErrorURL       string               `json:"errorUrl"`
	NotifyURL      string               `json:"notifyUrl"`
	PaymentMethods []string             `json:"paymentMethods,omitempty"`
	ExpireDate     string               `json:"expireDate"`
	Items          []arifPayItem        `json:"items"`
	Beneficiaries  []arifPayBeneficiary `json:"beneficiaries,omitempty"`
	Lang           string               `json:"lang"`
	Amount         int64                `json:"amount"`
	Currency       string               `json:"currency,omitempty"`
}

type arifPayEnvelope struct {
	Error bool            `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

type arifPaySession struct {
	SessionID  string `json:"sessionId"`
	PaymentURL string `json:"paymentUrl"`
}

type arifPayStatus struct {
	SessionID         string     `json:"sessionId"`
	TransactionStatus string     `json:"transactionStatus"`
	TotalAmount       flexAmount `json:"totalAmount"`
	UpdatedAt         string     `json:"updatedAt"`
	Transaction       *struct {
		TransactionID     string `json:"transactionId"`
		TransactionStatus string `json:"transactionStatus"`
	} `json:"transaction"`
}

// CreateSession opens a checkout session.
func (a *ArifPay) CreateSession(ctx context.Context, req SessionRequest) (_ *Session, err error) {
	defer func(start time.Time) { a.observer.observe("create_session", start, err) }(time.Now())

	if req.Amount <= 0 || len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: amount and at least one item are required", ErrInvalidRequest)
	}

	body := arifPaySessionRequest{
		CancelURL:      req.CancelURL,
		Phone:          req.Phone,
		Email:          req.Email,
		Nonce:          req.Nonce,
		SuccessURL:     req.SuccessURL,
		ErrorURL:       firstNonEmpty(req.ErrorURL, req.CancelURL),
		NotifyURL:      req.NotifyURL,
		PaymentMethods: a.cfg.PaymentMethods,
		ExpireDate:     req.ExpiresAt.UTC().Format(arifPayTimeLayout),
		Lang:           langCode(req.Language),
		Amount:         req.Amount,
		Currency:       req.Currency,
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, arifPayItem{
			Name: it.Name, Quantity: max(it.Quantity, 1), Price: it.UnitPrice, Description: it.Description,
		})
	}
	for _, b := range req.Beneficiaries {
		body.Beneficiaries = append(body.Beneficiaries, arifPayBeneficiary{
			AccountNumber: b.AccountNumber, Bank: b.Bank, Amount: b.Amount,
		})
	}

	var out arifPaySession
	if err := a.do(ctx, http.MethodPost, "/api/checkout/session", body, &out); err != nil {
		return nil, err
	}
	if out.PaymentURL == "" || out.SessionID == "" {
		return nil, ErrNoPaymentURL
	}
	return &Session{SessionID: out.SessionID, PaymentURL: out.PaymentURL}, nil
}

// GetStatus fetches the current state of a session.
func (a *ArifPay) GetStatus(ctx context.Context, sessionID string) (_ *StatusResult, err error) {
	defer func(start time.Time) { a.observer.observe("get_status", start, err) }(time.Now())

	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrInvalidRequest)
	}

	var out arifPayStatus
	if err := a.do(ctx, http.MethodGet, "/api/checkout/session/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}

	res := &StatusResult{
		Status: NormalizeStatus(out.TransactionStatus),
		Amount: int64(out.TotalAmount),
	}
	if out.Transaction != nil {
		res.TransactionID = out.Transaction.TransactionID
		if out.TransactionStatus == "" {
			res.Status = NormalizeStatus(out.Transaction.TransactionStatus)
		}
	}
	if res.Status == StatusSuccess && out.UpdatedAt != "" {
		if t, perr := time.Parse(time.RFC3339, out.UpdatedAt); perr == nil {
			res.PaidAt = &t
		}
	}
	return res, nil
}

func (a *ArifPay) do(ctx context.Context, method, path string, in, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return errors.Join(ErrNetwork, err)
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Join(ErrInvalidRequest, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}
	req.Header.Set(arifPayKeyHeader, a.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}

	if isMarkup(resp.Header.Get("Content-Type"), raw) {
		return fmt.Errorf("%w: markup body with status %d", ErrProtocol, resp.StatusCode)
	}

	var env arifPayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: undecodable body with status %d", ErrProtocol, resp.StatusCode)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest || env.Error:
		return &RejectionError{StatusCode: resp.StatusCode, Message: env.Msg}
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: response has no data", ErrProtocol)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: unexpected data shape", ErrProtocol)
	}
	return nil
}

// isMarkup detects HTML or XML bodies such as proxy error pages.
func isMarkup(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// langCode reduces a BCP 47 tag to the upper-case base language ArifPay expects.
func langCode(tag string) string {
	if tag == "" {
		return "EN"
	}
	base, _ := language.Make(tag).Base()
	return strings.ToUpper(base.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
