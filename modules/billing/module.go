// Package billing serves checkout, payment status and gateway notifications over HTTP.
package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/pkg/binder"
	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/qrcode"
	"github.com/dmitrymomot/membership/pkg/ratelimiter"
	"github.com/dmitrymomot/membership/pkg/webhook"
	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

const (
	DefaultPollInterval = 3 * time.Second
	// maxNotificationSize caps webhook bodies read into memory.
	maxNotificationSize = 64 << 10
)

type Module struct {
	svc          payment.Service
	parser       gateway.NotificationParser
	members      membership.Service
	verifier     *webhook.Verifier
	limiter      ratelimiter.Limiter
	pollInterval time.Duration
	qrSize       int
	log          *slog.Logger
	errorHandler handler.ErrorHandler
}

type Option func(*Module)

// WithMemberships lets status pages show the membership expiry of completed payments.
func WithMemberships(svc membership.Service) Option {
	return func(m *Module) {
		m.members = svc
	}
}

// WithWebhookSecret requires inbound notifications to carry a valid
// X-Webhook-Signature for secret. An empty secret disables the check.
func WithWebhookSecret(secret []byte, opts ...webhook.VerifierOption) Option {
	return func(m *Module) {
		if len(secret) > 0 {
			m.verifier = webhook.NewVerifier(secret, opts...)
		}
	}
}

// WithCheckoutLimiter throttles checkout creation per user. Limiter failures let the
// request through.
func WithCheckoutLimiter(l ratelimiter.Limiter) Option {
	return func(m *Module) {
		m.limiter = l
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(m *Module) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithQRSize(size int) Option {
	return func(m *Module) {
		m.qrSize = size
	}
}

// New panics if svc or parser is nil.
func New(svc payment.Service, parser gateway.NotificationParser, log *slog.Logger, opts ...Option) *Module {
	if svc == nil {
		panic("billing: payment.Service is required")
	}
	if parser == nil {
		panic("billing: gateway.NotificationParser is required")
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Module{
		svc:          svc,
		parser:       parser,
		pollInterval: DefaultPollInterval,
		qrSize:       qrcode.DefaultSize,
		log:          log.With(logger.Component("billing")),
		errorHandler: handler.NewErrorHandler(log),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the router to mount under /v1/payments.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/checkout", wrap(m, m.checkout, true, binder.JSON()))
	r.Post("/{sessionID}/verify", wrap(m, m.verify, true, binder.Path()))
	r.Get("/{sessionID}/qr", wrap(m, m.qr, true, binder.Path()))
	// The stream is opened by the return page, which may be reached without an identity.
	r.Get("/{sessionID}/stream", wrap(m, m.stream, false, binder.Path()))
	return r
}

// ReturnPage handles GET /payments/return?session=<id>, where the gateway sends the payer back.
func (m *Module) ReturnPage() http.HandlerFunc {
	return wrap(m, m.returnPage, false, binder.Query())
}

// Webhook handles POST /webhooks/payments.
func (m *Module) Webhook() http.HandlerFunc {
	return wrap(m, m.notify, false)
}

func wrap[R any](m *Module, h handler.HandlerFunc[R], requireUser bool, binders ...handler.Bind) http.HandlerFunc {
	opts := []handler.WrapOption[R]{
		handler.WithBinders[R](binders...),
		handler.WithErrorHandler[R](m.errorHandler),
	}
	if requireUser {
		opts = append(opts, handler.WithDecorators(handler.RequireUser[R]()))
	}
	return handler.Wrap(h, opts...)
}

// errorResponse maps payment and gateway errors to HTTP errors, keeping the cause for the log.
func errorResponse(err error) error {
	var httpErr handler.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return err
	case errors.Is(err, membership.ErrMissingUserID):
		httpErr = handler.ErrUnauthorized.WithMessage("user identity is required")
	case errors.Is(err, payment.ErrForbidden):
		httpErr = handler.ErrForbidden.WithMessage("this payment belongs to another user")
	case errors.Is(err, payment.ErrTransactionNotFound):
		httpErr = handler.ErrNotFound.WithMessage("payment session not found")
	case errors.Is(err, membership.ErrUnknownTier):
		httpErr = handler.ErrUnprocessableEntity.WithMessage("unknown or unpaid tier")
	case errors.Is(err, payment.ErrInvalidPhone):
		httpErr = handler.ErrUnprocessableEntity.WithMessage("phone number is missing or invalid")
	case errors.Is(err, payment.ErrInvalidAmount):
		httpErr = handler.ErrUnprocessableEntity.WithMessage("amount is below the tier price")
	case errors.Is(err, payment.ErrInvalidMonths):
		httpErr = handler.ErrUnprocessableEntity.WithMessage("billing period is out of range")
	case errors.Is(err, payment.ErrTierUndetermined):
		httpErr = handler.ErrUnprocessableEntity.WithMessage("cannot determine the paid tier")
	case errors.Is(err, payment.ErrMissingSession):
		httpErr = handler.ErrBadRequest.WithMessage("notification has no session ID")
	case errors.Is(err, payment.ErrInvalidNonce):
		httpErr = handler.ErrBadRequest.WithMessage("invalid payment reference")
	case errors.Is(err, gateway.ErrRejected):
		httpErr = handler.ErrUnprocessableEntity.WithMessage(gateway.UserMessage(err))
	case errors.Is(err, gateway.ErrNotConfigured), errors.Is(err, gateway.ErrNetwork):
		httpErr = handler.ErrServiceUnavailable.WithMessage(gateway.UserMessage(err))
	case errors.Is(err, gateway.ErrProtocol), errors.Is(err, gateway.ErrNoPaymentURL):
		httpErr = handler.ErrBadGateway.WithMessage(gateway.UserMessage(err))
	default:
		return err
	}
	return errors.Join(httpErr, err)
}
