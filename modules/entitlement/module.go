// Package entitlement exposes the membership service over HTTP. Handle serves callers
// acting on their own membership; Admin serves trusted internal callers that grant
// tiers and credits without payment.
package entitlement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/pkg/binder"
	"github.com/dmitrymomot/membership/svc/membership"
)

type Module struct {
	svc          membership.Service
	errorHandler handler.ErrorHandler
	adminToken   string
}

type Option func(*Module)

// WithAdminToken sets the secret Admin routes expect in the X-Admin-Token header.
// Without it every Admin request is refused.
func WithAdminToken(token string) Option {
	return func(m *Module) { m.adminToken = token }
}

// New panics if svc is nil.
func New(svc membership.Service, log *slog.Logger, opts ...Option) *Module {
	if svc == nil {
		panic("entitlement: membership.Service is required")
	}
	m := &Module{svc: svc, errorHandler: handler.NewErrorHandler(log)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the router to mount under /v1. Every membership route requires a caller
// identity; the tier listing is public.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/tiers", wrap(m, m.tiers, false))

	r.Route("/membership", func(r chi.Router) {
		r.Get("/", wrap(m, m.get, true))
		r.Post("/daily/{feature}/use", wrap(m, m.useDaily, true, binder.Path()))
		r.Post("/credits/{kind}/use", wrap(m, m.useCredit, true, binder.Path()))
		r.Post("/boosts/use", wrap(m, m.useBoost, true))
		r.Post("/superlikes/use", wrap(m, m.useSuperLike, true))
		r.Post("/cancel", wrap(m, m.cancel, true))
	})

	return r
}

// Admin returns the router to mount under /internal/v1. Its routes change a membership
// without payment, so they need the admin token on top of the caller identity.
func (m *Module) Admin() http.Handler {
	r := chi.NewRouter()

	r.Route("/membership", func(r chi.Router) {
		r.Post("/credits/{kind}", wrapAdmin(m, m.addCredits, binder.Path(), binder.JSON()))
		r.Post("/upgrade", wrapAdmin(m, m.upgrade, binder.JSON()))
	})

	return r
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

func wrapAdmin[R any](m *Module, h handler.HandlerFunc[R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[R](binders...),
		handler.WithErrorHandler[R](m.errorHandler),
		handler.WithDecorators(
			handler.RequireToken[R](handler.AdminTokenHeader, m.adminToken),
			handler.RequireUser[R](),
		),
	)
}

// errorResponse maps service errors to HTTP errors. Anything unknown becomes a 500
// whose details only reach the log.
func errorResponse(err error) error {
	switch {
	case errors.Is(err, membership.ErrMissingUserID):
		return handler.ErrUnauthorized.WithMessage("user identity is required")
	case errors.Is(err, membership.ErrUnknownFeature):
		return handler.ErrNotFound.WithMessage("unknown daily feature")
	case errors.Is(err, membership.ErrUnknownCreditKind):
		return handler.ErrNotFound.WithMessage("unknown credit kind")
	case errors.Is(err, membership.ErrInvalidAmount):
		return handler.ErrUnprocessableEntity.WithMessage("amount must be positive and fit the credit balance")
	case errors.Is(err, membership.ErrUnknownTier):
		return handler.ErrUnprocessableEntity.WithMessage("unknown tier")
	case errors.Is(err, membership.ErrRemoteWriteFailed):
		return handler.ErrServiceUnavailable
	default:
		return err
	}
}

func respond(res membership.Result, err error) handler.Response {
	if err != nil {
		return handler.Fail(errorResponse(err))
	}
	return handler.JSON(res)
}
