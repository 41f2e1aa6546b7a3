package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
)

type empty struct{}

// notify applies a gateway push. Any failure is answered with a non-2xx status so the
// gateway redelivers.
func (m *Module) notify(ctx handler.Context, _ empty) handler.Response {
	r := ctx.Request()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationSize+1))
	if err != nil {
		return handler.Fail(handler.ErrBadRequest.WithMessage("cannot read notification body"))
	}
	if len(body) > maxNotificationSize {
		return handler.JSONError(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large"))
	}

	if m.verifier != nil {
		if _, err := m.verifier.VerifyRequest(r, body); err != nil {
			return handler.Fail(errors.Join(handler.ErrUnauthorized.WithMessage("invalid webhook signature"), err))
		}
	}

	n, err := m.parser.ParseNotification(r, body)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidRequest) || errors.Is(err, gateway.ErrProtocol) {
			return handler.Fail(errors.Join(handler.ErrBadRequest.WithMessage("malformed payment notification"), err))
		}
		return handler.Fail(errorResponse(err))
	}

	out, err := m.svc.HandleNotification(ctx, *n)
	if err != nil {
		return handler.Fail(errorResponse(err))
	}

	m.log.InfoContext(ctx, "payment notification handled",
		logger.SessionID(out.SessionID), logger.Status(string(out.Status)),
		slog.Bool("applied", out.Applied))
	return handler.JSON(out)
}
