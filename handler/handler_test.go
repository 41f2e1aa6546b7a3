package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/pkg/binder"
	"github.com/dmitrymomot/membership/pkg/logger"
)

type amountRequest struct {
	Kind   string `path:"kind"`
	Amount int64  `json:"amount"`
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := func(ctx handler.Context, req amountRequest) handler.Response {
		return handler.JSON(map[string]any{"user": ctx.UserID(), "kind": req.Kind, "amount": req.Amount})
	}
	router := chi.NewRouter()
	router.Post("/credits/{kind}", handler.Wrap(echo,
		handler.WithBinders[amountRequest](binder.Path(), binder.JSON()),
		handler.WithErrorHandler[amountRequest](handler.NewErrorHandler(logger.Nop())),
		handler.WithDecorators(handler.RequireUser[amountRequest]()),
	))

	do := func(body, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/credits/boosts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if user != "" {
			req.Header.Set(handler.UserIDHeader, user)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("binds path and body", func(t *testing.T) {
		t.Parallel()
		rec := do(`{"amount":3}`, "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user":"u1","kind":"boosts","amount":3}`, rec.Body.String())
	})

	t.Run("missing identity is 401", func(t *testing.T) {
		t.Parallel()
		rec := do(`{"amount":3}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		t.Parallel()
		rec := do(`{"amount":`, "u1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec).Code)
	})
}

func TestRequireToken(t *testing.T) {
	t.Parallel()

	ok := func(handler.Context, struct{}) handler.Response { return handler.JSON(map[string]bool{"ok": true}) }
	wrap := func(token string) http.Handler {
		return handler.Wrap(ok,
			handler.WithErrorHandler[struct{}](handler.NewErrorHandler(logger.Nop())),
			handler.WithDecorators(handler.RequireToken[struct{}](handler.AdminTokenHeader, token)),
		)
	}
	do := func(h http.Handler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set(handler.AdminTokenHeader, token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	guarded := wrap("secret-token")
	assert.Equal(t, http.StatusOK, do(guarded, "secret-token").Code)

	rec := do(guarded, "secret-tokeN")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Code)
	assert.Equal(t, http.StatusForbidden, do(guarded, "").Code)

	assert.Equal(t, http.StatusForbidden, do(wrap(""), "").Code, "no configured token refuses everyone")
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil },
		handler.WithErrorHandler[struct{}](handler.NewErrorHandler(logger.Nop())))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error keeps status and message", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		err := handler.JSONError(handler.ErrUnprocessableEntity.WithMessage("amount does not match any tier")).
			Render(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, handler.ErrorDetail{Code: "unprocessable_entity", Message: "amount does not match any tier"}, decodeError(t, rec))
	})

	t.Run("wrapped http error is found", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		err := handler.JSONError(errors.Join(errors.New("ctx"), handler.ErrNotFound)).
			Render(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("plain errors never leak", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		err := handler.JSONError(errors.New("<html>upstream exploded</html>")).
			Render(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "html")
	})
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("renders html for plain requests", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.TemplStatus(http.StatusAccepted, text("<p>pending</p>")).
			Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "<p>pending</p>", rec.Body.String())
	})

	t.Run("patches over sse for datastar", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()
		require.NoError(t, handler.Templ(text(`<div id="status">paid</div>`)).Render(rec, req))
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, rec.Body.String(), `<div id="status">paid</div>`)
	})
}

func TestSSE(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-datastar requests", func(t *testing.T) {
		t.Parallel()
		err := handler.SSE(func(handler.StreamContext) error { return nil }).
			Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		var httpErr handler.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("streams signals until the client leaves", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		req.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()

		done := make(chan error, 1)
		go func() {
			done <- handler.SSE(func(stream handler.StreamContext) error {
				if err := stream.PatchSignals(map[string]any{"status": "pending"}); err != nil {
					return err
				}
				cancel()
				<-stream.Done()
				return nil
			}).Render(rec, req)
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			require.Fail(t, "stream did not stop")
		}
		assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	})
}

func TestBlob(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Blob("image/png", []byte{0x89, 'P', 'N', 'G'}).
		Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes())
}

func TestInstrument(t *testing.T) {
	t.Parallel()

	type call struct {
		route, method string
		status        int
	}
	calls := make(chan call, 1)

	router := chi.NewRouter()
	router.Use(handler.Instrument(logger.Nop(), func(route, method string, status int, _ time.Duration) {
		calls <- call{route, method, status}
	}))
	router.Get("/v1/payments/{sessionID}/qr", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/payments/abc/qr", nil))
	assert.Equal(t, call{"/v1/payments/{sessionID}/qr", http.MethodGet, http.StatusTeapot}, <-calls)
}
