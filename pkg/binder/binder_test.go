package binder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/binder"
	"github.com/dmitrymomot/membership/svc/membership"
)

type creditRequest struct {
	Kind   membership.CreditKind `path:"kind"`
	Amount int64                 `json:"amount"`
	Dry    bool                  `query:"dry"`
	Limit  uint                  `query:"limit"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()
	newReq := func(body, ct string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		return r
	}

	t.Run("decodes", func(t *testing.T) {
		t.Parallel()
		var req creditRequest
		require.NoError(t, bind(newReq(`{"amount":5}`, "application/json; charset=utf-8"), &req))
		assert.EqualValues(t, 5, req.Amount)
	})

	t.Run("empty body is not applicable", func(t *testing.T) {
		t.Parallel()
		var req creditRequest
		assert.ErrorIs(t, bind(newReq("", "application/json"), &req), binder.ErrNotApplicable)
	})

	tests := []struct {
		name, body, ct string
		want           error
	}{
		{"unknown field", `{"amount":5,"tier":"vip"}`, "application/json", binder.ErrFailedToParseJSON},
		{"trailing data", `{"amount":5}{"amount":6}`, "application/json", binder.ErrFailedToParseJSON},
		{"wrong type", `{"amount":"five"}`, "application/json", binder.ErrFailedToParseJSON},
		{"form content type", `amount=5`, "application/x-www-form-urlencoded", binder.ErrUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req creditRequest
			assert.ErrorIs(t, bind(newReq(tt.body, tt.ct), &req), tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/v1/membership/credits/boosts", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", "boosts")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	var req creditRequest
	require.NoError(t, binder.Path()(r, &req))
	assert.Equal(t, membership.CreditBoosts, req.Kind)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.ErrorIs(t, binder.Path()(plain, &req), binder.ErrNotApplicable)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	var req creditRequest
	require.NoError(t, binder.Query()(httptest.NewRequest(http.MethodGet, "/?dry=true&limit=3", nil), &req))
	assert.True(t, req.Dry)
	assert.EqualValues(t, 3, req.Limit)

	err := binder.Query()(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil), &req)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)

	err = binder.Query()(httptest.NewRequest(http.MethodGet, "/", nil), req)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
}
