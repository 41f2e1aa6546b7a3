package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/requestid"
)

func serve(t *testing.T, header string) (seen string, echoed string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("reuses a valid inbound id", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, "gw-abc_123")
		assert.Equal(t, "gw-abc_123", seen)
		assert.Equal(t, "gw-abc_123", echoed)
	})

	tests := map[string]string{
		"missing":   "",
		"bad chars": "abc; DROP TABLE",
		"too long":  strings.Repeat("a", 129),
		"newline":   "abc\ndef",
	}
	for name, header := range tests {
		t.Run("generates when "+name, func(t *testing.T) {
			t.Parallel()
			seen, echoed := serve(t, header)
			require.NotEmpty(t, seen)
			assert.Equal(t, seen, echoed)
			assert.NotEqual(t, header, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}

func TestLogAttr(t *testing.T) {
	t.Parallel()

	_, ok := requestid.LogAttr(context.Background())
	assert.False(t, ok)

	attr, ok := requestid.LogAttr(requestid.WithContext(context.Background(), "req-1"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())
}
