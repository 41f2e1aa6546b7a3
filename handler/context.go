package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// UserIDHeader carries the caller identity asserted by the upstream auth proxy.
const UserIDHeader = "X-User-ID"

// AdminTokenHeader carries the shared secret of trusted internal callers.
const AdminTokenHeader = "X-Admin-Token"

// Context is the request context handed to every HandlerFunc.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// UserID is the authenticated caller, or "" for anonymous requests.
	UserID() string
}

func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &httpContext{w: w, r: r}
}

type httpContext struct {
	w http.ResponseWriter
	r *http.Request
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *httpContext) UserID() string                      { return strings.TrimSpace(c.r.Header.Get(UserIDHeader)) }

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *httpContext) Err() error                  { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any           { return c.r.Context().Value(key) }
