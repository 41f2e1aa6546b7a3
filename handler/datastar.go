package handler

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

// PatchOption configures how a component is patched into the page.
type PatchOption = datastar.PatchElementOption

// IsDataStar reports whether r was issued by the datastar client, which always asks
// for an event stream.
func IsDataStar(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
		r.URL.Query().Has("datastar")
}

// WithTarget patches into the element matching selector instead of the component's id.
func WithTarget(selector string) PatchOption {
	return datastar.WithSelector(selector)
}

func WithPatchMode(mode datastar.ElementPatchMode) PatchOption {
	return datastar.WithMode(mode)
}
