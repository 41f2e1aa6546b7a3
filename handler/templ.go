package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

type templResponse struct {
	component templ.Component
	status    int
	options   []PatchOption
}

// Render patches the component over SSE for datastar requests and writes full HTML otherwise.
func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.component, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.component.Render(r.Context(), w)
}

func Templ(component templ.Component, opts ...PatchOption) Response {
	return templResponse{component: component, options: opts}
}

// TemplStatus is Templ with an explicit status for the HTML branch.
func TemplStatus(status int, component templ.Component) Response {
	return templResponse{component: component, status: status}
}
