// Package views holds the HTML rendered by the service: the payment return page, the
// status fragment patched into it over SSE, and the receipt e-mail. Components are
// plain templ.Component values so they render through the same handler and email paths
// as generated templates.
package views
