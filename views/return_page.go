package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// DatastarScript is the datastar client bundle matching the server SDK.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"

// ReturnPage is shown when the gateway sends the buyer back. It renders the current
// status and, while the session is pending, subscribes to the status stream.
func ReturnPage(d StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Membership payment</title>`)
		h.raw(`<script type="module" src="` + DatastarScript + `"></script>`)
		h.raw(`</head><body><main`)
		if !d.Status.Terminal() {
			h.raw(` data-on-load="@get(&#39;`)
			h.text(StreamPath(d.SessionID))
			h.raw(`&#39;)"`)
		}
		h.raw(`>`)
		if h.err != nil {
			return h.err
		}
		if err := PaymentStatus(d).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// NotFoundPage is the return page for an unknown or foreign session.
func NotFoundPage() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>Payment not found</title></head>`)
		h.raw(`<body><main><div id="` + StatusElementID + `"><h2>Payment not found</h2>`)
		h.raw(`<p>We could not find this checkout. If you were charged, the payment will still be applied once the provider confirms it.</p>`)
		h.raw(`</div></main></body></html>`)
		return h.err
	})
}
