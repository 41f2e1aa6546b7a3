package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxJSONSize caps request bodies. Membership and checkout payloads are tiny.
const MaxJSONSize = 64 << 10

// JSON decodes an application/json body strictly: unknown fields and trailing data are
// rejected. An empty body is not applicable, so endpoints with optional bodies work.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.ContentLength == 0 {
			return ErrNotApplicable
		}

		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return fmt.Errorf("%w: expected application/json, got %q", ErrUnsupportedMediaType, ct)
			}
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONSize+1))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrNotApplicable
			}
			return errors.Join(ErrFailedToParseJSON, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
		}
		return nil
	}
}
