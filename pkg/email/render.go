package email

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Render renders a templ component into an HTML string suitable for Message.HTMLBody.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
