package render

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// HTML renders a component to a string.
func HTML(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
