package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/autoumpire/internal/ui"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Result is what a scripted export showed.
type Result struct {
	Export string   `json:"export"`
	Labels []string `json:"labels"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
		return
	}
	o.printText(data)
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(o.errOut, string(data))
		return
	}
	fmt.Fprintf(o.errOut, "Error: %s\n", err)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Result:
		for _, l := range v.Labels {
			fmt.Fprintln(o.out, l)
		}
	case []ui.Option:
		o.printOptions(v)
	case string:
		fmt.Fprintln(o.out, v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printOptions(options []ui.Option) {
	width := 0
	for _, opt := range options {
		width = max(width, len(opt.Value))
	}
	for _, opt := range options {
		fmt.Fprintf(o.out, "%s%s  %s\n", opt.Value, strings.Repeat(" ", width-len(opt.Value)), opt.Label)
	}
}
