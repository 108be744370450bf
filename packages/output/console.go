// Package output renders responses for the CLI.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

// Formatter renders a response and extracted values.
type Formatter interface {
	PrintResponse(resp *client.Response) error
	PrintValue(value any)
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(noColor bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = noColor
	}
}

// PrintResponse renders the status line, optionally the headers, and the
// body. JSON bodies are pretty-printed.
func (f *ConsoleFormatter) PrintResponse(resp *client.Response) error {
	statusColor := color.New(color.FgGreen)
	switch {
	case resp.IsRedirect():
		statusColor = color.New(color.FgYellow)
	case resp.IsClientError(), resp.IsServerError():
		statusColor = color.New(color.FgRed)
	}

	statusColor.Fprintf(f.writer, "%s", resp.Status)
	fmt.Fprintf(f.writer, "  (%dms)\n", resp.DurationMs())

	if f.verbose {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dim := color.New(color.Faint)
		for _, k := range keys {
			dim.Fprintf(f.writer, "%s: %s\n", k, resp.Headers[k])
		}
	}

	raw, err := resp.Bytes()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	fmt.Fprintln(f.writer)
	if resp.IsJSON() {
		var pretty bytes.Buffer
		if json.Indent(&pretty, raw, "", "  ") == nil {
			_, err = f.writer.Write(append(pretty.Bytes(), '\n'))
			return err
		}
	}
	_, err = fmt.Fprintln(f.writer, string(raw))
	return err
}

// PrintValue renders an extracted value: strings bare, everything else as JSON.
func (f *ConsoleFormatter) PrintValue(value any) {
	if s, ok := value.(string); ok {
		fmt.Fprintln(f.writer, s)
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		fmt.Fprintf(f.writer, "%v\n", value)
		return
	}
	fmt.Fprintln(f.writer, string(data))
}
