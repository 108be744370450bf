package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

// JSONResponse is the machine-readable shape of one response.
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	URL        string            `json:"url"`
	DurationMs int64             `json:"durationMs"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	BodyText   string            `json:"bodyText,omitempty"`
}

// JSONFormatter prints responses as one JSON document, for piping into jq
// or scripts.
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// PrintResponse writes the response as an indented JSON document. JSON
// bodies are embedded verbatim, everything else lands in bodyText.
func (f *JSONFormatter) PrintResponse(resp *client.Response) error {
	raw, err := resp.Bytes()
	if err != nil {
		return err
	}

	out := JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        resp.URL,
		DurationMs: resp.DurationMs(),
		Headers:    resp.Headers,
	}
	if json.Valid(raw) {
		out.Body = json.RawMessage(raw)
	} else if len(raw) > 0 {
		out.BodyText = string(raw)
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// PrintValue writes an extracted value as JSON.
func (f *JSONFormatter) PrintValue(value any) {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	_ = enc.Encode(value)
}
