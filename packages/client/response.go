package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrBodyConsumed is returned when a response body is read a second time.
// Bodies are not rewindable.
var ErrBodyConsumed = errors.New("response body already consumed")

// Response is handed to the consumer while the exchange is still open. The
// body may be read exactly once, either through Body or through Bytes. The
// client owns the underlying connection; consumers must not retain the
// response beyond the call.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	URL        string
	Duration   time.Duration

	body     io.Reader
	raw      []byte
	buffered bool
}

// NewBufferedResponse builds an already-consumed response, mainly for tests
// and for callers that obtained a body elsewhere.
func NewBufferedResponse(statusCode int, headers map[string]string, body []byte) *Response {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Headers:    headers,
		raw:        body,
		buffered:   true,
	}
}

// Body returns the streaming body reader, or nil once the body has been
// buffered or the exchange closed.
func (r *Response) Body() io.Reader {
	if r.buffered {
		return strings.NewReader(string(r.raw))
	}
	return r.body
}

// Bytes reads the whole body and caches it, so later calls (and calls after
// the exchange closes) keep working. Mixing Bytes with direct Body reads
// returns ErrBodyConsumed.
func (r *Response) Bytes() ([]byte, error) {
	if r.buffered {
		return r.raw, nil
	}
	if r.body == nil {
		return nil, ErrBodyConsumed
	}
	raw, err := io.ReadAll(r.body)
	if err != nil {
		return nil, err
	}
	r.raw = raw
	r.buffered = true
	r.body = nil
	return raw, nil
}

func (r *Response) BodyString() (string, error) {
	raw, err := r.Bytes()
	return string(raw), err
}

func (r *Response) BodyJSON() (any, error) {
	raw, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Header looks up a header value case-insensitively.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// close detaches the streaming body so a leaked *Response cannot touch the
// connection after Execute returns.
func (r *Response) close() {
	r.body = nil
}
