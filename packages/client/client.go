package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/itsJohnCnstn/httpcall/packages/redirect"
)

const (
	// DefaultTotalTimeout is the default budget for a whole call
	DefaultTotalTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default budget for connection establishment
	DefaultConnectTimeout = 10 * time.Second
	// DefaultInactivityTimeout is the default budget between two received data chunks
	DefaultInactivityTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultUserAgent is sent when no User-Agent header is set
	DefaultUserAgent = "httpcall"
)

// maxDrainBytes caps how much of an unread body is drained before close so
// the connection can go back to the pool.
const maxDrainBytes = 256 << 10

// errTotalBudget is the cancellation cause installed by the watchdog timer.
var errTotalBudget = errors.New("total budget watchdog fired")

// Consumer receives the open response exactly once; its result becomes the
// result of the whole call. A consumer error propagates unchanged after
// resources are released, with no retry.
type Consumer[T any] func(*Response) (T, error)

// Exchange is the summary handed to a Recorder after each completed call.
type Exchange struct {
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Recorder observes completed exchanges, e.g. to persist a history.
type Recorder interface {
	Record(Exchange)
}

type Client struct {
	httpClient        *http.Client
	connectTimeout    time.Duration
	inactivityTimeout time.Duration
	totalTimeout      time.Duration
	policy            redirect.Policy
	maxRedirects      int
	validateSSL       bool
	proxyURL          string
	userAgent         string
	defaultHeaders    map[string]string
	recorder          Recorder
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		connectTimeout:    DefaultConnectTimeout,
		inactivityTimeout: DefaultInactivityTimeout,
		totalTimeout:      DefaultTotalTimeout,
		policy:            redirect.Strict(),
		maxRedirects:      DefaultMaxRedirects,
		validateSSL:       true,
		userAgent:         DefaultUserAgent,
		defaultHeaders:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{
		Transport: newTransport(c.connectTimeout, c.inactivityTimeout, c.validateSSL, c.proxyURL),
		// Redirects are decided by the policy in the execute loop.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return c
}

// WithConnectTimeout bounds connection establishment. Zero disables it.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithInactivityTimeout bounds the gap between two received data chunks.
// Zero disables it.
func WithInactivityTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.inactivityTimeout = d
	}
}

// WithTotalTimeout bounds the whole call from submission to completion,
// independent of activity. Zero disables it.
func WithTotalTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.totalTimeout = d
	}
}

// WithRedirectPolicy sets the redirect policy for all requests.
func WithRedirectPolicy(p redirect.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRecorder registers a recorder observing every completed exchange.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// Execute sends req and invokes consume with the open response. The response
// body and underlying connection are released on every exit path; the
// consumer's return value, or its error, becomes the result of the call.
func Execute[T any](ctx context.Context, c *Client, req *Request, consume Consumer[T]) (T, error) {
	var zero T

	ex, err := c.open(ctx, req)
	if err != nil {
		c.record(req, nil, err)
		return zero, err
	}
	defer ex.release()

	out, err := consume(ex.resp)
	if err != nil {
		err = ex.classify(err)
		c.record(req, ex.resp, err)
		return zero, err
	}

	c.record(req, ex.resp, nil)
	return out, nil
}

// Do sends req and returns a fully-buffered response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return Execute(ctx, c, req, func(resp *Response) (*Response, error) {
		if _, err := resp.Bytes(); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req := NewRequest(http.MethodGet, url)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return c.Do(ctx, req)
}

func (c *Client) Post(ctx context.Context, url string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	req := NewRequest(http.MethodPost, url).SetBody(body, contentType)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return c.Do(ctx, req)
}

// FailOnStatus wraps a consumer so any status >= 400 fails the call with a
// StatusError before the inner consumer runs.
func FailOnStatus[T any](consume Consumer[T]) Consumer[T] {
	return func(resp *Response) (T, error) {
		if resp.StatusCode >= 400 {
			var zero T
			return zero, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: resp.URL}
		}
		return consume(resp)
	}
}

// exchange tracks the resources of one in-flight call: the open body, the
// watchdog timer, and the cancelable context.
type exchange struct {
	resp     *Response
	body     io.ReadCloser
	watchdog *time.Timer
	cancel   context.CancelCauseFunc
	ctx      context.Context
	method   string
	url      string
}

func (ex *exchange) release() {
	if ex.watchdog != nil {
		ex.watchdog.Stop()
	}
	if ex.body != nil {
		// Drain a bounded amount so the connection can be reused; anything
		// larger is cheaper to close.
		_, _ = io.Copy(io.Discard, io.LimitReader(ex.body, maxDrainBytes))
		_ = ex.body.Close()
	}
	ex.resp.close()
	ex.cancel(nil)
}

// classify converts timeout markers raised while the consumer was reading
// the body into the typed taxonomy; unrelated consumer errors pass through.
// The watchdog cause alone is not enough to reclassify: the timer may fire
// while the consumer fails for reasons of its own, and that error must not
// be masked as a timeout.
func (ex *exchange) classify(err error) error {
	var inact *inactivityTimeout
	if errors.As(err, &inact) {
		return newTimeoutError(BudgetInactivity, ex.method, ex.url, inact)
	}
	if errors.Is(context.Cause(ex.ctx), errTotalBudget) && isAborted(err) {
		return newTimeoutError(BudgetTotal, ex.method, ex.url, errTotalBudget)
	}
	return err
}

// isAborted reports whether err came from the in-flight request being torn
// down rather than from the consumer's own logic.
func isAborted(err error) bool {
	if errors.Is(err, errTotalBudget) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) open(ctx context.Context, req *Request) (*exchange, error) {
	target := req.BuildURL()
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	bodyBytes, contentType, err := c.buildBody(req)
	if err != nil {
		return nil, err
	}

	total := c.totalTimeout
	if req.Timeout > 0 {
		total = req.Timeout
	}

	// Watchdog: scheduled at submission, aborts the in-flight request when
	// the total budget elapses, stopped on completion. Whichever of the two
	// loses the race is a no-op.
	ctx, cancel := context.WithCancelCause(ctx)
	var watchdog *time.Timer
	if total > 0 {
		watchdog = time.AfterFunc(total, func() {
			cancel(errTotalBudget)
		})
	}

	fail := func(err error) (*exchange, error) {
		if watchdog != nil {
			watchdog.Stop()
		}
		cancel(nil)
		return nil, err
	}

	method := req.Method
	start := time.Now()

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if len(bodyBytes) > 0 && method != http.MethodGet && method != http.MethodHead {
			body = bytes.NewReader(bodyBytes)
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return fail(&TransportError{Op: method, URL: target, Err: err})
		}

		c.applyHeaders(httpReq, req, contentType, body != nil)

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fail(c.classifyTransport(ctx, err, method, target))
		}

		location := resolveLocation(httpReq.URL, httpResp.Header.Get("Location"))
		decision := c.policy.Decide(method, httpResp.StatusCode, location)
		if !decision.Follow || attempt >= c.maxRedirects {
			headers := make(map[string]string)
			for k := range httpResp.Header {
				headers[k] = httpResp.Header.Get(k)
			}
			resp := &Response{
				StatusCode: httpResp.StatusCode,
				Status:     httpResp.Status,
				Headers:    headers,
				URL:        target,
				Duration:   time.Since(start),
				body:       httpResp.Body,
			}
			return &exchange{
				resp:     resp,
				body:     httpResp.Body,
				watchdog: watchdog,
				cancel:   cancel,
				ctx:      ctx,
				method:   method,
				url:      target,
			}, nil
		}

		// Drop this hop's body so its connection goes back to the pool.
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxDrainBytes))
		_ = httpResp.Body.Close()

		method = decision.Method
		target = decision.URL.String()
	}
}

func (c *Client) buildBody(req *Request) ([]byte, string, error) {
	if len(req.Multipart) > 0 {
		buf, contentType, err := BuildMultipartBody(req.Multipart, req.BaseDir)
		if err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentType, nil
	}
	return req.Body, req.ContentType, nil
}

func (c *Client) applyHeaders(httpReq *http.Request, req *Request, contentType string, hasBody bool) {
	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	// The built content type wins: the multipart boundary lives in it.
	if contentType != "" && hasBody {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !hasBody {
		httpReq.Header.Del("Content-Type")
	}
}

func (c *Client) classifyTransport(ctx context.Context, err error, op, url string) error {
	if errors.Is(context.Cause(ctx), errTotalBudget) {
		return newTimeoutError(BudgetTotal, op, url, errTotalBudget)
	}
	var inact *inactivityTimeout
	if errors.As(err, &inact) {
		return newTimeoutError(BudgetInactivity, op, url, inact)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout() {
		return newTimeoutError(BudgetConnect, op, url, err)
	}
	return &TransportError{Op: op, URL: url, Err: err}
}

func (c *Client) record(req *Request, resp *Response, err error) {
	if c.recorder == nil {
		return
	}
	ex := Exchange{Method: req.Method, URL: req.BuildURL(), Err: err}
	if resp != nil {
		ex.StatusCode = resp.StatusCode
		ex.Duration = resp.Duration
	}
	c.recorder.Record(ex)
}

func resolveLocation(base *neturl.URL, location string) *neturl.URL {
	if location == "" {
		return nil
	}
	target, err := neturl.Parse(location)
	if err != nil {
		return nil
	}
	return base.ResolveReference(target)
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
