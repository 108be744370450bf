package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsJohnCnstn/httpcall/packages/redirect"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	c := NewClient()
	resp, err := c.Get(context.Background(), server.URL+"/test", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	body, err := resp.BodyString()
	require.NoError(t, err)
	assert.Contains(t, body, "hello")
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	c := NewClient()
	resp, err := c.Post(context.Background(), server.URL, []byte(`{"name": "test"}`), "application/json", nil)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	body, err := resp.BodyString()
	require.NoError(t, err)
	assert.Contains(t, body, "123")
}

func TestExecute_ConsumerResultPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	c := NewClient()
	length, err := Execute(context.Background(), c, NewRequest("GET", server.URL), func(resp *Response) (int, error) {
		raw, err := resp.Bytes()
		if err != nil {
			return 0, err
		}
		return len(raw), nil
	})

	require.NoError(t, err)
	assert.Equal(t, len("payload"), length)
}

func TestExecute_ConsumerErrorPropagatesAndReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ignored"))
	}))
	defer server.Close()

	c := NewClient()
	wantErr := errors.New("consumer rejected response")

	_, err := Execute(context.Background(), c, NewRequest("GET", server.URL), func(*Response) (string, error) {
		return "", wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// The connection must have been released: a follow-up call works.
	resp, err := c.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestExecute_ConsumerErrorNotMaskedByWatchdog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"broken":`)) // response arrives fine, validation fails
	}))
	defer server.Close()

	c := NewClient(WithTotalTimeout(20 * time.Millisecond))
	wantErr := errors.New("body failed validation")

	// The consumer outlives the total budget, so the watchdog fires while it
	// runs. Its own failure has nothing to do with the request teardown and
	// must come back untouched.
	_, err := Execute(context.Background(), c, NewRequest("GET", server.URL), func(*Response) (string, error) {
		time.Sleep(60 * time.Millisecond)
		return "", wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestExecute_ConsumerRunsOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	calls := 0
	c := NewClient()
	_, err := Execute(context.Background(), c, NewRequest("GET", server.URL), func(resp *Response) (struct{}, error) {
		calls++
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// redirectingServer answers /short with a redirect to /long and records every
// request it sees.
type redirectingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string // "METHOD /path"
	bodies   []string
}

func newRedirectingServer(t *testing.T, status int) *redirectingServer {
	t.Helper()
	rs := &redirectingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Method+" "+r.URL.Path)
		rs.bodies = append(rs.bodies, string(body))
		rs.mu.Unlock()

		if r.URL.Path == "/short" {
			w.Header().Set("Location", "/long")
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("landed"))
	}))
	t.Cleanup(rs.Server.Close)
	return rs
}

func (rs *redirectingServer) seen() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.requests...)
}

func TestClient_StrictPolicy_DoesNotFollowPOST(t *testing.T) {
	for _, status := range []int{301, 302} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			rs := newRedirectingServer(t, status)

			c := NewClient(WithRedirectPolicy(redirect.Strict()))
			resp, err := c.Post(context.Background(), rs.URL+"/short", []byte("data"), "text/plain", nil)

			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, "/long", resp.Header("Location"))
			assert.Equal(t, []string{"POST /short"}, rs.seen())
		})
	}
}

func TestClient_LaxPolicy_FollowsPOSTWithMethodRetained(t *testing.T) {
	for _, status := range []int{301, 302} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			rs := newRedirectingServer(t, status)

			c := NewClient(WithRedirectPolicy(redirect.Lax()))
			resp, err := c.Post(context.Background(), rs.URL+"/short", []byte("data"), "text/plain", nil)

			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			body, err := resp.BodyString()
			require.NoError(t, err)
			assert.Equal(t, "landed", body)
			assert.Equal(t, []string{"POST /short", "POST /long"}, rs.seen())
			// The body is replayed on the second hop.
			assert.Equal(t, "data", rs.bodies[1])
		})
	}
}

func TestClient_SeeOther_SwitchesToGET(t *testing.T) {
	rs := newRedirectingServer(t, http.StatusSeeOther)

	c := NewClient(WithRedirectPolicy(redirect.Strict()))
	resp, err := c.Post(context.Background(), rs.URL+"/short", []byte("data"), "text/plain", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"POST /short", "GET /long"}, rs.seen())
	// 303 means "retrieve the result": the body is not re-sent.
	assert.Empty(t, rs.bodies[1])
}

func TestClient_TemporaryAndPermanentRedirect_PreserveMethod(t *testing.T) {
	for _, status := range []int{307, 308} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			rs := newRedirectingServer(t, status)

			c := NewClient(WithRedirectPolicy(redirect.Strict()))
			resp, err := c.Post(context.Background(), rs.URL+"/short", []byte("data"), "text/plain", nil)

			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, []string{"POST /short", "POST /long"}, rs.seen())
			assert.Equal(t, "data", rs.bodies[1])
		})
	}
}

func TestClient_NonePolicy_SurfacesRedirect(t *testing.T) {
	rs := newRedirectingServer(t, http.StatusFound)

	c := NewClient(WithRedirectPolicy(redirect.None()))
	resp, err := c.Get(context.Background(), rs.URL+"/short", nil)

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/long", resp.Header("Location"))
	assert.Equal(t, []string{"GET /short"}, rs.seen())
}

func TestClient_RedirectWithoutLocation_ReturnedUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	c := NewClient()
	resp, err := c.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, 301, resp.StatusCode)
	assert.Empty(t, resp.Header("Location"))
}

func TestClient_MaxRedirects(t *testing.T) {
	var count int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	c := NewClient(WithMaxRedirects(3))
	resp, err := c.Get(context.Background(), server.URL+"/loop", nil)

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, count)
}

func TestClient_TotalTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(WithTotalTimeout(50 * time.Millisecond))

	// Repeated calls must keep failing cleanly: a leaked connection or
	// watchdog would wedge later attempts.
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), server.URL, nil)
		require.Error(t, err, "attempt %d", i)

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr, "attempt %d", i)
		assert.Equal(t, BudgetTotal, timeoutErr.Budget)

		var transportErr *TransportError
		assert.ErrorAs(t, err, &transportErr)
	}
}

func TestClient_TotalTimeout_PerRequestOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(WithTotalTimeout(5 * time.Second))
	req := NewRequest("GET", server.URL).SetTimeout(50 * time.Millisecond)

	_, err := c.Do(context.Background(), req)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, BudgetTotal, timeoutErr.Budget)
}

func TestClient_InactivityTimeout_SlowFirstByte(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(
		WithInactivityTimeout(50*time.Millisecond),
		WithTotalTimeout(5*time.Second),
	)
	_, err := c.Get(context.Background(), server.URL, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, BudgetInactivity, timeoutErr.Budget)
}

func TestClient_InactivityTimeout_StalledBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("first chunk"))
		w.(http.Flusher).Flush()
		time.Sleep(400 * time.Millisecond)
		_, _ = w.Write([]byte("second chunk"))
	}))
	defer server.Close()

	c := NewClient(
		WithInactivityTimeout(50*time.Millisecond),
		WithTotalTimeout(5*time.Second),
	)
	_, err := c.Get(context.Background(), server.URL, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, BudgetInactivity, timeoutErr.Budget)
}

func TestClient_ConnectFailure_IsTransportError(t *testing.T) {
	// Grab a port nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := NewClient(WithTotalTimeout(2 * time.Second))
	_, err = c.Get(context.Background(), "http://"+addr, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestClient_CallerContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	c := NewClient()
	_, err := c.Get(ctx, server.URL, nil)

	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr), "caller cancellation is not a timeout")
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(WithDefaultHeaders(map[string]string{
		"Authorization": "test-token",
		"User-Agent":    "custom-agent",
	}))
	resp, err := c.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_DefaultUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient()
	_, err := c.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
}

func TestFailOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewClient()
	_, err := Execute(context.Background(), c, NewRequest("GET", server.URL), FailOnStatus(func(resp *Response) (string, error) {
		t.Fatal("consumer must not run on failing status")
		return "", nil
	}))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
}

type recordedExchanges struct {
	mu        sync.Mutex
	exchanges []Exchange
}

func (r *recordedExchanges) Record(ex Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, ex)
}

func TestClient_RecorderObservesExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	rec := &recordedExchanges{}
	c := NewClient(WithRecorder(rec))

	_, err := c.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "http://127.0.0.1:1", nil)
	require.Error(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.exchanges, 2)
	assert.Equal(t, 418, rec.exchanges[0].StatusCode)
	assert.NoError(t, rec.exchanges[0].Err)
	assert.Error(t, rec.exchanges[1].Err)
}

func TestClassifyTransport_ConnectTimeout(t *testing.T) {
	c := NewClient()
	dialErr := &net.OpError{
		Op:  "dial",
		Err: &timeoutNetError{},
	}

	err := c.classifyTransport(context.Background(), dialErr, "GET", "http://example.com")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, BudgetConnect, timeoutErr.Budget)
}

type timeoutNetError struct{}

func (*timeoutNetError) Error() string   { return "i/o timeout" }
func (*timeoutNetError) Timeout() bool   { return true }
func (*timeoutNetError) Temporary() bool { return true }

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
