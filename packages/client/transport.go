package client

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	neturl "net/url"
	"time"
)

const (
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// newTransport builds the http.Transport used by a Client. The connect
// budget bounds dialing; the inactivity budget is enforced by wrapping every
// dialed connection so each Read arms a fresh deadline.
func newTransport(connectTimeout, inactivityTimeout time.Duration, validateSSL bool, proxyURL string) *http.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if inactivityTimeout > 0 {
				conn = &inactivityConn{Conn: conn, budget: inactivityTimeout}
			}
			return conn, nil
		},
	}

	if !validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if proxyURL != "" {
		proxy, err := neturl.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	return transport
}

// inactivityConn bounds the gap between two received data chunks. Each Read
// resets the deadline, so a slow-but-steady stream is fine while a stalled
// peer trips the budget.
type inactivityConn struct {
	net.Conn
	budget time.Duration
}

func (c *inactivityConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.budget)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(b)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			err = &inactivityTimeout{err: err}
		}
	}
	return n, err
}

// inactivityTimeout marks a read-deadline expiry so the client can tell an
// inactivity timeout apart from other net errors.
type inactivityTimeout struct {
	err error
}

func (e *inactivityTimeout) Error() string {
	return "inactivity deadline exceeded: " + e.err.Error()
}

func (e *inactivityTimeout) Unwrap() error {
	return e.err
}

func (e *inactivityTimeout) Timeout() bool {
	return true
}
