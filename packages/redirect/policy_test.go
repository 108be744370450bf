package redirect

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestStrict_Decide(t *testing.T) {
	target := mustParse(t, "https://example.com/long")

	tests := []struct {
		name       string
		method     string
		status     int
		wantFollow bool
		wantMethod string
	}{
		{"GET on 301", "GET", 301, true, "GET"},
		{"HEAD on 302", "HEAD", 302, true, "HEAD"},
		{"POST on 301 refused", "POST", 301, false, ""},
		{"POST on 302 refused", "POST", 302, false, ""},
		{"DELETE on 302 refused", "DELETE", 302, false, ""},
		{"POST on 303 switches to GET", "POST", 303, true, "GET"},
		{"PUT on 303 switches to GET", "PUT", 303, true, "GET"},
		{"POST on 307 keeps method", "POST", 307, true, "POST"},
		{"POST on 308 keeps method", "POST", 308, true, "POST"},
		{"GET on 200 not a redirect", "GET", 200, false, ""},
		{"GET on 404 not a redirect", "GET", 404, false, ""},
	}

	p := Strict()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.method, tt.status, target)
			assert.Equal(t, tt.wantFollow, d.Follow)
			if tt.wantFollow {
				assert.Equal(t, tt.wantMethod, d.Method)
				assert.Equal(t, target, d.URL)
			}
		})
	}
}

func TestLax_Decide(t *testing.T) {
	target := mustParse(t, "https://example.com/long")

	tests := []struct {
		name       string
		method     string
		status     int
		wantFollow bool
		wantMethod string
	}{
		{"POST on 301 keeps method", "POST", 301, true, "POST"},
		{"POST on 302 keeps method", "POST", 302, true, "POST"},
		{"PUT on 302 keeps method", "PUT", 302, true, "PUT"},
		{"POST on 303 still switches to GET", "POST", 303, true, "GET"},
		{"POST on 307 keeps method", "POST", 307, true, "POST"},
		{"POST on 308 keeps method", "POST", 308, true, "POST"},
	}

	p := Lax()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.method, tt.status, target)
			assert.Equal(t, tt.wantFollow, d.Follow)
			assert.Equal(t, tt.wantMethod, d.Method)
		})
	}
}

func TestNone_NeverFollows(t *testing.T) {
	target := mustParse(t, "https://example.com/long")

	p := None()
	for _, status := range []int{301, 302, 303, 307, 308} {
		d := p.Decide("GET", status, target)
		assert.False(t, d.Follow, "status %d", status)
	}
}

func TestDecide_MissingLocation(t *testing.T) {
	for _, p := range []Policy{Strict(), Lax()} {
		for _, status := range []int{301, 302, 303, 307, 308} {
			d := p.Decide("GET", status, nil)
			assert.False(t, d.Follow, "policy %s status %d", p.Name(), status)
		}
	}
}

func TestByName(t *testing.T) {
	assert.Equal(t, "strict", ByName("strict").Name())
	assert.Equal(t, "lax", ByName("lax").Name())
	assert.Equal(t, "none", ByName("none").Name())
	assert.Equal(t, "strict", ByName("bogus").Name())
}
