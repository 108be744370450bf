package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequest_BuildURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		params map[string]string
		want   string
	}{
		{
			name: "no params",
			url:  "https://example.com/users",
			want: "https://example.com/users",
		},
		{
			name:   "single param",
			url:    "https://example.com/users",
			params: map[string]string{"page": "2"},
			want:   "https://example.com/users?page=2",
		},
		{
			name:   "merged with existing query",
			url:    "https://example.com/users?sort=asc",
			params: map[string]string{"page": "2"},
			want:   "https://example.com/users?page=2&sort=asc",
		},
		{
			name:   "values are escaped",
			url:    "https://example.com/search",
			params: map[string]string{"q": "a b&c"},
			want:   "https://example.com/search?q=a+b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRequest("GET", tt.url)
			for k, v := range tt.params {
				r.SetQueryParam(k, v)
			}
			assert.Equal(t, tt.want, r.BuildURL())
		})
	}
}

func TestRequest_BuilderChaining(t *testing.T) {
	r := NewRequest("POST", "https://example.com").
		SetHeader("X-Trace", "abc").
		SetBodyString(`{"a":1}`, "application/json").
		SetTimeout(2 * time.Second)

	assert.Equal(t, "abc", r.Headers["X-Trace"])
	assert.Equal(t, []byte(`{"a":1}`), r.Body)
	assert.Equal(t, "application/json", r.ContentType)
	assert.Equal(t, 2*time.Second, r.Timeout)
}

func TestRequest_BasicAuth(t *testing.T) {
	r := NewRequest("GET", "https://example.com").SetBasicAuth("user", "pass")
	// base64("user:pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", r.Headers["Authorization"])
}

func TestRequest_BearerAuth(t *testing.T) {
	r := NewRequest("GET", "https://example.com").SetBearerAuth("tok123")
	assert.Equal(t, "Bearer tok123", r.Headers["Authorization"])
}
