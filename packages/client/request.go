package client

import (
	"encoding/base64"
	"net/url"
	"time"
)

// Request describes a single HTTP exchange. Bodies are held as bytes so a
// redirect can replay them; streaming request bodies are out of scope.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        []byte
	ContentType string
	Multipart   []Part
	Timeout     time.Duration
	BaseDir     string // Base directory for resolving relative file part paths
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:      method,
		URL:         requestURL,
		Headers:     make(map[string]string),
		QueryParams: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body []byte, contentType string) *Request {
	r.Body = body
	r.ContentType = contentType
	return r
}

func (r *Request) SetBodyString(body, contentType string) *Request {
	return r.SetBody([]byte(body), contentType)
}

// SetTimeout sets a per-request total budget overriding the client's.
func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

func (r *Request) SetQueryParam(key, value string) *Request {
	r.QueryParams[key] = value
	return r
}

// AddPart appends a multipart part. A request with parts ignores Body.
func (r *Request) AddPart(p Part) *Request {
	r.Multipart = append(r.Multipart, p)
	return r
}

// SetBasicAuth sets an Authorization header with basic credentials.
func (r *Request) SetBasicAuth(username, password string) *Request {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return r.SetHeader("Authorization", "Basic "+creds)
}

// SetBearerAuth sets an Authorization header with a bearer token.
func (r *Request) SetBearerAuth(token string) *Request {
	return r.SetHeader("Authorization", "Bearer "+token)
}

// BuildURL returns the target URL with query parameters merged in.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for k, v := range r.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
