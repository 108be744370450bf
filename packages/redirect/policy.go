package redirect

import (
	"net/http"
	"net/url"
)

// Decision is the outcome of asking a policy about a single response.
// When Follow is false the response is returned to the caller as-is.
type Decision struct {
	Follow bool
	Method string
	URL    *url.URL
}

// Policy decides whether a redirect response should be followed
// automatically. location is the resolved Location target, or nil when the
// response carried no Location header.
type Policy interface {
	Decide(method string, status int, location *url.URL) Decision
	Name() string
}

type policyFunc struct {
	name   string
	decide func(method string, status int, location *url.URL) Decision
}

func (p policyFunc) Decide(method string, status int, location *url.URL) Decision {
	return p.decide(method, status, location)
}

func (p policyFunc) Name() string {
	return p.name
}

// Strict returns the default policy: 303 switches to GET, 307/308 keep the
// original method, and 301/302 are followed only for GET and HEAD. The
// 301/302 restriction exists because those statuses were historically
// ambiguous about method preservation, so re-issuing a non-idempotent
// request automatically is unsafe.
func Strict() Policy {
	return policyFunc{name: "strict", decide: func(method string, status int, location *url.URL) Decision {
		if location == nil {
			return Decision{}
		}
		switch status {
		case http.StatusMovedPermanently, http.StatusFound:
			if method == http.MethodGet || method == http.MethodHead {
				return Decision{Follow: true, Method: method, URL: location}
			}
			return Decision{}
		default:
			return decideCommon(method, status, location)
		}
	}}
}

// Lax returns a policy that additionally follows 301/302 with the original
// method, the behavior needed to make a redirected POST reach its final
// target.
func Lax() Policy {
	return policyFunc{name: "lax", decide: func(method string, status int, location *url.URL) Decision {
		if location == nil {
			return Decision{}
		}
		switch status {
		case http.StatusMovedPermanently, http.StatusFound:
			return Decision{Follow: true, Method: method, URL: location}
		default:
			return decideCommon(method, status, location)
		}
	}}
}

// None returns a policy that never follows. Every 3xx response is surfaced
// to the caller with its Location header intact, which is how a caller
// inspects a redirect without triggering it.
func None() Policy {
	return policyFunc{name: "none", decide: func(string, int, *url.URL) Decision {
		return Decision{}
	}}
}

// ByName maps a policy name ("strict", "lax", "none") to its policy.
// Unknown names fall back to Strict.
func ByName(name string) Policy {
	switch name {
	case "lax":
		return Lax()
	case "none":
		return None()
	default:
		return Strict()
	}
}

func decideCommon(method string, status int, location *url.URL) Decision {
	switch status {
	case http.StatusSeeOther:
		// 303 means "retrieve the result with GET" regardless of the
		// original method.
		return Decision{Follow: true, Method: http.MethodGet, URL: location}
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return Decision{Follow: true, Method: method, URL: location}
	default:
		return Decision{}
	}
}
