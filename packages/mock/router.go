package mock

import (
	"regexp"
	"strings"
	"time"
)

// Route represents a mock route
type Route struct {
	Method      string
	PathPattern string
	PathRegex   *regexp.Regexp
	Name        string
	Response    *RouteResponse
}

// RouteResponse represents a scripted HTTP response
type RouteResponse struct {
	StatusCode  int
	ContentType string
	Headers     map[string]string
	Body        string
	Delay       time.Duration
	RedirectTo  string
}

// Router matches incoming requests to routes
type Router struct {
	routes []*Route
}

// NewRouter creates a new router
func NewRouter() *Router {
	return &Router{
		routes: make([]*Route, 0),
	}
}

// AddRoute adds a route to the router
func (r *Router) AddRoute(route *Route) {
	r.routes = append(r.routes, route)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	return r.routes
}

// Match finds a route matching the given method and path. The returned map
// holds captured :param segments.
func (r *Router) Match(method, path string) (*Route, map[string]string) {
	path = normalizePath(path)

	for _, route := range r.routes {
		if !strings.EqualFold(route.Method, method) {
			continue
		}

		if params := matchPath(route, path); params != nil {
			return route, params
		}
	}

	return nil, nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// Remove trailing slash (except for root)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

func matchPath(route *Route, path string) map[string]string {
	if route.PathRegex != nil {
		matches := route.PathRegex.FindStringSubmatch(path)
		if matches != nil {
			params := make(map[string]string)
			names := route.PathRegex.SubexpNames()
			for i, name := range names {
				if i > 0 && name != "" && i < len(matches) {
					params[name] = matches[i]
				}
			}
			return params
		}
	}

	if route.PathPattern == path {
		return make(map[string]string)
	}

	return nil
}

var paramSegment = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)`)

// createPathRegex converts :param segments to named capture groups
func createPathRegex(pattern string) *regexp.Regexp {
	regexPattern := paramSegment.ReplaceAllString(pattern, `(?P<$1>[^/]+)`)

	regex, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		// Fallback to literal match
		return regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
	}
	return regex
}
