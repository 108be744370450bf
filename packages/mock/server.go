// Package mock provides a scriptable HTTP server driven by YAML route files,
// useful for exercising redirect and timeout behavior locally.
package mock

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Server is a mock HTTP server serving scripted routes
type Server struct {
	mu      sync.RWMutex // guards router; watch mode reloads while handlers read
	router  *Router
	port    int
	delay   time.Duration
	verbose bool
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose enables verbose logging
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		router: NewRouter(),
		port:   3000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// routesFile is the YAML document listing routes.
type routesFile struct {
	Routes []routeSpec `yaml:"routes"`
}

type routeSpec struct {
	Name        string            `yaml:"name,omitempty"`
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Status      int               `yaml:"status,omitempty"`
	ContentType string            `yaml:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
	Delay       duration          `yaml:"delay,omitempty"`
	Redirect    string            `yaml:"redirect,omitempty"`
}

// duration lets route files write delays as "200ms" or "1.5s".
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

// LoadFile loads routes from a YAML file, replacing any previously loaded
// set so a watcher can reload in place.
func (s *Server) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading routes file %s: %w", path, err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing routes file %s: %w", path, err)
	}

	router := NewRouter()
	for i, spec := range file.Routes {
		route, err := createRoute(spec)
		if err != nil {
			return fmt.Errorf("route %d in %s: %w", i+1, path, err)
		}
		router.AddRoute(route)
	}

	s.mu.Lock()
	s.router = router
	s.mu.Unlock()
	return nil
}

func (s *Server) currentRouter() *Router {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

func createRoute(spec routeSpec) (*Route, error) {
	if spec.Method == "" {
		return nil, fmt.Errorf("missing method")
	}
	if !strings.HasPrefix(spec.Path, "/") {
		return nil, fmt.Errorf("path must start with /: %q", spec.Path)
	}

	resp := &RouteResponse{
		StatusCode:  spec.Status,
		ContentType: spec.ContentType,
		Headers:     spec.Headers,
		Body:        spec.Body,
		Delay:       time.Duration(spec.Delay),
		RedirectTo:  spec.Redirect,
	}
	if resp.StatusCode == 0 {
		if resp.RedirectTo != "" {
			resp.StatusCode = http.StatusFound
		} else {
			resp.StatusCode = http.StatusOK
		}
	}
	if resp.ContentType == "" && resp.Body != "" {
		resp.ContentType = "application/json"
	}

	return &Route{
		Method:      strings.ToUpper(spec.Method),
		PathPattern: spec.Path,
		PathRegex:   createPathRegex(spec.Path),
		Name:        spec.Name,
		Response:    resp,
	}, nil
}

// Handler returns the server's http.Handler, so tests can mount it on an
// httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// Start starts the mock server
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext starts the server with context for graceful shutdown
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	routes := s.currentRouter().Routes()
	log.Printf("Mock server starting on http://localhost:%d", s.port)
	log.Printf("Routes loaded: %d", len(routes))

	if s.verbose {
		for _, route := range routes {
			log.Printf("  %s %s -> %d", route.Method, route.PathPattern, route.Response.StatusCode)
		}
	}

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	route, params := s.currentRouter().Match(r.Method, r.URL.Path)

	if route == nil {
		if s.verbose {
			log.Printf("%s %s -> 404 Not Found (%s)", r.Method, r.URL.Path, time.Since(start))
		}
		http.NotFound(w, r)
		return
	}

	resp := route.Response

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if resp.RedirectTo != "" {
		w.Header().Set("Location", resolveParams(resp.RedirectTo, params))
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resolveParams(resp.Body, params)))
	}

	if s.verbose {
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, resp.StatusCode, time.Since(start))
	}
}

// resolveParams substitutes {{param}} placeholders with captured path params.
func resolveParams(input string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(input, "{{") {
		return input
	}
	for name, value := range params {
		input = strings.ReplaceAll(input, "{{"+name+"}}", value)
	}
	return input
}
