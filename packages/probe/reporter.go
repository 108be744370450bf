package probe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Reporter prints probe progress and summaries
type Reporter struct {
	writer  io.Writer
	noColor bool

	green *color.Color
	red   *color.Color
	cyan  *color.Color
	bold  *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	color.NoColor = r.noColor
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)

	return r
}

// Header prints the probe header
func (r *Reporter) Header(target string, config *Config) {
	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Probing: %s\n", target)

	if config.Rate > 0 {
		fmt.Fprintf(r.writer, "Rate: %.0f req/s | ", config.Rate)
	}
	if config.Count > 0 {
		fmt.Fprintf(r.writer, "Count: %d | ", config.Count)
	}
	if config.Duration > 0 {
		fmt.Fprintf(r.writer, "Duration: %s | ", config.Duration)
	}
	fmt.Fprintf(r.writer, "Concurrency: %d\n\n", config.Concurrency)
}

// Print prints the final summary
func (r *Reporter) Print(s *Summary) {
	fmt.Fprintf(r.writer, "Requests: ")
	r.bold.Fprintf(r.writer, "%d", s.Total)
	fmt.Fprintf(r.writer, " total | ")
	r.green.Fprintf(r.writer, "%d", s.Success)
	fmt.Fprintf(r.writer, " success | ")
	if s.Errors > 0 {
		r.red.Fprintf(r.writer, "%d", s.Errors)
	} else {
		fmt.Fprintf(r.writer, "%d", s.Errors)
	}
	fmt.Fprintf(r.writer, " errors (%d timeouts)\n", s.Timeouts)

	fmt.Fprintf(r.writer, "Rate: ")
	r.cyan.Fprintf(r.writer, "%.1f", s.RPS)
	fmt.Fprintf(r.writer, " req/s over %s\n", formatDuration(s.Elapsed))

	fmt.Fprintf(r.writer, "Latency: p50: %s | p95: %s | p99: %s | max: %s\n",
		formatLatency(s.P50),
		formatLatency(s.P95),
		formatLatency(s.P99),
		formatLatency(s.Max))
}

func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(time.Millisecond).String()
}

func formatLatency(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
