// Package probe fires repeated requests at a target to measure latency
// percentiles and spot connection leaks or timeout misconfiguration.
package probe

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

// Config controls a probe run
type Config struct {
	Rate        float64       // requests per second, 0 = unthrottled
	Duration    time.Duration // wall-clock budget, 0 = run until Count
	Count       int           // total requests, 0 = run until Duration
	Concurrency int           // in-flight cap, defaults to 10
}

// Runner executes probe runs
type Runner struct {
	config   *Config
	client   *client.Client
	metrics  *Metrics
	reporter *Reporter
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithClient sets the HTTP client
func WithClient(c *client.Client) RunnerOption {
	return func(r *Runner) {
		r.client = c
	}
}

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// NewRunner creates a new probe runner
func NewRunner(config *Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:  config,
		metrics: NewMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = client.NewClient()
	}
	if r.reporter == nil {
		r.reporter = NewReporter()
	}

	return r
}

// Run issues requests built by makeReq until the configured count or
// duration is reached, then returns the aggregated summary. Each request is
// fully consumed so connections return to the pool between iterations.
func (r *Runner) Run(ctx context.Context, makeReq func() *client.Request) (*Summary, error) {
	if r.config.Count <= 0 && r.config.Duration <= 0 {
		return nil, errors.New("probe config needs a count or a duration")
	}

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}

	concurrency := r.config.Concurrency
	if concurrency < 1 {
		concurrency = 10
	}
	sem := make(chan struct{}, concurrency)

	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.metrics.Start()
	defer r.metrics.Stop()

	var wg sync.WaitGroup
	issued := 0

loop:
	for r.config.Count <= 0 || issued < r.config.Count {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		issued++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.issue(ctx, makeReq())
		}()
	}

	wg.Wait()
	r.metrics.Stop()
	return r.metrics.Summarize(), nil
}

func (r *Runner) issue(ctx context.Context, req *client.Request) {
	start := time.Now()
	if _, err := r.client.Do(ctx, req); err != nil {
		var timeoutErr *client.TimeoutError
		r.metrics.RecordError(errors.As(err, &timeoutErr))
		return
	}
	r.metrics.RecordSuccess(time.Since(start))
}
