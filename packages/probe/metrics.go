package probe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics collects latency and outcome counts across probe requests
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a metrics collector covering 1us..10min latencies
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

func (m *Metrics) Start() {
	m.startTime = time.Now()
}

func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// RecordSuccess records a completed request with its latency
func (m *Metrics) RecordSuccess(latency time.Duration) {
	m.totalRequests.Add(1)
	m.successRequests.Add(1)
	m.recordLatency(latency)
}

// RecordError records a failed request; timeout distinguishes budget
// exhaustion from other transport failures
func (m *Metrics) RecordError(timeout bool) {
	m.totalRequests.Add(1)
	m.errorRequests.Add(1)
	if timeout {
		m.timeoutRequests.Add(1)
	}
}

func (m *Metrics) recordLatency(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latency.Microseconds())
}

// Summary is the aggregated result of a probe run
type Summary struct {
	Total    int64
	Success  int64
	Errors   int64
	Timeouts int64
	Elapsed  time.Duration
	RPS      float64
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Max      time.Duration
}

// Summarize snapshots the collected metrics
func (m *Metrics) Summarize() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.endTime
	if end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(m.startTime)

	s := &Summary{
		Total:    m.totalRequests.Load(),
		Success:  m.successRequests.Load(),
		Errors:   m.errorRequests.Load(),
		Timeouts: m.timeoutRequests.Load(),
		Elapsed:  elapsed,
		P50:      time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:      time.Duration(m.histogram.Max()) * time.Microsecond,
	}
	if elapsed > 0 {
		s.RPS = float64(s.Total) / elapsed.Seconds()
	}
	return s
}
