package bench

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects outcomes. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	total     atomic.Int64
	success   atomic.Int64
	failure   atomic.Int64
	cancelled atomic.Int64

	// microseconds, 1us to 60s, 3 significant digits
	histogram *hdrhistogram.Histogram
	reasons   map[string]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		reasons:   make(map[string]int64),
	}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// Record adds one finished dispatch. reason is ignored for successes.
func (m *Metrics) Record(duration time.Duration, ok bool, reason string) {
	m.total.Add(1)

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latencyUs)

	if ok {
		m.success.Add(1)
		return
	}
	m.failure.Add(1)
	m.reasons[reason]++
}

// RecordCancelled counts a dispatch that never produced an outcome
func (m *Metrics) RecordCancelled() {
	m.total.Add(1)
	m.cancelled.Add(1)
}

// Reason is a failure message and how often it was seen
type Reason struct {
	Message string
	Count   int64
}

type Summary struct {
	Duration  time.Duration
	Total     int64
	Success   int64
	Failure   int64
	Cancelled int64

	RPS         float64
	SuccessRate float64

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration

	// Most frequent first
	Reasons []Reason
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	s := &Summary{
		Duration:  duration,
		Total:     m.total.Load(),
		Success:   m.success.Load(),
		Failure:   m.failure.Load(),
		Cancelled: m.cancelled.Load(),
	}
	if duration > 0 {
		s.RPS = float64(s.Total) / duration.Seconds()
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Success) / float64(s.Total)
	}

	if m.histogram.TotalCount() > 0 {
		s.P50 = us(m.histogram.ValueAtQuantile(50))
		s.P95 = us(m.histogram.ValueAtQuantile(95))
		s.P99 = us(m.histogram.ValueAtQuantile(99))
		s.Min = us(m.histogram.Min())
		s.Max = us(m.histogram.Max())
		s.Mean = time.Duration(m.histogram.Mean()) * time.Microsecond
	}

	for msg, n := range m.reasons {
		s.Reasons = append(s.Reasons, Reason{Message: msg, Count: n})
	}
	sort.Slice(s.Reasons, func(i, j int) bool {
		if s.Reasons[i].Count != s.Reasons[j].Count {
			return s.Reasons[i].Count > s.Reasons[j].Count
		}
		return s.Reasons[i].Message < s.Reasons[j].Message
	})

	return s
}
