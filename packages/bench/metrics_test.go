package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSummary(t *testing.T) {
	m := NewMetrics()
	m.Start()

	for i := 0; i < 100; i++ {
		m.Record(time.Duration(i+1)*time.Millisecond, true, "")
	}
	m.Record(5*time.Millisecond, false, "request failed")
	m.Record(5*time.Millisecond, false, "request failed")
	m.Record(5*time.Millisecond, false, "invalid JSON response")
	m.RecordCancelled()

	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(104), s.Total)
	assert.Equal(t, int64(100), s.Success)
	assert.Equal(t, int64(3), s.Failure)
	assert.Equal(t, int64(1), s.Cancelled)
	assert.InDelta(t, 100.0/104.0, s.SuccessRate, 0.001)

	assert.True(t, s.P50 > 0)
	assert.True(t, s.P95 >= s.P50)
	assert.True(t, s.P99 >= s.P95)
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(50*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))

	require.Len(t, s.Reasons, 2)
	assert.Equal(t, Reason{Message: "request failed", Count: 2}, s.Reasons[0])
	assert.Equal(t, Reason{Message: "invalid JSON response", Count: 1}, s.Reasons[1])
}

func TestMetricsClampsLatency(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Record(0, true, "")
	m.Record(2*time.Minute, true, "")
	m.Stop()

	s := m.Summary()
	assert.Equal(t, time.Microsecond, s.Min)
	assert.InDelta(t, float64(60*time.Second), float64(s.Max), float64(100*time.Millisecond))
}

func TestMetricsEmpty(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(0), s.Total)
	assert.Equal(t, time.Duration(0), s.P99)
	assert.Empty(t, s.Reasons)
}
