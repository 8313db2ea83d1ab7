package superdense

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mu             sync.RWMutex
	WorkerCount    int
	JobQueueSize   int
	Transmissions  int64
	Failures       int64
	Limited        int64
	ShotsSimulated int64
	TotalJobTime   time.Duration

	AverageJobLatency time.Duration
	P95JobLatency     time.Duration
	P99JobLatency     time.Duration
	JobSuccessRate    float64

	latencies  []time.Duration
	windowSize int
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000), // Store last 1000 measurements
		windowSize: 1000,
	}
}

func (m *Metrics) recordJobExecution(startTime time.Time, shots int, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Transmissions++
	m.TotalJobTime += duration

	if success {
		m.ShotsSimulated += int64(shots)
	} else {
		m.Failures++
	}

	m.JobSuccessRate = float64(m.Transmissions-m.Failures) / float64(m.Transmissions)
	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Limited++
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageJobLatency = m.TotalJobTime / time.Duration(m.Transmissions)

	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	p95Index := min(int(float64(len(sorted))*0.95), len(sorted)-1)
	p99Index := min(int(float64(len(sorted))*0.99), len(sorted)-1)

	m.P95JobLatency = sorted[p95Index]
	m.P99JobLatency = sorted[p99Index]
}

// Export returns a snapshot suitable for printing or shipping elsewhere.
func (m *Metrics) Export() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"worker_count":    m.WorkerCount,
		"queue_size":      m.JobQueueSize,
		"transmissions":   m.Transmissions,
		"failures":        m.Failures,
		"limited":         m.Limited,
		"shots_simulated": m.ShotsSimulated,
		"success_rate":    m.JobSuccessRate,
		"avg_latency":     m.AverageJobLatency.Milliseconds(),
		"p95_latency":     m.P95JobLatency.Milliseconds(),
		"p99_latency":     m.P99JobLatency.Milliseconds(),
	}
}
