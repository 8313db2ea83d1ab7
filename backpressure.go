package superdense

import (
	"sync"
	"time"
)

/*
BackPressureRegulator refuses new transmissions while the pool is falling
behind. Pressure mixes queue depth against maxQueueSize with average job
latency against targetLatency, and intake stops once it reaches 0.8.
*/
type BackPressureRegulator struct {
	mu sync.RWMutex

	maxQueueSize    int
	targetLatency   time.Duration
	currentPressure float64
	metrics         *Metrics
}

func NewBackPressureRegulator(maxQueueSize int, targetLatency time.Duration) *BackPressureRegulator {
	return &BackPressureRegulator{
		maxQueueSize:  max(maxQueueSize, 1),
		targetLatency: targetLatency,
	}
}

func (bp *BackPressureRegulator) Observe(metrics *Metrics) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.metrics = metrics
	bp.updatePressure()
}

func (bp *BackPressureRegulator) Limit() bool {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.currentPressure >= 0.8
}

// Renormalize bleeds pressure off while the queue is short and jobs are fast.
func (bp *BackPressureRegulator) Renormalize() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.metrics == nil {
		return
	}

	bp.metrics.mu.RLock()
	queue, latency := bp.metrics.JobQueueSize, bp.metrics.AverageJobLatency
	bp.metrics.mu.RUnlock()

	if queue < bp.maxQueueSize/2 && latency < bp.targetLatency {
		bp.currentPressure = max(0.0, bp.currentPressure-0.1)
	}
}

func (bp *BackPressureRegulator) updatePressure() {
	if bp.metrics == nil {
		return
	}

	bp.metrics.mu.RLock()
	queue, latency := bp.metrics.JobQueueSize, bp.metrics.AverageJobLatency
	bp.metrics.mu.RUnlock()

	queuePressure := float64(queue) / float64(bp.maxQueueSize)

	latencyPressure := 0.0
	if latency > 0 && bp.targetLatency > 0 {
		latencyPressure = float64(latency) / float64(bp.targetLatency)
	}

	bp.currentPressure = min(1.0, max(0.0, queuePressure*0.6+latencyPressure*0.4))
}

func (bp *BackPressureRegulator) Pressure() float64 {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.currentPressure
}
