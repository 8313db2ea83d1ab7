package superdense

import (
	"time"

	"github.com/google/uuid"
)

// Job is one message to push through the protocol on a Pool.
type Job struct {
	ID        string
	Message   string
	Shots     int
	TTL       time.Duration
	StartTime time.Time

	RetryPolicy *RetryPolicy
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)

// WithID overrides the generated job ID.
func WithID(id string) JobOption {
	return func(j *Job) {
		j.ID = id
	}
}

// WithShots overrides the pool's configured shot count for one job.
func WithShots(shots int) JobOption {
	return func(j *Job) {
		j.Shots = shots
	}
}

// WithTTL sets how long the result stays retrievable after it is stored.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) {
		j.TTL = ttl
	}
}

func newJob(msg string, shots int, opts ...JobOption) Job {
	job := Job{
		ID:        uuid.NewString(),
		Message:   msg,
		Shots:     shots,
		TTL:       time.Minute,
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&job)
	}

	return job
}
