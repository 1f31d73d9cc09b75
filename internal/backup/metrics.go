package backup

import (
	"sync"
	"time"
)

// JobMetrics records coarse per-stage timings and sizes for one job.
// Purely informational; nothing in the pipeline branches on it.
type JobMetrics struct {
	mu             sync.Mutex
	StartedAt      time.Time               `json:"started_at"`
	FinishedAt     time.Time               `json:"finished_at"`
	StageDurations map[Stage]time.Duration `json:"stage_durations"`
	FilesArchived  int                     `json:"files_archived"`
	ArtifactBytes  int64                   `json:"artifact_bytes"`
}

func newJobMetrics() *JobMetrics {
	return &JobMetrics{
		StartedAt:      time.Now(),
		StageDurations: make(map[Stage]time.Duration),
	}
}

// track starts timing a stage and returns a stop function.
func (m *JobMetrics) track(stage Stage) func() {
	start := time.Now()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.StageDurations[stage] += time.Since(start)
	}
}

func (m *JobMetrics) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinishedAt = time.Now()
}

// TotalDuration returns wall-clock time from job start to finish.
func (m *JobMetrics) TotalDuration() time.Duration {
	if m.FinishedAt.IsZero() {
		return time.Since(m.StartedAt)
	}
	return m.FinishedAt.Sub(m.StartedAt)
}
