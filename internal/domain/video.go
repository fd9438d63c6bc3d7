package domain

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusIdle     RunStatus = "idle"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

func (s RunStatus) Next(to RunStatus) (RunStatus, error) {
	switch {
	case s != RunStatusRunning && to == RunStatusRunning,
		s == RunStatusRunning && to == RunStatusComplete,
		s == RunStatusRunning && to == RunStatusFailed:
		return to, nil
	}
	return s, fmt.Errorf("%w: run %s -> %s", ErrInvalidTransition, s, to)
}

// VideoJob is the single video compression tracked by the runner.
type VideoJob struct {
	Source          File      `json:"source"`
	ProgressPercent int       `json:"progress_percent"`
	Result          *File     `json:"-"`
	DownloadID      string    `json:"download_id,omitempty"`
	Status          RunStatus `json:"status"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at,omitzero"`
	FinishedAt      time.Time `json:"finished_at,omitzero"`
}

func (v VideoJob) OriginalSize() int64 {
	return v.Source.Size()
}

func (v VideoJob) ResultSize() int64 {
	if v.Result == nil {
		return 0
	}
	return v.Result.Size()
}

// Progress applies a normalized percent. Values below the current one are
// ignored so the percent never decreases within a run.
func (v VideoJob) Progress(percent int) VideoJob {
	if v.Status != RunStatusRunning {
		return v
	}
	percent = ClampPercent(percent)
	if percent > v.ProgressPercent {
		v.ProgressPercent = percent
	}
	return v
}

// ClampPercent bounds p to [0,100].
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
