package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusCompressing JobStatus = "compressing"
	JobStatusDone        JobStatus = "done"
	JobStatusError       JobStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Next validates the edge s -> to and returns to.
func (s JobStatus) Next(to JobStatus) (JobStatus, error) {
	switch {
	case s == JobStatusPending && to == JobStatusCompressing,
		s == JobStatusCompressing && to == JobStatusDone,
		s == JobStatusCompressing && to == JobStatusError:
		return to, nil
	}
	return s, fmt.Errorf("%w: job %s -> %s", ErrInvalidTransition, s, to)
}

const (
	MinQuality     = 10
	MaxQuality     = 100
	DefaultQuality = 80
)

func ValidateQuality(percent int) error {
	if percent < MinQuality || percent > MaxQuality {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, percent)
	}
	return nil
}

// CompressionJob is one image tracked through the queue. Its transition
// methods return a new value and never modify the receiver.
type CompressionJob struct {
	ID             string    `json:"id"`
	Original       File      `json:"original"`
	Compressed     *File     `json:"-"`
	Status         JobStatus `json:"status"`
	Quality        int       `json:"quality,omitempty"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
}

func NewCompressionJob(original File) CompressionJob {
	return CompressionJob{
		ID:           uuid.NewString(),
		Original:     original,
		Status:       JobStatusPending,
		OriginalSize: original.Size(),
		CreatedAt:    time.Now(),
	}
}

func (j CompressionJob) Start(quality int) (CompressionJob, error) {
	status, err := j.Status.Next(JobStatusCompressing)
	if err != nil {
		return j, err
	}
	j.Status = status
	j.Quality = quality
	j.StartedAt = time.Now()
	return j, nil
}

func (j CompressionJob) Complete(compressed File) (CompressionJob, error) {
	status, err := j.Status.Next(JobStatusDone)
	if err != nil {
		return j, err
	}
	j.Status = status
	j.Compressed = &compressed
	j.CompressedSize = compressed.Size()
	j.FinishedAt = time.Now()
	return j, nil
}

func (j CompressionJob) Fail(cause error) (CompressionJob, error) {
	status, err := j.Status.Next(JobStatusError)
	if err != nil {
		return j, err
	}
	j.Status = status
	j.Compressed = nil
	j.CompressedSize = 0
	if cause != nil {
		j.Error = cause.Error()
	}
	j.FinishedAt = time.Now()
	return j, nil
}

// JobStats holds values derived from a job; nothing here is stored.
type JobStats struct {
	ReductionPercent float64 `json:"reduction_percent"`
	Defined          bool    `json:"defined"`
}

func (j CompressionJob) Stats() JobStats {
	if j.Status != JobStatusDone || j.OriginalSize <= 0 {
		return JobStats{}
	}
	return JobStats{
		ReductionPercent: (1 - float64(j.CompressedSize)/float64(j.OriginalSize)) * 100,
		Defined:          true,
	}
}

// QueueStats aggregates sizes and status counts across a queue snapshot.
type QueueStats struct {
	Total              int     `json:"total"`
	Pending            int     `json:"pending"`
	Compressing        int     `json:"compressing"`
	Done               int     `json:"done"`
	Failed             int     `json:"failed"`
	OriginalBytes      int64   `json:"original_bytes"`
	CompressedBytes    int64   `json:"compressed_bytes"`
	DoneOriginalBytes  int64   `json:"done_original_bytes"`
	ReductionPercent   float64 `json:"reduction_percent"`
	ReductionIsDefined bool    `json:"reduction_defined"`
}

func AggregateStats(jobs []CompressionJob) QueueStats {
	var s QueueStats
	for _, j := range jobs {
		s.Total++
		s.OriginalBytes += j.OriginalSize
		switch j.Status {
		case JobStatusPending:
			s.Pending++
		case JobStatusCompressing:
			s.Compressing++
		case JobStatusDone:
			s.Done++
			s.CompressedBytes += j.CompressedSize
			s.DoneOriginalBytes += j.OriginalSize
		case JobStatusError:
			s.Failed++
		}
	}
	if s.DoneOriginalBytes > 0 {
		s.ReductionPercent = (1 - float64(s.CompressedBytes)/float64(s.DoneOriginalBytes)) * 100
		s.ReductionIsDefined = true
	}
	return s
}
