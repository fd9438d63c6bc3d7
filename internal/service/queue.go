package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/port"
)

// Fixed codec bounds for every image job.
const (
	maxOutputSizeMB = 2
	maxDimensionPx  = 1920
)

// Admission reports the outcome of one Enqueue call.
type Admission struct {
	Admitted []domain.CompressionJob `json:"admitted"`
	Rejected []string                `json:"rejected,omitempty"`
}

// JobQueue holds image compression jobs in insertion order and drains
// them through the codec one at a time.
type JobQueue struct {
	codec  port.ImageCodec
	events EventPublisher
	base   context.Context

	mu       sync.Mutex
	jobs     []domain.CompressionJob
	quality  int
	draining bool
	idle     chan struct{}
}

// NewJobQueue returns an empty queue. Drains started by Enqueue run under
// ctx; cancelling it stops them before the next job.
func NewJobQueue(ctx context.Context, codec port.ImageCodec, events EventPublisher) *JobQueue {
	idle := make(chan struct{})
	close(idle)
	return &JobQueue{
		codec:   codec,
		events:  events,
		base:    ctx,
		quality: domain.DefaultQuality,
		idle:    idle,
	}
}

// Enqueue admits the image files as pending jobs and starts a drain if
// none is active. Non-image files are reported back, never queued.
// quality becomes the queue-wide setting for jobs that have not started.
func (q *JobQueue) Enqueue(files []domain.File, quality int) (Admission, error) {
	if err := domain.ValidateQuality(quality); err != nil {
		return Admission{}, err
	}

	var adm Admission
	q.mu.Lock()
	q.quality = quality
	for _, f := range files {
		if !f.IsImage() {
			adm.Rejected = append(adm.Rejected, f.Name)
			continue
		}
		job := domain.NewCompressionJob(f)
		q.jobs = append(q.jobs, job)
		adm.Admitted = append(adm.Admitted, job)
	}
	q.mu.Unlock()

	for _, name := range adm.Rejected {
		logger.Debug.Printf("enqueue: %s: %v", logger.SanitizeForLog(name), domain.ErrAdmissionRejected)
	}
	for _, job := range adm.Admitted {
		q.publish(job)
	}
	if len(adm.Admitted) > 0 {
		logger.Info.Printf("enqueued %d image(s) at quality %d", len(adm.Admitted), quality)
		if q.acquire() {
			go q.drain(q.base)
		}
	}
	return adm, nil
}

// SetQuality changes the quality read by jobs that start afterwards.
func (q *JobQueue) SetQuality(quality int) error {
	if err := domain.ValidateQuality(quality); err != nil {
		return err
	}
	q.mu.Lock()
	q.quality = quality
	q.mu.Unlock()
	return nil
}

func (q *JobQueue) Quality() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.quality
}

// Drain compresses pending jobs in insertion order until none is left.
// It returns immediately when another drain is active.
func (q *JobQueue) Drain(ctx context.Context) {
	if q.acquire() {
		q.drain(ctx)
	}
}

// acquire takes the drain guard. It reports false when a drain is active.
func (q *JobQueue) acquire() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.draining {
		return false
	}
	q.draining = true
	q.idle = make(chan struct{})
	return true
}

// drain runs with the guard held; next releases it.
func (q *JobQueue) drain(ctx context.Context) {
	for {
		job, quality, ok := q.next(ctx)
		if !ok {
			return
		}
		q.publish(job)

		opts := port.ImageOptions{
			MaxOutputSizeMB: maxOutputSizeMB,
			MaxDimensionPx:  maxDimensionPx,
			Quality:         float64(quality) / 100,
		}
		out, err := q.codec.Compress(ctx, job.Original, opts)
		q.finish(job.ID, out, err)
	}
}

// next starts the earliest pending job. When there is none, or ctx is
// done, it releases the drain guard under the same lock so an Enqueue
// racing with the end of a drain always starts a new one.
func (q *JobQueue) next(ctx context.Context) (domain.CompressionJob, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ctx.Err() == nil {
		for i, job := range q.jobs {
			if job.Status != domain.JobStatusPending {
				continue
			}
			started, err := job.Start(q.quality)
			if err != nil {
				break
			}
			q.jobs[i] = started
			return started, q.quality, true
		}
	}

	q.draining = false
	close(q.idle)
	return domain.CompressionJob{}, 0, false
}

func (q *JobQueue) finish(id string, out domain.File, codecErr error) {
	q.mu.Lock()
	i := q.index(id)
	if i < 0 {
		q.mu.Unlock()
		logger.Debug.Printf("job %s removed while compressing, result discarded", id)
		return
	}

	var (
		job domain.CompressionJob
		err error
	)
	if codecErr != nil {
		job, err = q.jobs[i].Fail(fmt.Errorf("%w: %w", domain.ErrCodecFailure, codecErr))
	} else {
		job, err = q.jobs[i].Complete(out)
	}
	if err == nil {
		q.jobs[i] = job
	}
	q.mu.Unlock()

	if err != nil {
		logger.Error.Printf("job %s: %v", id, err)
		return
	}
	if codecErr != nil {
		logger.WithJob(id, "compress").Warnf("compression failed for %s: %v", logger.SanitizeForLog(job.Original.Name), codecErr)
	} else {
		logger.WithJob(id, "compress").Infof("compressed %s: %d -> %d bytes", logger.SanitizeForLog(job.Original.Name), job.OriginalSize, job.CompressedSize)
	}
	q.publish(job)
}

// index returns the position of id, or -1. Callers hold q.mu.
func (q *JobQueue) index(id string) int {
	return slices.IndexFunc(q.jobs, func(j domain.CompressionJob) bool { return j.ID == id })
}

// Remove deletes a job in any state. A compressing job's result is
// discarded when it lands.
func (q *JobQueue) Remove(id string) error {
	q.mu.Lock()
	i := q.index(id)
	if i < 0 {
		q.mu.Unlock()
		return domain.ErrNotFound
	}
	q.jobs = slices.Delete(q.jobs, i, i+1)
	q.mu.Unlock()

	q.emit(Event{Type: EventRemoved, ID: id})
	return nil
}

// Clear empties the queue. An in-flight result is dropped.
func (q *JobQueue) Clear() {
	q.mu.Lock()
	q.jobs = nil
	q.mu.Unlock()

	q.emit(Event{Type: EventCleared})
}

// Jobs returns a snapshot in insertion order.
func (q *JobQueue) Jobs() []domain.CompressionJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.jobs)
}

func (q *JobQueue) Get(id string) (domain.CompressionJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index(id)
	if i < 0 {
		return domain.CompressionJob{}, domain.ErrNotFound
	}
	return q.jobs[i], nil
}

func (q *JobQueue) Stats() domain.QueueStats {
	return domain.AggregateStats(q.Jobs())
}

// Wait blocks until no drain is active.
func (q *JobQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *JobQueue) publish(job domain.CompressionJob) {
	q.emit(Event{
		Type:    EventJob,
		ID:      job.ID,
		Status:  string(job.Status),
		Message: job.Error,
	})
}

func (q *JobQueue) emit(event Event) {
	if q.events != nil {
		q.events.Publish(TopicQueue, event)
	}
}
