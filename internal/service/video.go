package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/port"
)

const (
	inputName  = "input.mp4"
	outputName = "output.mp4"
	resultMIME = "video/mp4"
)

// transcodeArgs caps the height at 720 while keeping an even width.
var transcodeArgs = []string{
	"-i", inputName,
	"-vf", `scale=-2:min(720\,ih)`,
	"-c:v", "libx264",
	"-crf", "30",
	"-preset", "ultrafast",
	outputName,
}

// VideoRunner executes one video compression at a time on the engine.
type VideoRunner struct {
	lifecycle *EngineLifecycle
	engine    port.VideoEngine
	downloads *Downloads
	events    EventPublisher

	running atomic.Bool

	mu  sync.RWMutex
	job domain.VideoJob
}

func NewVideoRunner(lifecycle *EngineLifecycle, engine port.VideoEngine, downloads *Downloads, events EventPublisher) *VideoRunner {
	r := &VideoRunner{
		lifecycle: lifecycle,
		engine:    engine,
		downloads: downloads,
		events:    events,
		job:       domain.VideoJob{Status: domain.RunStatusIdle},
	}
	lifecycle.OnProgress(r.onProgress)
	return r
}

// Job returns the current or last video job.
func (r *VideoRunner) Job() domain.VideoJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.job
}

// Running reports whether a run holds the engine.
func (r *VideoRunner) Running() bool {
	return r.running.Load()
}

// Run compresses file and waits for the result. It fails fast with
// domain.ErrEngineNotReady or domain.ErrEngineBusy without touching the
// current job.
func (r *VideoRunner) Run(ctx context.Context, file domain.File) (domain.VideoJob, error) {
	if err := r.begin(file); err != nil {
		return domain.VideoJob{}, err
	}
	return r.execute(ctx, file)
}

// Start is Run without waiting: the admission checks happen before it
// returns, the pipeline continues under ctx.
func (r *VideoRunner) Start(ctx context.Context, file domain.File) (domain.VideoJob, error) {
	if err := r.begin(file); err != nil {
		return domain.VideoJob{}, err
	}
	job := r.Job()
	go func() { _, _ = r.execute(ctx, file) }()
	return job, nil
}

// begin claims the engine and resets the job for file.
func (r *VideoRunner) begin(file domain.File) error {
	if state := r.lifecycle.State(); state != domain.EngineStateReady {
		return fmt.Errorf("%w: engine is %s", domain.ErrEngineNotReady, state)
	}
	if !r.running.CompareAndSwap(false, true) {
		return domain.ErrEngineBusy
	}

	r.mu.Lock()
	previous := r.job.DownloadID
	status, _ := r.job.Status.Next(domain.RunStatusRunning)
	r.job = domain.VideoJob{
		Source:    file,
		Status:    status,
		StartedAt: time.Now(),
	}
	r.mu.Unlock()
	r.downloads.Revoke(previous)
	r.publishStatus()
	return nil
}

// execute runs the pipeline and releases the engine claimed by begin.
func (r *VideoRunner) execute(ctx context.Context, file domain.File) (domain.VideoJob, error) {
	log := logger.WithJob(file.Name, "transcode")
	log.Infof("video compression started: %s (%d bytes)", logger.SanitizeForLog(file.Name), file.Size())

	data, err := r.transcode(ctx, file)
	r.cleanup(ctx)

	if err != nil {
		job := r.settle(func(j domain.VideoJob) domain.VideoJob {
			j.Status, _ = j.Status.Next(domain.RunStatusFailed)
			j.Error = err.Error()
			return j
		})
		log.Errorf("video compression failed: %v", err)
		return job, fmt.Errorf("%w: %w", domain.ErrVideoRunFailed, err)
	}

	result := domain.NewFile(resultName(file.Name), resultMIME, data)
	dl := r.downloads.Register(result)
	job := r.settle(func(j domain.VideoJob) domain.VideoJob {
		j.Status, _ = j.Status.Next(domain.RunStatusComplete)
		j.Result = &result
		j.DownloadID = dl.Token
		return j
	})
	log.Infof("video compression finished: %d -> %d bytes", job.OriginalSize(), job.ResultSize())
	return job, nil
}

func (r *VideoRunner) transcode(ctx context.Context, file domain.File) ([]byte, error) {
	for _, name := range []string{inputName, outputName} {
		if err := r.engine.DeleteFile(ctx, name); err != nil {
			return nil, fmt.Errorf("remove stale %s: %w", name, err)
		}
	}
	if err := r.engine.WriteFile(ctx, inputName, file.Data); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	if err := r.engine.Exec(ctx, transcodeArgs); err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	data, err := r.engine.ReadFile(ctx, outputName)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}

// cleanup removes the run's virtual files even when ctx is cancelled.
func (r *VideoRunner) cleanup(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range []string{inputName, outputName} {
		if err := r.engine.DeleteFile(ctx, name); err != nil {
			logger.Warn.Printf("remove %s: %v", name, err)
		}
	}
}

// settle records the terminal job and releases the engine before the
// status goes out, so anyone who sees complete or failed can start a run.
func (r *VideoRunner) settle(apply func(domain.VideoJob) domain.VideoJob) domain.VideoJob {
	r.mu.Lock()
	r.job = apply(r.job)
	r.job.FinishedAt = time.Now()
	job := r.job
	r.mu.Unlock()
	r.running.Store(false)
	r.publishStatus()
	return job
}

func (r *VideoRunner) onProgress(percent int) {
	r.mu.Lock()
	before := r.job.ProgressPercent
	r.job = r.job.Progress(percent)
	after := r.job.ProgressPercent
	r.mu.Unlock()

	if after != before && r.events != nil {
		r.events.Publish(TopicVideo, Event{Type: EventProgress, Status: string(domain.RunStatusRunning), Percent: after})
	}
}

func (r *VideoRunner) publishStatus() {
	if r.events == nil {
		return
	}
	job := r.Job()
	r.events.Publish(TopicVideo, Event{
		Type:    EventStatus,
		ID:      job.DownloadID,
		Status:  string(job.Status),
		Message: job.Error,
		Percent: job.ProgressPercent,
	})
}

func resultName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "video"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".mp4"
}
