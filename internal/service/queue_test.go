package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/port"
	"github.com/soberano/soberano/internal/port/mocks"
)

const mb = 1 << 20

func imageFile(name string, size int) domain.File {
	return domain.NewFile(name, "image/jpeg", bytes.Repeat([]byte{0xAB}, size))
}

// halve is a codec stand-in that returns half of the input.
func halve(_ context.Context, f domain.File, _ port.ImageOptions) (domain.File, error) {
	return domain.NewFile(f.Name, f.MIMEType, f.Data[:len(f.Data)/2]), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(topic string, e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func waitIdle(t *testing.T, q *JobQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
}

func countStatus(jobs []domain.CompressionJob, status domain.JobStatus) int {
	n := 0
	for _, j := range jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

func TestJobQueue_ProcessesInSubmissionOrder(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	var order []string
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			jobs := q.Jobs()
			assert.Equal(t, 1, countStatus(jobs, domain.JobStatusCompressing), "exactly one job compressing")
			// Every job ahead of this one has already finished.
			for _, j := range jobs {
				if j.Original.Name == f.Name {
					break
				}
				assert.Equal(t, domain.JobStatusDone, j.Status, "%s before %s", j.Original.Name, f.Name)
			}
			order = append(order, f.Name)
			return halve(ctx, f, opts)
		})

	adm, err := q.Enqueue([]domain.File{
		imageFile("a.jpg", 4*mb),
		imageFile("b.jpg", 1*mb),
		imageFile("c.jpg", 6*mb),
	}, 80)
	require.NoError(t, err)
	require.Len(t, adm.Admitted, 3)
	assert.Empty(t, adm.Rejected)

	waitIdle(t, q)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, order)
	jobs := q.Jobs()
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		assert.Equal(t, domain.JobStatusDone, j.Status)
		require.NotNil(t, j.Compressed)
		assert.LessOrEqual(t, j.CompressedSize, j.OriginalSize)
		assert.Equal(t, j.Compressed.Size(), j.CompressedSize)
		assert.Equal(t, 80, j.Quality)
		assert.True(t, j.Stats().Defined)
		assert.InDelta(t, 50, j.Stats().ReductionPercent, 0.01)
	}

	stats := q.Stats()
	assert.Equal(t, 3, stats.Done)
	assert.Equal(t, int64(11*mb), stats.OriginalBytes)
	assert.InDelta(t, 50, stats.ReductionPercent, 0.01)
}

func TestJobQueue_CodecOptions(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	codec.EXPECT().Compress(mock.Anything, mock.Anything, port.ImageOptions{
		MaxOutputSizeMB: 2,
		MaxDimensionPx:  1920,
		Quality:         0.8,
	}).RunAndReturn(halve).Once()

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10)}, 80)
	require.NoError(t, err)
	waitIdle(t, q)
}

func TestJobQueue_RejectsNonImages(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	events := &recordingPublisher{}
	q := NewJobQueue(context.Background(), codec, events)

	adm, err := q.Enqueue([]domain.File{domain.NewFile("notes.txt", "text/plain", []byte("hi"))}, 80)
	require.NoError(t, err)

	assert.Empty(t, adm.Admitted)
	assert.Equal(t, []string{"notes.txt"}, adm.Rejected)
	assert.Empty(t, q.Jobs())
	assert.Empty(t, events.Events())
	codec.AssertNotCalled(t, "Compress", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobQueue_MixedSubmissionCountsOnlyImages(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).RunAndReturn(halve)
	q := NewJobQueue(context.Background(), codec, nil)

	files := []domain.File{
		imageFile("a.jpg", 10),
		domain.NewFile("clip.mp4", "video/mp4", []byte("v")),
		domain.NewFile("b.png", "image/png", []byte("pngdata")),
		domain.NewFile("blob", "", []byte("x")),
	}
	adm, err := q.Enqueue(files, 50)
	require.NoError(t, err)
	assert.Len(t, adm.Admitted, 2)
	assert.Equal(t, []string{"clip.mp4", "blob"}, adm.Rejected)

	adm, err = q.Enqueue([]domain.File{imageFile("c.jpg", 10)}, 50)
	require.NoError(t, err)
	assert.Len(t, adm.Admitted, 1)

	waitIdle(t, q)
	assert.Len(t, q.Jobs(), 3)
}

func TestJobQueue_InvalidQualityAdmitsNothing(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	for _, quality := range []int{0, 9, 101} {
		_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10)}, quality)
		assert.ErrorIs(t, err, domain.ErrInvalidQuality)
	}
	assert.Empty(t, q.Jobs())
	assert.Equal(t, domain.DefaultQuality, q.Quality())
	assert.ErrorIs(t, q.SetQuality(5), domain.ErrInvalidQuality)
}

func TestJobQueue_CodecFailureIsIsolated(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			if f.Name == "b.jpg" {
				return domain.File{}, errors.New("corrupt image")
			}
			return halve(ctx, f, opts)
		})

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 100), imageFile("b.jpg", 100), imageFile("c.jpg", 100)}, 80)
	require.NoError(t, err)
	waitIdle(t, q)

	jobs := q.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, domain.JobStatusDone, jobs[0].Status)
	assert.Equal(t, domain.JobStatusError, jobs[1].Status)
	assert.Equal(t, domain.JobStatusDone, jobs[2].Status)

	failed := jobs[1]
	assert.Nil(t, failed.Compressed)
	assert.Zero(t, failed.CompressedSize)
	assert.Contains(t, failed.Error, "corrupt image")
	assert.False(t, failed.Stats().Defined)

	stats := q.Stats()
	assert.Equal(t, 2, stats.Done)
	assert.Equal(t, 1, stats.Failed)
}

func TestJobQueue_DrainIsReentrancySafe(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	active, maxActive := 0, 0
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			mu.Unlock()
			if f.Name == "a.jpg" {
				close(entered)
				<-release
			}
			mu.Lock()
			active--
			mu.Unlock()
			return halve(ctx, f, opts)
		})

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10), imageFile("b.jpg", 10)}, 80)
	require.NoError(t, err)
	<-entered

	// Returns at once: the active drain owns the queue.
	q.Drain(context.Background())
	q.Drain(context.Background())
	assert.Equal(t, domain.JobStatusPending, q.Jobs()[1].Status)

	close(release)
	waitIdle(t, q)

	assert.Equal(t, 1, maxActive)
	assert.Equal(t, 2, countStatus(q.Jobs(), domain.JobStatusDone))
}

func TestJobQueue_QualityReadWhenJobStarts(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	seen := map[string]float64{}
	var mu sync.Mutex
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			mu.Lock()
			seen[f.Name] = opts.Quality
			mu.Unlock()
			if f.Name == "a.jpg" {
				close(entered)
				<-release
			}
			return halve(ctx, f, opts)
		})

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10), imageFile("b.jpg", 10)}, 50)
	require.NoError(t, err)
	<-entered
	_, err = q.Enqueue([]domain.File{imageFile("c.jpg", 10)}, 90)
	require.NoError(t, err)
	close(release)
	waitIdle(t, q)

	assert.InDelta(t, 0.5, seen["a.jpg"], 1e-9)
	assert.InDelta(t, 0.9, seen["b.jpg"], 1e-9)
	assert.InDelta(t, 0.9, seen["c.jpg"], 1e-9)
	assert.Equal(t, 90, q.Jobs()[1].Quality)
}

func TestJobQueue_RemoveWhileCompressing(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	q := NewJobQueue(context.Background(), codec, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			close(entered)
			<-release
			return halve(ctx, f, opts)
		}).Once()

	adm, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10)}, 80)
	require.NoError(t, err)
	id := adm.Admitted[0].ID
	<-entered

	require.NoError(t, q.Remove(id))
	close(release)
	waitIdle(t, q)

	_, err = q.Get(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, q.Jobs())
	assert.ErrorIs(t, q.Remove(id), domain.ErrNotFound)
}

func TestJobQueue_ClearDropsInFlightResult(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	events := &recordingPublisher{}
	q := NewJobQueue(context.Background(), codec, events)

	entered := make(chan struct{})
	release := make(chan struct{})
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, f domain.File, opts port.ImageOptions) (domain.File, error) {
			close(entered)
			<-release
			return halve(ctx, f, opts)
		}).Once()

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10), imageFile("b.jpg", 10)}, 80)
	require.NoError(t, err)
	<-entered
	q.Clear()
	close(release)
	waitIdle(t, q)

	assert.Empty(t, q.Jobs())
	assert.Equal(t, domain.QueueStats{}, q.Stats())

	var cleared bool
	for _, e := range events.Events() {
		if e.Type == EventCleared {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestJobQueue_CancelledContextStopsDrain(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := NewJobQueue(ctx, codec, nil)

	_, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10)}, 80)
	require.NoError(t, err)
	waitIdle(t, q)
	assert.Equal(t, domain.JobStatusPending, q.Jobs()[0].Status)

	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).RunAndReturn(halve).Once()
	q.Drain(context.Background())
	assert.Equal(t, domain.JobStatusDone, q.Jobs()[0].Status)
}

func TestJobQueue_PublishesJobEvents(t *testing.T) {
	codec := mocks.NewImageCodecMock(t)
	codec.EXPECT().Compress(mock.Anything, mock.Anything, mock.Anything).RunAndReturn(halve)
	events := &recordingPublisher{}
	q := NewJobQueue(context.Background(), codec, events)

	adm, err := q.Enqueue([]domain.File{imageFile("a.jpg", 10)}, 80)
	require.NoError(t, err)
	waitIdle(t, q)

	var statuses []string
	for _, e := range events.Events() {
		if e.Type == EventJob && e.ID == adm.Admitted[0].ID {
			statuses = append(statuses, e.Status)
		}
	}
	assert.Equal(t, []string{"pending", "compressing", "done"}, statuses)
}
