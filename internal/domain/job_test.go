package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusNext(t *testing.T) {
	allowed := map[[2]JobStatus]bool{
		{JobStatusPending, JobStatusCompressing}: true,
		{JobStatusCompressing, JobStatusDone}:    true,
		{JobStatusCompressing, JobStatusError}:   true,
	}
	all := []JobStatus{JobStatusPending, JobStatusCompressing, JobStatusDone, JobStatusError}
	for _, from := range all {
		for _, to := range all {
			got, err := from.Next(to)
			if allowed[[2]JobStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
				assert.Equal(t, from, got)
			}
		}
	}
	assert.True(t, JobStatusDone.Terminal())
	assert.True(t, JobStatusError.Terminal())
	assert.False(t, JobStatusPending.Terminal())
}

func TestValidateQuality(t *testing.T) {
	for _, q := range []int{10, 55, 100} {
		assert.NoError(t, ValidateQuality(q))
	}
	for _, q := range []int{-1, 0, 9, 101} {
		assert.ErrorIs(t, ValidateQuality(q), ErrInvalidQuality)
	}
}

func TestCompressionJobLifecycle(t *testing.T) {
	job := NewCompressionJob(NewFile("a.png", "image/png", make([]byte, 1000)))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, int64(1000), job.OriginalSize)

	started, err := job.Start(70)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status, "receiver is unchanged")
	assert.Equal(t, JobStatusCompressing, started.Status)
	assert.Equal(t, 70, started.Quality)
	assert.False(t, started.StartedAt.IsZero())

	done, err := started.Complete(NewFile("a.png", "image/jpeg", make([]byte, 250)))
	require.NoError(t, err)
	assert.Equal(t, int64(250), done.CompressedSize)
	require.NotNil(t, done.Compressed)

	stats := done.Stats()
	assert.True(t, stats.Defined)
	assert.InDelta(t, 75.0, stats.ReductionPercent, 1e-9)

	_, err = done.Fail(errors.New("late"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompressionJobFail(t *testing.T) {
	job, err := NewCompressionJob(NewFile("a.png", "image/png", []byte{1, 2})).Start(80)
	require.NoError(t, err)

	failed, err := job.Fail(errors.New("decode: bad header"))
	require.NoError(t, err)
	assert.Equal(t, JobStatusError, failed.Status)
	assert.Equal(t, "decode: bad header", failed.Error)
	assert.Nil(t, failed.Compressed)
	assert.Zero(t, failed.CompressedSize)
	assert.False(t, failed.Stats().Defined)
}

func TestStatsUndefinedForEmptyOriginal(t *testing.T) {
	job, _ := NewCompressionJob(NewFile("a.png", "image/png", nil)).Start(80)
	done, err := job.Complete(NewFile("a.png", "image/jpeg", nil))
	require.NoError(t, err)
	assert.False(t, done.Stats().Defined)
}

func TestStatsCanBeNegative(t *testing.T) {
	job, _ := NewCompressionJob(NewFile("a.png", "image/png", make([]byte, 100))).Start(80)
	done, _ := job.Complete(NewFile("a.png", "image/jpeg", make([]byte, 150)))
	assert.InDelta(t, -50.0, done.Stats().ReductionPercent, 1e-9)
}

func TestAggregateStats(t *testing.T) {
	mk := func(size int) CompressionJob {
		return NewCompressionJob(NewFile("x.png", "image/png", make([]byte, size)))
	}
	pending := mk(100)
	compressing, _ := mk(200).Start(80)
	doneA, _ := mk(400).Start(80)
	doneA, _ = doneA.Complete(NewFile("x", "image/jpeg", make([]byte, 100)))
	doneB, _ := mk(600).Start(80)
	doneB, _ = doneB.Complete(NewFile("x", "image/jpeg", make([]byte, 400)))
	failed, _ := mk(50).Start(80)
	failed, _ = failed.Fail(errors.New("boom"))

	s := AggregateStats([]CompressionJob{pending, compressing, doneA, doneB, failed})

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.Compressing)
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, int64(1350), s.OriginalBytes)
	assert.Equal(t, int64(500), s.CompressedBytes)
	assert.Equal(t, int64(1000), s.DoneOriginalBytes)
	assert.True(t, s.ReductionIsDefined)
	assert.InDelta(t, 50.0, s.ReductionPercent, 1e-9)

	empty := AggregateStats(nil)
	assert.Zero(t, empty.Total)
	assert.False(t, empty.ReductionIsDefined)
}
