package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobArchiver struct {
	snapCutoff time.Time
	decCutoff  time.Time
	snapErr    error
}

func (f *fakeBlobArchiver) ArchiveSnapshots(_ context.Context, before time.Time) (int64, error) {
	f.snapCutoff = before
	return 3, f.snapErr
}

func (f *fakeBlobArchiver) ArchiveDecisions(_ context.Context, before time.Time) (int64, error) {
	f.decCutoff = before
	return 2, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunUsesRetentionCutoff(t *testing.T) {
	blob := &fakeBlobArchiver{}
	a := NewArchiver(blob, 90, testLogger())

	require.NoError(t, a.Run(context.Background()))

	wantCutoff := time.Now().UTC().Add(-90 * 24 * time.Hour)
	assert.WithinDuration(t, wantCutoff, blob.snapCutoff, 5*time.Second)
	assert.Equal(t, blob.snapCutoff, blob.decCutoff)
}

func TestRunStopsOnSnapshotFailure(t *testing.T) {
	blob := &fakeBlobArchiver{snapErr: errors.New("upload failed")}
	a := NewArchiver(blob, 30, testLogger())

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archiving snapshots")
	// Decisions are not touched after the snapshot pass failed.
	assert.True(t, blob.decCutoff.IsZero())
}

func TestParseCron(t *testing.T) {
	_, err := parseCron("0 3 * * *")
	require.NoError(t, err)

	_, err = parseCron("0 3 * *")
	assert.Error(t, err)

	_, err = parseCron("x 3 * * *")
	assert.Error(t, err)
}

func TestNextCronTimeDaily(t *testing.T) {
	after := time.Date(2026, 8, 25, 2, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC), next)

	// Already past today's trigger: roll to tomorrow.
	after = time.Date(2026, 8, 25, 3, 30, 0, 0, time.UTC)
	next, err = nextCronTime("0 3 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC), next)
}

func TestNextCronTimeListField(t *testing.T) {
	after := time.Date(2026, 8, 25, 0, 10, 0, 0, time.UTC)
	next, err := nextCronTime("0,30 * * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 30, 0, 0, time.UTC), next)
}

func TestRunCronStopsOnCancel(t *testing.T) {
	a := NewArchiver(&fakeBlobArchiver{}, 30, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunCron(ctx, "0 3 * * *") }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunCron did not stop after cancellation")
	}
}
