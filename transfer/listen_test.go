package transfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrdrop/types"
)

func TestListenRetriesUntilDone(t *testing.T) {
	st := newTestStore(t)
	var rejected int
	r := NewReceiver(st, nil, Options{
		RejectCooldown: time.Minute,
		OnResult: func(res Result) {
			if res.State == StateRejected {
				rejected++
			}
		},
	})

	good := envelopeText(t, []byte("0123456789"), "notes.txt", types.CategoryAssignments)
	frames := make(chan string, 4)
	frames <- "garbage"
	frames <- "garbage"
	frames <- good
	frames <- good

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := r.Listen(ctx, frames)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, "notes.txt", res.Record.Name)
	assert.Equal(t, 1, rejected, "identical rejected frame is suppressed during cooldown")
}

func TestListenStopsOnClosedSurface(t *testing.T) {
	r := NewReceiver(newTestStore(t), nil, Options{})
	frames := make(chan string, 1)
	frames <- "garbage"
	close(frames)

	res, err := r.Listen(context.Background(), frames)
	require.ErrorIs(t, err, ErrSurfaceClosed)
	assert.Equal(t, StateScanning, res.State)
}

func TestListenStopsOnContext(t *testing.T) {
	r := NewReceiver(newTestStore(t), nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Listen(ctx, make(chan string))
	require.ErrorIs(t, err, context.Canceled)
}

func TestListenThrottlesFrames(t *testing.T) {
	st := newTestStore(t)
	var processed int
	r := NewReceiver(st, nil, Options{
		FramesPerSecond: 0.001,
		OnResult:        func(Result) { processed++ },
	})
	frames := make(chan string, 3)
	frames <- "garbage-1"
	frames <- "garbage-2"
	frames <- "garbage-3"
	close(frames)

	_, err := r.Listen(context.Background(), frames)
	require.ErrorIs(t, err, ErrSurfaceClosed)
	assert.Equal(t, 1, processed, "burst of one, the rest are dropped")
}

func TestLineSurfaceFeedsListen(t *testing.T) {
	st := newTestStore(t)
	good := envelopeText(t, []byte("abc"), "a.txt", types.CategoryOthers)
	surface := NewLineSurface(strings.NewReader("\n" + good + "\n"))
	r := NewReceiver(st, surface, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	frames, readErr := surface.Frames(ctx)
	res, err := r.Listen(ctx, frames)
	require.NoError(t, err)
	require.NoError(t, readErr())
	assert.Equal(t, StateDone, res.State)
	assert.True(t, surface.Paused())
}

func TestLineSurfaceDropsWhilePaused(t *testing.T) {
	surface := NewLineSurface(strings.NewReader("one\ntwo\n"))
	surface.Pause()
	frames, readErr := surface.Frames(context.Background())

	var got []string
	for f := range frames {
		got = append(got, f)
	}
	require.NoError(t, readErr())
	assert.Empty(t, got)
}

func TestListenOnFinishedReceiver(t *testing.T) {
	st := newTestStore(t)
	surface := &recordingSurface{}
	r := NewReceiver(st, surface, Options{})
	require.Equal(t, StateDone, r.OnDecoded(context.Background(), envelopeText(t, []byte("abc"), "a.txt", types.CategoryOthers)).State)

	frames := make(chan string, 1)
	frames <- envelopeText(t, []byte("xyz"), "b.txt", types.CategoryOthers)
	res, err := r.Listen(context.Background(), frames)
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StateDone, res.State)
	assert.Empty(t, res.Record.Name)
	assert.Equal(t, []string{"pause"}, surface.Events(), "capture stays paused after Done")
	assert.Len(t, frames, 1, "frame is not consumed")
	assert.Equal(t, []string{"a.txt"}, dirEntries(t, st, types.CategoryOthers))
}
