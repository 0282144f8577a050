package playback

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPlayer(frames int, clock clockwork.Clock) (*Player, chan int) {
	emitted := make(chan int, 64)
	p := NewPlayer(frames, time.Second, clock, func(f int) { emitted <- f }, zap.NewNop())
	return p, emitted
}

func nextFrame(t *testing.T, emitted chan int) int {
	t.Helper()
	select {
	case f := <-emitted:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return -1
	}
}

func TestPlayerAdvancesAndPausesAtEnd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, emitted := newTestPlayer(4, clock)

	p.Play()
	require.True(t, p.Playing())
	clock.BlockUntil(1)

	for want := 1; want <= 3; want++ {
		clock.Advance(time.Second)
		assert.Equal(t, want, nextFrame(t, emitted))
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("player never reached the last frame")
	}
	assert.False(t, p.Playing(), "player should pause at the end")
	assert.Equal(t, 3, p.Frame())
}

func TestPlayerPauseKeepsPosition(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, emitted := newTestPlayer(10, clock)

	p.Play()
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Equal(t, 1, nextFrame(t, emitted))

	p.Pause()
	assert.False(t, p.Playing())
	assert.Equal(t, 1, p.Frame())

	// Pause is synchronous: once it returns, advancing the clock must not
	// produce another frame.
	clock.Advance(10 * time.Second)
	select {
	case f := <-emitted:
		t.Fatalf("frame %d emitted after pause", f)
	case <-time.After(100 * time.Millisecond):
	}

	// Resume picks up where it left off; the fresh ticker exists as soon as
	// Play returns.
	p.Play()
	clock.Advance(time.Second)
	assert.Equal(t, 2, nextFrame(t, emitted))
	p.Pause()
}

func TestPlayerSeekAndStep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, emitted := newTestPlayer(10, clock)

	p.Seek(5)
	assert.Equal(t, 5, nextFrame(t, emitted))

	p.Step(-2)
	assert.Equal(t, 3, nextFrame(t, emitted))

	// Clamped at both edges.
	p.Seek(99)
	assert.Equal(t, 9, nextFrame(t, emitted))
	p.Step(-100)
	assert.Equal(t, 0, nextFrame(t, emitted))
}

func TestPlayerReplayFromEnd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, emitted := newTestPlayer(3, clock)

	p.Seek(2)
	require.Equal(t, 2, nextFrame(t, emitted))

	// Play at the last frame restarts from the beginning.
	p.Play()
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Equal(t, 1, nextFrame(t, emitted))
	p.Pause()
}
