// Package playback drives an animated walk over a dataset's date axis. Each
// tick advances one frame and hands the frame index to a callback; the
// callback is expected to enqueue render work, not do it inline.
package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// FrameFunc receives each frame index as playback advances.
type FrameFunc func(frame int)

// Player steps through frames [0, frames) on a fixed interval. It starts
// paused on frame 0; Play begins advancing, Pause stops the clock without
// losing the position, Seek and Step reposition whether playing or not.
type Player struct {
	clock    clockwork.Clock
	interval time.Duration
	frames   int
	onFrame  FrameFunc
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	frame   int
	playing bool
	stop    chan struct{}
	runDone chan struct{}
	done    chan struct{}
}

func NewPlayer(frames int, interval time.Duration, clock clockwork.Clock, onFrame FrameFunc, logger *zap.Logger) *Player {
	if frames < 1 {
		frames = 1
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Player{
		clock:    clock,
		interval: interval,
		frames:   frames,
		onFrame:  onFrame,
		logger:   logger.Sugar(),
		done:     make(chan struct{}),
	}
}

// Play starts advancing from the current frame. Playing past the last frame
// pauses there. Calling Play while already playing is a no-op. The ticker is
// created before Play returns, so a caller driving an injected clock can
// advance it immediately.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	if p.frame >= p.frames-1 {
		// Replay from the start when already at the end.
		p.frame = 0
	}
	p.playing = true
	p.stop = make(chan struct{})
	p.runDone = make(chan struct{})
	ticker := p.clock.NewTicker(p.interval)
	go p.run(ticker, p.stop, p.runDone)
	p.logger.Debugw("playback started", "frame", p.frame, "interval", p.interval)
}

// Pause stops the clock, keeping the current position. It returns only after
// the run goroutine has exited and its ticker is stopped, so no tick can
// land after Pause.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	close(p.stop)
	runDone := p.runDone
	frame := p.frame
	p.mu.Unlock()

	<-runDone
	p.logger.Debugw("playback paused", "frame", frame)
}

// Seek jumps to a frame, clamped to the valid range, and emits it.
func (p *Player) Seek(frame int) {
	p.mu.Lock()
	p.frame = p.clamp(frame)
	f := p.frame
	p.mu.Unlock()
	p.emit(f)
}

// Step moves by delta frames (negative steps backward) and emits the result.
func (p *Player) Step(delta int) {
	p.mu.Lock()
	p.frame = p.clamp(p.frame + delta)
	f := p.frame
	p.mu.Unlock()
	p.emit(f)
}

// Frame returns the current position.
func (p *Player) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Playing reports whether the clock is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Done closes when playback reaches the last frame. Seeking or replaying
// after that does not reopen it.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) clamp(frame int) int {
	if frame < 0 {
		return 0
	}
	if frame >= p.frames {
		return p.frames - 1
	}
	return frame
}

func (p *Player) emit(frame int) {
	if p.onFrame != nil {
		p.onFrame(frame)
	}
}

func (p *Player) run(ticker clockwork.Ticker, stop, runDone chan struct{}) {
	defer close(runDone)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			p.mu.Lock()
			if !p.playing {
				p.mu.Unlock()
				return
			}
			p.frame++
			f := p.frame
			atEnd := f >= p.frames-1
			if atEnd {
				p.frame = p.frames - 1
				f = p.frame
				p.playing = false
			}
			p.mu.Unlock()

			p.emit(f)
			if atEnd {
				p.finish()
				return
			}
		case <-stop:
			return
		}
	}
}

func (p *Player) finish() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
