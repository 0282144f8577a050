// Package worker implements the buffered worker pool for frame rendering.
// This decouples playback ticks from SVG generation and disk writes:
// a slow disk drops frames instead of stalling the player.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/models"
)

// Prometheus metrics
var (
	framesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_frames_enqueued_total",
		Help: "Total number of frame jobs enqueued",
	})

	framesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_frames_rendered_total",
		Help: "Total number of frames rendered and written",
	})

	framesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_frames_failed_total",
		Help: "Total number of frames that failed to render",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_frames_dropped_total",
		Help: "Total number of frames dropped because the queue was full",
	})

	renderQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covid_render_queue_depth",
		Help: "Current depth of the frame render queue",
	})

	frameRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "covid_frame_render_duration_seconds",
		Help:    "Duration of rendering and writing one frame",
		Buckets: prometheus.DefBuckets,
	})
)

// FrameJob asks for one map frame: one scope, one metric, one day.
type FrameJob struct {
	ID       uuid.UUID
	Scope    string
	Metric   models.Metric
	DayIndex int
	Enqueued time.Time
}

// Filename is the frame's output name, stable per (scope, metric, day).
func (j FrameJob) Filename() string {
	return fmt.Sprintf("%s_%s_%04d.svg", j.Scope, j.Metric.Slug(), j.DayIndex)
}

// FrameRenderer produces the SVG body for a frame job. An empty string means
// the frame should be skipped (nothing to draw).
type FrameRenderer interface {
	RenderFrame(job FrameJob) (string, error)
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	OutputDir   string
	Renderer    FrameRenderer
	Logger      *zap.Logger
}

// Pool manages a pool of workers rendering frames to disk
type Pool struct {
	config   PoolConfig
	jobQueue chan FrameJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan FrameJob, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"outputDir", p.config.OutputDir,
	)
}

// Stop drains the queue and shuts the pool down. Frames already enqueued are
// still rendered.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a frame job to the queue. A full queue drops the frame rather
// than blocking the caller; playback keeps its cadence.
func (p *Pool) Enqueue(scope string, metric models.Metric, dayIndex int) bool {
	job := FrameJob{
		ID:       uuid.New(),
		Scope:    scope,
		Metric:   metric,
		DayIndex: dayIndex,
		Enqueued: time.Now(),
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue frame (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		framesEnqueued.Inc()
		return true
	default:
		p.logger.Warnw("Frame queue full, dropping frame",
			"scope", scope,
			"metric", metric.Slug(),
			"day", dayIndex,
		)
		framesDropped.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker renders jobs from the queue until it closes
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugw("Worker started", "worker", id)

	for job := range p.jobQueue {
		start := time.Now()
		if err := p.renderJob(job); err != nil {
			p.logger.Errorw("Frame render failed",
				"worker", id,
				"job", job.ID,
				"frame", job.Filename(),
				"error", err,
			)
			framesFailed.Inc()
		} else {
			framesRendered.Inc()
		}
		frameRenderDuration.Observe(time.Since(start).Seconds())
	}
}

func (p *Pool) renderJob(job FrameJob) error {
	svg, err := p.config.Renderer.RenderFrame(job)
	if err != nil {
		return err
	}
	if svg == "" {
		p.logger.Debugw("Frame skipped by renderer", "frame", job.Filename())
		return nil
	}

	path := filepath.Join(p.config.OutputDir, job.Filename())
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			renderQueueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
