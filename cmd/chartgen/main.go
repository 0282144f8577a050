package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rben01/covid19-sub000/internal/config"
	"github.com/rben01/covid19-sub000/internal/feed"
	"github.com/rben01/covid19-sub000/internal/logic"
	"github.com/rben01/covid19-sub000/internal/models"
	"github.com/rben01/covid19-sub000/internal/playback"
	"github.com/rben01/covid19-sub000/internal/render"
	"github.com/rben01/covid19-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		sugar.Fatalw("chartgen failed", "error", err)
	}
	sugar.Info("chartgen finished")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	datasets, boundaries, err := loadFeeds(ctx, cfg, logger)
	if err != nil {
		return err
	}

	colors := logic.NewColorAssigner()
	for _, scope := range cfg.Scopes {
		ds, ok := datasets[scope]
		if !ok {
			sugar.Warnw("scope missing from data feed", "scope", scope)
			continue
		}
		feed.ApplyNames(ds, boundaries.Scope(scope))
		colors.Assign(ds)
	}

	ranker := logic.NewRankingService(colors, logger)
	if err := writeLineCharts(cfg, datasets, ranker, logger); err != nil {
		return err
	}
	return writeMapFrames(ctx, cfg, datasets, boundaries, logger)
}

func loadFeeds(ctx context.Context, cfg *config.Config, logger *zap.Logger) (map[string]*models.Dataset, feed.Boundaries, error) {
	client := feed.NewClient(cfg.HTTPTimeout, logger)

	var (
		datasets   map[string]*models.Dataset
		boundaries feed.Boundaries
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.FeedPath != "" {
			datasets, err = feed.LoadDatasetsFile(ctx, cfg.FeedPath)
		} else {
			datasets, err = client.FetchDatasets(ctx, cfg.FeedURL)
		}
		return err
	})
	g.Go(func() error {
		var err error
		if cfg.GeoPath != "" {
			boundaries, err = feed.LoadBoundariesFile(cfg.GeoPath)
		} else {
			boundaries, err = client.FetchBoundaries(ctx, cfg.GeoURL)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return datasets, boundaries, nil
}

// writeLineCharts renders every metric and axis combination per scope.
func writeLineCharts(cfg *config.Config, datasets map[string]*models.Dataset, ranker logic.RankingService, logger *zap.Logger) error {
	sugar := logger.Sugar()
	chart := render.NewLineChart(logger)

	written := 0
	for _, scope := range cfg.Scopes {
		ds, ok := datasets[scope]
		if !ok {
			continue
		}
		for _, m := range allMetrics() {
			for _, axis := range []models.AxisMode{models.FixedDate, models.OutbreakStart} {
				q := models.RankQuery{
					Metric: m,
					Window: cfg.SmoothingWindow,
					N:      cfg.TopN,
					Axis:   axis,
				}
				rs := ranker.SelectTopN(ds, q)

				summaries := make(map[string]logic.LegendSummary, len(rs.Lines))
				for _, line := range rs.Lines {
					if r, ok := ds.Regions[line.Code]; ok {
						summaries[line.Code] = ranker.Summarize(r, m.Accumulation)
					}
				}

				svg := chart.Render(rs, ds.Agg, summaries)
				if svg == "" {
					continue
				}
				name := fmt.Sprintf("%s_%s_%s.svg", scope, m.Slug(), axis)
				if err := os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte(svg), 0o644); err != nil {
					return fmt.Errorf("write chart %s: %w", name, err)
				}
				written++
			}
		}
		sugar.Infow("line charts written", "scope", scope)
	}
	sugar.Infow("line chart pass complete", "charts", written)
	return nil
}

// writeMapFrames plays each scope's date axis through the render pool,
// producing one choropleth frame per day and metric.
func writeMapFrames(ctx context.Context, cfg *config.Config, datasets map[string]*models.Dataset, boundaries feed.Boundaries, logger *zap.Logger) error {
	sugar := logger.Sugar()

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		OutputDir:   cfg.OutputDir,
		Renderer: &frameRenderer{
			datasets:   datasets,
			boundaries: boundaries,
			chart:      render.NewChoropleth(logger),
		},
		Logger: logger,
	})
	pool.Start(ctx)
	defer pool.Stop()

	mapMetrics := []models.Metric{
		{Affliction: models.Cases, Accumulation: models.Absolute, CountMethod: models.Net},
		{Affliction: models.Cases, Accumulation: models.PerCapita, CountMethod: models.Net},
		{Affliction: models.Deaths, Accumulation: models.Absolute, CountMethod: models.Net},
		{Affliction: models.Deaths, Accumulation: models.PerCapita, CountMethod: models.Net},
	}

	for _, scope := range cfg.Scopes {
		ds, ok := datasets[scope]
		if !ok || boundaries.Scope(scope) == nil {
			sugar.Warnw("skipping map frames", "scope", scope)
			continue
		}

		player := playback.NewPlayer(ds.Days(), cfg.PlaybackInterval, clockwork.NewRealClock(), func(frame int) {
			for _, m := range mapMetrics {
				pool.Enqueue(scope, m, frame)
			}
		}, logger)

		player.Seek(0)
		player.Play()
		select {
		case <-player.Done():
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		}
		sugar.Infow("map frames enqueued", "scope", scope, "frames", ds.Days())
	}
	return nil
}

func allMetrics() []models.Metric {
	var out []models.Metric
	for _, k := range models.AllSeriesKeys() {
		for _, cm := range []models.CountMethod{models.Net, models.DayOverDay} {
			out = append(out, models.Metric{
				Affliction:   k.Affliction,
				Accumulation: k.Accumulation,
				CountMethod:  cm,
			})
		}
	}
	return out
}

// frameRenderer adapts the choropleth renderer to the worker pool.
type frameRenderer struct {
	datasets   map[string]*models.Dataset
	boundaries feed.Boundaries
	chart      *render.Choropleth
}

func (r *frameRenderer) RenderFrame(job worker.FrameJob) (string, error) {
	ds, ok := r.datasets[job.Scope]
	if !ok {
		return "", fmt.Errorf("unknown scope %q", job.Scope)
	}
	return r.chart.Render(ds, r.boundaries.Scope(job.Scope), job.Metric, job.DayIndex), nil
}
