package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/clusterfolio/internal/artifacts"
	"github.com/aristath/clusterfolio/internal/config"
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/ingest"
	"github.com/aristath/clusterfolio/internal/reports"
	"github.com/rs/zerolog"
)

// Options carry the collaborators a pipeline can be given instead of the
// ones derived from configuration.
type Options struct {
	// OpenDB opens the price database; nil uses ingest.OpenSQLite.
	OpenDB func(path string) (*sql.DB, error)
	// Publisher uploads reports; nil builds an S3 publisher when a bucket
	// is configured.
	Publisher *reports.Publisher
	// Now is the clock used for manifests and status; nil uses time.Now.
	Now func() time.Time
}

// Pipeline runs the stages of one configuration.
type Pipeline struct {
	cfg       *config.Config
	profiles  []domain.Profile
	layout    reports.Layout
	store     *artifacts.Store
	metrics   *Metrics
	openDB    func(path string) (*sql.DB, error)
	publisher *reports.Publisher
	now       func() time.Time
	runID     string
	log       zerolog.Logger
}

// New creates a pipeline rooted at cfg.RootDir.
func New(cfg *config.Config, profiles []domain.Profile, opts Options, log zerolog.Logger) *Pipeline {
	layout := reports.NewLayout(cfg.RootDir)
	p := &Pipeline{
		cfg:       cfg,
		profiles:  profiles,
		layout:    layout,
		store:     artifacts.NewStore(layout.ArtifactsDir(), log),
		metrics:   NewMetrics(),
		openDB:    opts.OpenDB,
		publisher: opts.Publisher,
		now:       opts.Now,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
	if p.openDB == nil {
		p.openDB = ingest.OpenSQLite
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Layout returns the output file layout.
func (p *Pipeline) Layout() reports.Layout {
	return p.layout
}

// Store returns the snapshot store.
func (p *Pipeline) Store() *artifacts.Store {
	return p.store
}

// Metrics returns the run metrics.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// RunID returns the identifier of the current or last run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// stageOutput is what a stage reports back for the manifest.
type stageOutput struct {
	files   []string
	records int
}

// Run executes stages in order under a fresh run ID. The first failing stage
// stops the run; later stages are not invoked.
func (p *Pipeline) Run(ctx context.Context, stages []Stage) error {
	p.runID = artifacts.NewRunID()
	log := p.log.With().Str("run_id", p.runID).Logger()
	log.Info().Interface("stages", stageList(stages)).Msg("Starting pipeline run")

	startTime := time.Now()
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before stage %d (%s): %w", int(s), s, err)
		}
		if err := p.runStage(ctx, s, log); err != nil {
			p.writeMetrics(log)
			return err
		}
	}
	p.writeMetrics(log)

	log.Info().Dur("duration", time.Since(startTime)).Msg("Pipeline run completed")
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, s Stage, log zerolog.Logger) error {
	log.Info().Int("stage", int(s)).Str("name", s.String()).Msg("Starting stage")
	timer := NewStageTimer(s.String(), log)

	out, err := p.execute(ctx, s)
	duration := timer.Stop()
	p.metrics.StageDuration.WithLabelValues(s.String()).Set(duration.Seconds())

	if err != nil {
		p.metrics.StageRuns.WithLabelValues(s.String(), "error").Inc()
		log.Error().Err(err).Int("stage", int(s)).Str("name", s.String()).Msg("Stage failed")
		return fmt.Errorf("stage %d (%s): %w", int(s), s, err)
	}

	completed := p.now()
	p.metrics.StageRuns.WithLabelValues(s.String(), "success").Inc()
	p.metrics.LastSuccess.WithLabelValues(s.String()).Set(float64(completed.Unix()))

	if err := p.store.RecordStage(p.runID, s.String(), artifacts.StageRecord{
		CompletedAt: completed,
		DurationMs:  duration.Milliseconds(),
		Files:       out.files,
		Records:     out.records,
	}); err != nil {
		log.Warn().Err(err).Str("stage", s.String()).Msg("Failed to update artifacts manifest")
	}
	return nil
}

func (p *Pipeline) execute(ctx context.Context, s Stage) (stageOutput, error) {
	switch s {
	case StageIngest:
		return p.prepareInputs(ctx)
	case StageFeatures:
		return p.buildFeatures(ctx)
	case StageSegmentation:
		return p.segment()
	case StagePortfolio:
		return p.buildPortfolios(ctx)
	case StageReports:
		return p.writeReports(ctx)
	}
	return stageOutput{}, fmt.Errorf("unknown stage %d", int(s))
}

func (p *Pipeline) writeMetrics(log zerolog.Logger) {
	if err := p.metrics.WriteTextfile(p.layout.MetricsFile()); err != nil {
		log.Warn().Err(err).Msg("Failed to write run metrics")
	}
}

func stageList(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.String()
	}
	return out
}
