package scheduler

import (
	"context"

	"github.com/aristath/clusterfolio/internal/pipeline"
)

// StageRunner runs a list of pipeline stages.
type StageRunner interface {
	Run(ctx context.Context, stages []pipeline.Stage) error
}

// RetrainJob reruns the stages downstream of ingestion.
type RetrainJob struct {
	runner StageRunner
	stages []pipeline.Stage
}

// NewRetrainJob creates a job running stages; nil stages means the retrain set.
func NewRetrainJob(runner StageRunner, stages []pipeline.Stage) *RetrainJob {
	if len(stages) == 0 {
		stages = pipeline.RetrainStages()
	}
	return &RetrainJob{runner: runner, stages: stages}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "retrain"
}

// Run executes the stages
func (j *RetrainJob) Run(ctx context.Context) error {
	return j.runner.Run(ctx, j.stages)
}
