package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labpulse/internal/infrastructure"
)

// Stage names shared by the pipelines
const (
	StageIngest    = "ingest"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageModel     = "model"
	StageReport    = "report"
)

// Stage is one step of a run
type Stage struct {
	ID  string
	Run func(ctx context.Context) error
}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// StageState is the outcome of one stage
type StageState struct {
	ID        string
	Status    StageStatus
	StartTime time.Time
	EndTime   time.Time
	Error     error
}

// Duration returns how long the stage ran
func (s *StageState) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Runner executes stages in order and stops at the first failure. Each
// stage gets its own span when telemetry is set.
type Runner struct {
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
	states    []*StageState
}

// NewRunner creates a runner. telemetry may be nil.
func NewRunner(telemetry *infrastructure.Telemetry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{telemetry: telemetry, logger: logger}
}

// Run executes stages sequentially
func (r *Runner) Run(ctx context.Context, stages ...Stage) error {
	for _, stage := range stages {
		r.states = append(r.states, &StageState{ID: stage.ID, Status: StageStatusPending})
	}
	offset := len(r.states) - len(stages)

	for i, stage := range stages {
		state := r.states[offset+i]
		state.Status = StageStatusActive
		state.StartTime = time.Now()

		stageCtx, end := ctx, func(error) {}
		if r.telemetry != nil {
			stageCtx, end = r.telemetry.StartStage(ctx, stage.ID)
		}

		r.logger.DebugContext(stageCtx, "Stage started", slog.String("stage", stage.ID))
		err := stage.Run(stageCtx)
		end(err)
		state.EndTime = time.Now()

		if err != nil {
			state.Status = StageStatusFailed
			state.Error = err
			r.logger.ErrorContext(stageCtx, "Stage failed",
				slog.String("stage", stage.ID),
				slog.String("error", err.Error()))
			return fmt.Errorf("stage %s: %w", stage.ID, err)
		}

		state.Status = StageStatusCompleted
		r.logger.InfoContext(stageCtx, "Stage completed",
			slog.String("stage", stage.ID),
			slog.Duration("duration", state.Duration()))
	}
	return nil
}

// States returns the state of every stage seen so far
func (r *Runner) States() []*StageState {
	return r.states
}
