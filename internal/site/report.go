package site

import (
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Outcome is the final classification of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// BuildReport aggregates what happened during a build: timings, counters and
// non-fatal warnings. It is the one artifact callers inspect after Build.
type BuildReport struct {
	Outcome     Outcome
	ContentHash string
	Signature   string

	Pages   int // HTML pages written
	Posts   int // content files rendered
	Assets  int // files copied through
	Skipped int // drafts/future posts excluded

	Duration       time.Duration
	StageDurations map[string]time.Duration
	StageResults   map[string]string

	Warnings []error
	Errors   []error
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		Outcome:        OutcomeFailed,
		StageDurations: map[string]time.Duration{},
		StageResults:   map[string]string{},
	}
}

func (r *BuildReport) recordStage(stage string, dur time.Duration, se *StageError, recorder metrics.Recorder) {
	r.StageDurations[stage] = dur
	result := stageResultFor(se)
	r.StageResults[stage] = string(result)

	switch {
	case se == nil:
	case se.Kind == StageErrorWarning:
		r.Warnings = append(r.Warnings, se)
	default:
		r.Errors = append(r.Errors, se)
	}

	if recorder != nil {
		recorder.ObserveStageDuration(stage, dur)
		recorder.IncStageResult(stage, result)
	}
}
