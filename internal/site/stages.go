package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Generator  *Generator
	Content    *content.Set
	StagingDir string
	Report     *BuildReport
	start      time.Time
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator: g,
		Report:    report,
		start:     time.Now(),
	}
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning-classified stage errors are recorded and the
// build proceeds.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	recorder := bs.Generator.recorder
	defer func() {
		bs.Report.Duration = time.Since(bs.start)
	}()
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.recordStage(st.name, 0, se, recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)

		if err == nil {
			bs.Report.recordStage(st.name, dur, nil, recorder)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.name, err)
		}
		bs.Report.recordStage(st.name, dur, se, recorder)

		if se.Kind == StageErrorWarning {
			continue
		}
		return se
	}

	if recorder != nil {
		recorder.ObserveBuildDuration(time.Since(bs.start))
	}
	return nil
}

func stageResultFor(se *StageError) metrics.ResultLabel {
	if se == nil {
		return metrics.ResultSuccess
	}
	switch se.Kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}
