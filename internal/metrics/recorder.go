// Package metrics records build observations. Components receive a Recorder;
// NoopRecorder is the default so callers never nil-check.
package metrics

import "time"

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines observability hooks for builds and their stages.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome Outcome)
	IncPagesRendered(kind string, n int)
	AddArtifacts(written, unchanged, pruned int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not served).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(Outcome)                    {}
func (NoopRecorder) IncPagesRendered(string, int)               {}
func (NoopRecorder) AddArtifacts(int, int, int)                 {}
