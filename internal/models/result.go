package models

import "fmt"

// StepStatus identifies how a pipeline step concluded.
type StepStatus string

const (
	// StepSuccess means the step ran (or was legitimately skipped) without issue.
	StepSuccess StepStatus = "success"

	// StepDegraded means the step hit a non-fatal failure that execution
	// deliberately continues past; the reason surfaces in the end-of-run
	// warnings summary.
	StepDegraded StepStatus = "degraded"

	// StepFatal aborts the whole run.
	StepFatal StepStatus = "fatal"
)

// StepResult is the outcome of a single pipeline step.
type StepResult struct {
	Step   string
	Status StepStatus
	Reason string
}

// Success returns a successful result for the named step.
func Success(step string) StepResult {
	return StepResult{Step: step, Status: StepSuccess}
}

// Degraded returns a degraded result with a formatted reason.
func Degraded(step, format string, args ...any) StepResult {
	return StepResult{Step: step, Status: StepDegraded, Reason: fmt.Sprintf(format, args...)}
}

// Fatal returns a fatal result with a formatted reason.
func Fatal(step, format string, args ...any) StepResult {
	return StepResult{Step: step, Status: StepFatal, Reason: fmt.Sprintf(format, args...)}
}

// RunResult aggregates the pipeline outcome.
type RunResult struct {
	Steps    []StepResult
	Warnings []string
	Fatal    *StepResult // nil on a run that made it to the end
}

// Failed reports whether the run terminated on a fatal step.
func (r *RunResult) Failed() bool {
	return r.Fatal != nil
}
