// Package executor runs a single test case and reports its verdict. The
// execution session depends only on the Executor interface, so a simulated
// run and a real remote backend are interchangeable.
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// Executor runs one test case.
type Executor interface {
	Run(ctx context.Context, c types.CaseView) (Outcome, error)
}

// Outcome is the verdict and evidence produced by one run.
type Outcome struct {
	Verdict     types.Verdict `json:"verdict"`
	Message     string        `json:"message"`
	Duration    time.Duration `json:"duration"`
	Screenshots []string      `json:"screenshots,omitempty"`
}

// Frameworks understood by the remote execution contract.
const (
	FrameworkPlaywright = "playwright"
	FrameworkPytest     = "pytest"
	FrameworkRobot      = "robot"
)

// FrameworkFor maps a case type to the framework that runs it.
func FrameworkFor(t types.CaseType) string {
	if t == types.TypeAPI {
		return FrameworkPytest
	}
	return FrameworkPlaywright
}

// ValidFramework reports whether name is a known framework.
func ValidFramework(name string) bool {
	switch name {
	case FrameworkPlaywright, FrameworkPytest, FrameworkRobot:
		return true
	}
	return false
}

// VerdictForStatus maps a remote status string to a verdict.
func VerdictForStatus(status string) types.Verdict {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "passed", "pass", "success":
		return types.VerdictPassed
	case "failed", "fail", "failure", "error":
		return types.VerdictFailed
	case "skipped", "skip":
		return types.VerdictSkipped
	}
	return types.VerdictNotTested
}

// FuncExecutor adapts a function to Executor.
type FuncExecutor func(ctx context.Context, c types.CaseView) (Outcome, error)

// Run calls f.
func (f FuncExecutor) Run(ctx context.Context, c types.CaseView) (Outcome, error) {
	return f(ctx, c)
}
