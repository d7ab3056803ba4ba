package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/pkg/types"
)

func sampleResult() types.TestResult {
	r := types.TestResult{
		ID:         "TR-1",
		PlanID:     "TP-1",
		PlanName:   "Smoke",
		ExecutedAt: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		Details: []types.ResultDetail{
			{ID: "TC_001", Name: "login", Module: "Auth", Scenario: "Login", Result: types.VerdictPassed},
			{ID: "TC_002", Name: "logout", Module: "Auth", Scenario: "Login", Result: types.VerdictFailed, Comments: "500 | retry\nagain"},
		},
	}
	r.Recount()
	return r
}

func TestResultMarkdown(t *testing.T) {
	md := ResultMarkdown(sampleResult())

	assert.True(t, strings.HasPrefix(md, "# Smoke\n"))
	assert.Contains(t, md, "| 2 | 1 | 1 | 0 | 0 |")
	assert.Contains(t, md, "| TC_002 | logout | Auth | Login | Failed | 500 \\| retry again |")
}

func TestResultMarkdownEvidence(t *testing.T) {
	r := sampleResult()
	assert.NotContains(t, ResultMarkdown(r), "## Evidence")

	r.Details[1].Screenshots = []string{"run-1/logout.png"}
	md := ResultMarkdown(r)
	assert.Contains(t, md, "## Evidence")
	assert.Contains(t, md, "- TC_002: `run-1/logout.png`")
}

func TestResultMarkdownEmpty(t *testing.T) {
	md := ResultMarkdown(types.TestResult{ID: "TR-2", PlanName: "Empty"})
	assert.Contains(t, md, "_No test cases._")
	assert.NotContains(t, md, "## Details")
}

func TestSummaryMarkdown(t *testing.T) {
	st := types.State{
		Modules: []types.Module{{ID: "m1", Name: "Auth"}},
		Results: []types.TestResult{sampleResult()},
	}
	md := SummaryMarkdown("Web", aggregate.Summarize(st))

	assert.Contains(t, md, "# Web")
	assert.Contains(t, md, "**Pass rate:** 50.0%")
	assert.Contains(t, md, "| Auth | 1 | 1 | 0 |")
	assert.Contains(t, md, "| **All** | 1 | 1 | 0 |")
}

func TestResultsMarkdown(t *testing.T) {
	md := ResultsMarkdown([]types.TestResult{sampleResult()})
	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "| TR-1 | Smoke |")
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, true).Render("# Title\n"))
	assert.Equal(t, "# Title\n", buf.String())
}

func TestRenderStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, false).Render("# Title\n"))
	assert.Contains(t, buf.String(), "Title")
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", Age(now, now.Add(-10*time.Second)))
	assert.Equal(t, "5m ago", Age(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", Age(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", Age(now, now.Add(-49*time.Hour)))
}
