package types

import (
	"strings"
	"time"
)

// Verdict is the outcome assigned to a test case during execution.
type Verdict string

// Recognized verdicts.
const (
	VerdictPassed    Verdict = "Passed"
	VerdictFailed    Verdict = "Failed"
	VerdictSkipped   Verdict = "Skipped"
	VerdictNotTested Verdict = "Not Tested"
)

// Valid reports whether v is one of the recognized verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictPassed, VerdictFailed, VerdictSkipped, VerdictNotTested:
		return true
	}
	return false
}

// ParseVerdict accepts the canonical names case-insensitively, plus the
// short forms pass, fail, skip and "not-tested".
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passed", "pass":
		return VerdictPassed, nil
	case "failed", "fail":
		return VerdictFailed, nil
	case "skipped", "skip":
		return VerdictSkipped, nil
	case "not tested", "not-tested", "nottested", "":
		return VerdictNotTested, nil
	}
	return "", ErrInvalidVerdict
}

// ResultDetail is the verdict recorded for one test case in a run.
type ResultDetail struct {
	Key      string  `json:"key,omitempty"`
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Module   string  `json:"module,omitempty"`
	Scenario string  `json:"scenario,omitempty"`
	Result   Verdict `json:"result"`
	Comments string  `json:"comments"`
	// Screenshots are evidence file names relative to the evidence
	// directory.
	Screenshots []string `json:"screenshots,omitempty"`
}

// TestResult is an immutable snapshot of one finished execution. Only
// PlanName may change after creation.
type TestResult struct {
	ID         string         `json:"id"`
	PlanID     string         `json:"planId"`
	PlanName   string         `json:"planName"`
	ExecutedAt time.Time      `json:"executedAt"`
	Total      int            `json:"total"`
	Passed     int            `json:"passed"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	NotTested  int            `json:"notTested"`
	Details    []ResultDetail `json:"details"`
}

// Recount derives the totals from Details. Unrecognized verdicts are counted
// as Not Tested and rewritten to VerdictNotTested.
func (r *TestResult) Recount() {
	r.Total, r.Passed, r.Failed, r.Skipped, r.NotTested = len(r.Details), 0, 0, 0, 0
	for i := range r.Details {
		switch r.Details[i].Result {
		case VerdictPassed:
			r.Passed++
		case VerdictFailed:
			r.Failed++
		case VerdictSkipped:
			r.Skipped++
		default:
			r.Details[i].Result = VerdictNotTested
			r.NotTested++
		}
	}
}

// Screenshots returns the evidence files of every detail in order, without
// duplicates.
func (r *TestResult) Screenshots() []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range r.Details {
		for _, name := range d.Screenshots {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Executed returns the number of cases that received a Passed, Failed or
// Skipped verdict.
func (r *TestResult) Executed() int {
	return r.Passed + r.Failed + r.Skipped
}

// Consistent reports whether Total equals the sum of the per-verdict counts.
func (r *TestResult) Consistent() bool {
	return r.Total == r.Passed+r.Failed+r.Skipped+r.NotTested
}
