// Package aggregate derives summary statistics from a project snapshot.
// Every function is pure and recomputes from its inputs.
package aggregate

import (
	"math"

	"github.com/besttest/besttest/pkg/types"
)

// UnknownModule is the bucket for result details without a module.
const UnknownModule = "Unknown"

// Counts tallies executed verdicts. Not Tested and unrecognized verdicts are
// never counted.
type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Total is Passed + Failed + Skipped.
func (c Counts) Total() int { return c.Passed + c.Failed + c.Skipped }

func (c *Counts) add(v types.Verdict) {
	switch v {
	case types.VerdictPassed:
		c.Passed++
	case types.VerdictFailed:
		c.Failed++
	case types.VerdictSkipped:
		c.Skipped++
	}
}

// ModuleCounts is the tally for one module.
type ModuleCounts struct {
	Module string `json:"module"`
	Counts
}

// GlobalCounts folds every detail of every result, across the whole
// history.
func GlobalCounts(results []types.TestResult) Counts {
	var c Counts
	for _, r := range results {
		for _, d := range r.Details {
			c.add(d.Result)
		}
	}
	return c
}

// PerModuleCounts buckets the same fold by detail module. Live modules are
// listed first, in hierarchy order, even when never executed; modules that
// only appear in results follow in first-seen order.
func PerModuleCounts(modules []types.Module, results []types.TestResult) []ModuleCounts {
	out := make([]ModuleCounts, 0, len(modules))
	index := make(map[string]int, len(modules))
	for _, m := range modules {
		if _, dup := index[m.Name]; dup {
			continue
		}
		index[m.Name] = len(out)
		out = append(out, ModuleCounts{Module: m.Name})
	}
	for _, r := range results {
		for _, d := range r.Details {
			name := d.Module
			if name == "" {
				name = UnknownModule
			}
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, ModuleCounts{Module: name})
			}
			out[i].add(d.Result)
		}
	}
	return out
}

// Segment is one arc of the status donut, expressed as an SVG-style dash:
// Length along the circumference and Offset where it starts.
type Segment struct {
	Verdict types.Verdict `json:"verdict"`
	Count   int           `json:"count"`
	Length  float64       `json:"length"`
	Offset  float64       `json:"offset"`
	// StartAngle is in degrees; -90 is twelve o'clock.
	StartAngle float64 `json:"startAngle"`
	SweepAngle float64 `json:"sweepAngle"`
}

// DonutStartAngle places the first segment at twelve o'clock.
const DonutStartAngle = -90.0

// DonutSegments lays Passed, Failed and Skipped out consecutively around a
// circle of the given radius. With a zero total every segment has zero
// length.
func DonutSegments(c Counts, radius float64) []Segment {
	circumference := 2 * math.Pi * radius
	total := c.Total()
	parts := []struct {
		v types.Verdict
		n int
	}{
		{types.VerdictPassed, c.Passed},
		{types.VerdictFailed, c.Failed},
		{types.VerdictSkipped, c.Skipped},
	}

	segs := make([]Segment, 0, len(parts))
	offset, angle := 0.0, DonutStartAngle
	for _, p := range parts {
		seg := Segment{Verdict: p.v, Count: p.n, Offset: offset, StartAngle: angle}
		if total > 0 {
			frac := float64(p.n) / float64(total)
			seg.Length = frac * circumference
			seg.SweepAngle = frac * 360
		}
		offset += seg.Length
		angle += seg.SweepAngle
		segs = append(segs, seg)
	}
	return segs
}

// PlanCompletion is the executed share of the latest result for plan, in
// percent. It is 0 without a result, when the result belongs to another
// plan, or when the result is empty.
func PlanCompletion(plan types.TestPlan, latest *types.TestResult) float64 {
	if latest == nil || latest.PlanID != plan.ID || latest.Total == 0 {
		return 0
	}
	return float64(latest.Executed()) / float64(latest.Total) * 100
}

// PassRate is Passed over executed verdicts, in percent.
func PassRate(c Counts) float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Passed) / float64(c.Total()) * 100
}

// Summary is the data behind the project summary view.
type Summary struct {
	TotalCases int            `json:"totalCases"`
	Modules    int            `json:"modules"`
	Plans      int            `json:"plans"`
	Executions int            `json:"executions"`
	Global     Counts         `json:"global"`
	PassRate   float64        `json:"passRate"`
	PerModule  []ModuleCounts `json:"perModule"`
	Donut      []Segment      `json:"donut"`
}

// DefaultDonutRadius matches the summary chart.
const DefaultDonutRadius = 70.0

// Summarize computes the summary of a project state.
func Summarize(st types.State) Summary {
	global := GlobalCounts(st.Results)
	return Summary{
		TotalCases: st.CaseCount(),
		Modules:    len(st.Modules),
		Plans:      len(st.Plans),
		Executions: len(st.Results),
		Global:     global,
		PassRate:   PassRate(global),
		PerModule:  PerModuleCounts(st.Modules, st.Results),
		Donut:      DonutSegments(global, DefaultDonutRadius),
	}
}
