package store

import (
	"fmt"
	"strings"

	"github.com/besttest/besttest/pkg/types"
)

// Defaults applied to imported records.
const (
	DefaultImportCategory = "General"
	DefaultScenarioName   = "Default Scenario"
)

// ImportRecord is one flat row produced by a spreadsheet or JSON importer.
type ImportRecord struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Framework   string   `json:"framework"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// ImportSummary reports what an import added.
type ImportSummary struct {
	Cases           int      `json:"cases"`
	ModulesCreated  []string `json:"modulesCreated"`
	ModulesReused   []string `json:"modulesReused"`
	ScenarioCreated int      `json:"scenariosCreated"`
}

// FrameworkCaseType maps an importer framework column to a case type.
// Anything unrecognized is a UI test.
func FrameworkCaseType(framework string) types.CaseType {
	f := strings.ToLower(strings.TrimSpace(framework))
	switch {
	case strings.Contains(f, "api"), strings.Contains(f, "pytest"):
		return types.TypeAPI
	case strings.Contains(f, "e2e"):
		return types.TypeE2E
	case strings.Contains(f, "function"):
		return types.TypeFunction
	default:
		return types.TypeUI
	}
}

// importPriority is the lenient priority match used for imported rows.
func importPriority(raw string) types.Priority {
	p := strings.ToLower(raw)
	switch {
	case strings.Contains(p, "high"), strings.Contains(p, "critical"):
		return types.PriorityHigh
	case strings.Contains(p, "low"):
		return types.PriorityLow
	default:
		return types.PriorityMedium
	}
}

// ImportRecords converts records into test cases. Each category becomes a
// module (an existing module with the same name is reused) holding a
// "Default Scenario". The whole batch is applied to a copy of the state and
// swapped in only once every record has been converted.
func (s *Store) ImportRecords(records []ImportRecord) (ImportSummary, error) {
	if len(records) == 0 {
		return ImportSummary{}, types.ErrEmptyImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	var sum ImportSummary
	created := make(map[string]bool)
	reused := make(map[string]bool)
	now := s.now()

	for i, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = fmt.Sprintf("Test %d", i+1)
		}
		category := strings.TrimSpace(rec.Category)
		if category == "" {
			category = DefaultImportCategory
		}

		m := moduleByName(&next, category)
		if m == nil {
			next.Modules = append(next.Modules, types.Module{
				ID: newID(), Name: category, Expanded: true, Scenarios: []types.Scenario{},
			})
			m = &next.Modules[len(next.Modules)-1]
			created[category] = true
			sum.ModulesCreated = append(sum.ModulesCreated, category)
		} else if !created[category] && !reused[category] {
			reused[category] = true
			sum.ModulesReused = append(sum.ModulesReused, category)
		}

		sc := scenarioByName(m, DefaultScenarioName)
		if sc == nil {
			m.Scenarios = append(m.Scenarios, types.Scenario{
				ID: newID(), Name: DefaultScenarioName, Expanded: true, TestCases: []types.TestCase{},
			})
			sc = &m.Scenarios[len(m.Scenarios)-1]
			sum.ScenarioCreated++
		}

		tc, err := normalizeCase(types.TestCase{
			Name:      name,
			Priority:  importPriority(rec.Priority),
			Type:      FrameworkCaseType(rec.Framework),
			Steps:     strings.TrimSpace(rec.Description),
			Reference: strings.Join(cleanTags(rec.Tags), ", "),
		})
		if err != nil {
			return ImportSummary{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		tc.Key = newID()
		tc.ID = fmt.Sprintf("TC_%d", now.UnixMilli()+int64(i))
		tc.Status = types.CaseStatusNotStarted
		sc.TestCases = append(sc.TestCases, tc)
		sum.Cases++
	}

	s.state = next
	s.logger.Info("import applied", "cases", sum.Cases, "modules_created", len(sum.ModulesCreated))
	return sum, s.persist("import")
}

func moduleByName(st *types.State, name string) *types.Module {
	for i := range st.Modules {
		if st.Modules[i].Name == name {
			return &st.Modules[i]
		}
	}
	return nil
}

func scenarioByName(m *types.Module, name string) *types.Scenario {
	for i := range m.Scenarios {
		if m.Scenarios[i].Name == name {
			return &m.Scenarios[i]
		}
	}
	return nil
}

// cleanTags trims tags and drops empty ones. A single overlong tag is cut
// to 50 characters.
func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 1 && len([]rune(out[0])) > 50 {
		out[0] = string([]rune(out[0])[:50]) + "..."
	}
	return out
}
