package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/internal/evidence"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// cliEnv runs the root command in-process against temporary directories.
type cliEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
	backend   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	color.NoColor = true
	t.Setenv(EnvProject, "")
	dir := t.TempDir()
	return &cliEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
		backend:   types.BackendJSONL,
	}
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	base := []string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--backend", e.backend}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	require.NoError(e.t, err, "besttest %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

// runJSON runs with --json and decodes stdout into v.
func (e *cliEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append(args, "--json")...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}

func (e *cliEnv) writeConfig(content string) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(e.t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(content), 0o644))
}

// seed creates project Web with module Cart, scenario Add and two cases.
func (e *cliEnv) seed() (types.Project, []types.TestCase) {
	e.t.Helper()
	var p types.Project
	e.runJSON(&p, "project", "create", "Web")
	e.mustRun("-p", "Web", "module", "add", "Cart")
	e.mustRun("-p", "Web", "scenario", "add", "Cart", "Add")

	var cases []types.TestCase
	for _, name := range []string{"add one", "add many"} {
		var tc types.TestCase
		e.runJSON(&tc, "-p", "Web", "case", "add", "Cart", "Add", "--name", name, "--priority", "high")
		cases = append(cases, tc)
	}
	return p, cases
}

func TestVersion(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "besttest v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("init")
	assert.Contains(t, out, "besttest initialized (jsonl backend)")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.DirExists(t, e.dataDir)
}

func TestHierarchyCommands(t *testing.T) {
	e := newCLIEnv(t)
	p, cases := e.seed()

	var projects []types.Project
	e.runJSON(&projects, "project", "list")
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)
	assert.Equal(t, 2, projects[0].CaseCount)

	e.mustRun("-p", p.ID, "case", "update", cases[0].Key, "--type", "API", "--steps", "open cart")
	var cv types.CaseView
	e.runJSON(&cv, "-p", "Web", "case", "show", cases[0].Key)
	assert.Equal(t, types.TypeAPI, cv.Type)
	assert.Equal(t, "open cart", cv.Steps)
	assert.Equal(t, types.PriorityHigh, cv.Priority, "unset flags keep their value")
	assert.Equal(t, "Cart", cv.ModuleName)

	var dup types.TestCase
	e.runJSON(&dup, "-p", "Web", "case", "duplicate", cases[0].Key)
	assert.Equal(t, cases[0].ID+"_copy", dup.ID)

	out := e.mustRun("-p", "Web", "case", "regen-ids")
	assert.Contains(t, out, "relabeled 3 test cases")

	var found []types.CaseView
	e.runJSON(&found, "-p", "Web", "case", "list", "-q", "TC_00")
	require.Len(t, found, 3)
	assert.Equal(t, "TC_001", found[0].ID)
	assert.Equal(t, dup.Key, found[1].Key, "duplicate sits after the original")

	out = e.mustRun("-p", "Web", "module", "list")
	assert.Contains(t, out, "Cart")
	assert.Contains(t, out, "TC_003")

	e.mustRun("-p", "Web", "module", "toggle", "cart")
	out = e.mustRun("-p", "Web", "module", "list")
	assert.NotContains(t, out, "TC_003", "collapsed modules hide their cases")

	e.mustRun("-p", "Web", "scenario", "rename", "Cart", "Add", "Adding")
	e.mustRun("-p", "Web", "scenario", "delete", "Cart", "Adding")
	e.runJSON(&projects, "project", "list")
	assert.Equal(t, 0, projects[0].CaseCount)

	e.mustRun("project", "rename", "Web", "Web Shop")
	e.mustRun("project", "status", "Web Shop", "Archived")
	var got types.Project
	e.runJSON(&projects, "project", "list")
	got = projects[0]
	assert.Equal(t, "Web Shop", got.Name)
	assert.Equal(t, types.ProjectStatusArchived, got.Status)

	e.mustRun("project", "delete", p.ID)
	e.runJSON(&projects, "project", "list")
	assert.Empty(t, projects)
}

func TestPlanRunAndResults(t *testing.T) {
	e := newCLIEnv(t)
	_, cases := e.seed()

	var plan types.TestPlan
	e.runJSON(&plan, "-p", "Web", "plan", "create", "Smoke", "-c", cases[0].Key, "-c", cases[1].Key)
	require.Len(t, plan.TestCases, 2)

	var r types.TestResult
	e.runJSON(&r, "-p", "Web", "run", "--plan", plan.ID, "--verdict", cases[1].Key+"=fail:button missing")
	assert.Equal(t, plan.ID, r.PlanID)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.NotTested)

	var comp map[string]any
	e.runJSON(&comp, "-p", "Web", "plan", "completion", plan.ID)
	assert.InDelta(t, 50.0, comp["completion"], 1e-9)

	out := e.mustRun("-p", "Web", "result", "show", r.ID, "--plain")
	assert.Contains(t, out, "# Smoke")
	assert.Contains(t, out, "| Failed | button missing |")

	e.mustRun("-p", "Web", "result", "rename", r.ID, "Smoke #1")
	var renamed types.TestResult
	e.runJSON(&renamed, "-p", "Web", "result", "show", r.ID)
	assert.Equal(t, "Smoke #1", renamed.PlanName)
	assert.Equal(t, r.Failed, renamed.Failed)

	var sum aggregate.Summary
	e.runJSON(&sum, "-p", "Web", "summary")
	assert.Equal(t, 1, sum.Global.Failed)
	assert.Equal(t, 1, sum.Executions)

	out = e.mustRun("-p", "Web", "summary", "--plain")
	assert.Contains(t, out, "| Cart | 0 | 1 | 0 |")

	e.mustRun("-p", "Web", "case", "delete", cases[0].Key)
	out = e.mustRun("-p", "Web", "plan", "show", plan.ID)
	assert.Contains(t, out, "(deleted case)")

	_, stderr, err := e.run("-p", "Web", "run", "--plan", plan.ID)
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipping 1 deleted test cases")

	var dupPlan types.TestPlan
	e.runJSON(&dupPlan, "-p", "Web", "plan", "duplicate", plan.ID)
	assert.Equal(t, "Smoke (copy)", dupPlan.Title)
	e.mustRun("-p", "Web", "plan", "update", dupPlan.ID, "--title", "Regression")

	var rows []planRow
	e.runJSON(&rows, "-p", "Web", "plan", "list")
	require.Len(t, rows, 2)
	assert.Equal(t, "Regression", rows[1].Title)

	e.mustRun("-p", "Web", "plan", "delete", plan.ID)
	var results []types.TestResult
	e.runJSON(&results, "-p", "Web", "result", "list")
	assert.Len(t, results, 2, "results outlive their plan")
}

func TestRunAuto(t *testing.T) {
	e := newCLIEnv(t)
	e.writeConfig("backend: jsonl\npass_ratio: 1\n")
	e.seed()

	var r types.TestResult
	e.runJSON(&r, "-p", "Web", "run", "--auto", "--seed", "7")
	assert.Equal(t, types.ManualPlanID, r.PlanID)
	assert.Equal(t, types.ManualPlanTitle, r.PlanName)
	assert.Equal(t, 2, r.Passed)
}

func TestImportCSV(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()

	path := filepath.Join(t.TempDir(), "cases.csv")
	csvData := "name,category,framework,priority,tags\n" +
		"Create user,Users,pytest,high,api;smoke\n" +
		"Add item,Cart,playwright,,\n" +
		",,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	var sum store.ImportSummary
	e.runJSON(&sum, "-p", "Web", "import", path)
	assert.Equal(t, 3, sum.Cases)
	assert.Equal(t, []string{"Users", "General"}, sum.ModulesCreated)
	assert.Equal(t, []string{"Cart"}, sum.ModulesReused)

	var modules []types.Module
	e.runJSON(&modules, "-p", "Web", "module", "list")
	require.Len(t, modules, 3)
	assert.Equal(t, types.TypeAPI, modules[1].Scenarios[0].TestCases[0].Type)
	assert.Equal(t, "api, smoke", modules[1].Scenarios[0].TestCases[0].Reference)

	_, _, err := e.run("-p", "Web", "import", filepath.Join(t.TempDir(), "cases.xml"))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestReadCSV(t *testing.T) {
	records, err := readCSV(strings.NewReader("Name , Tags\nlogin,a|b;c\nshort\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "login", records[0].Name)
	assert.Equal(t, []string{"a", "b", "c"}, records[0].Tags)
	assert.Empty(t, records[1].Tags)

	_, err = readCSV(strings.NewReader("title\nx\n"))
	assert.Error(t, err)

	records, err = readCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.xlsx")
	wb := excelize.NewFile()
	rows := [][]any{
		{"TC ID", "Module Name", "Test Case Description", "Type", "priority", "Tags"},
		{"TC-1", "Checkout", "Pay by card", "API", "Critical", "pay; card"},
		{},
		{"TC-2", "", "", "UI", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	records, err := readImportFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, store.ImportRecord{
		Name: "Pay by card", Category: "Checkout", Framework: "API", Priority: "Critical",
		Tags: []string{"pay", "card"},
	}, records[0])
	assert.Equal(t, "TC-2", records[1].Name, "falls back to the id column")

	_, err = recordsFromRows([][]string{{"Regression suite"}, {"Test Name"}, {"login"}})
	assert.Error(t, err, "the header is the first row")

	_, err = readImportFile(filepath.Join(t.TempDir(), "old.xls"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xlsx")
}

func TestImportTemplate(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()

	path := filepath.Join(t.TempDir(), "test_cases_template.xlsx")
	out := e.mustRun("import", "--template", path)
	assert.Contains(t, out, "wrote template")

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{templateSheet}, wb.GetSheetList())
	header, err := wb.GetRows(templateSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Name", "Category", "Framework", "Priority", "Tags", "Description"}, header[0])
	require.NoError(t, wb.Close())

	var sum store.ImportSummary
	e.runJSON(&sum, "-p", "Web", "import", path)
	assert.Equal(t, 3, sum.Cases)
	assert.Equal(t, []string{"Authentication", "User Management", "E-Commerce"}, sum.ModulesCreated)

	_, _, err = e.run("import", "--template", filepath.Join(t.TempDir(), "t.csv"))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestMigrate(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()
	jsonlDir := e.dataDir

	e.backend = types.BackendSQLite
	e.dataDir = filepath.Join(t.TempDir(), "sql")
	_, _, err := e.run("migrate", "--from", jsonlDir)
	require.NoError(t, err)

	var projects []types.Project
	e.runJSON(&projects, "project", "list")
	require.Len(t, projects, 1)
	assert.Equal(t, 2, projects[0].CaseCount)

	e.backend = types.BackendJSONL
	_, _, err = e.run("migrate", "--from", jsonlDir)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestConfigCommands(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("config", "use", "prod")

	var s map[string]any
	e.runJSON(&s, "config", "show")
	assert.Equal(t, "prod", s["active_env"])

	_, _, err := e.run("config", "use", "staging")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestErrors(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no project selected", []string{"module", "list"}, exitUserError},
		{"unknown project", []string{"-p", "nope", "module", "list"}, exitUserError},
		{"invalid priority", []string{"-p", "Web", "case", "add", "Cart", "Add", "--name", "x", "--priority", "urgent"}, exitUserError},
		{"blank module name", []string{"-p", "Web", "module", "add", " "}, exitUserError},
		{"unknown plan", []string{"-p", "Web", "run", "--plan", "TP-missing"}, exitUserError},
		{"bad verdict", []string{"-p", "Web", "run", "--verdict", "x"}, exitUserError},
		{"reset without confirmation", []string{"reset"}, exitUserError},
		{"unknown backend", []string{"--backend", "redis", "project", "list"}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestSoftFailIsNotAnError(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()

	_, stderr, err := e.run("-p", "Web", "result", "delete", "TR-missing")
	require.NoError(t, err)
	assert.Contains(t, stderr, "nothing changed")
}

func TestProjectFromEnv(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()
	t.Setenv(EnvProject, "web")

	var modules []types.Module
	e.runJSON(&modules, "module", "list")
	assert.Len(t, modules, 1)
}

func TestReset(t *testing.T) {
	e := newCLIEnv(t)
	e.seed()
	out := e.mustRun("reset", "--yes")
	assert.Contains(t, out, "removed 1 projects")

	var projects []types.Project
	e.runJSON(&projects, "project", "list")
	assert.Empty(t, projects)
}

func TestEvidenceCommands(t *testing.T) {
	e := newCLIEnv(t)
	_, cases := e.seed()

	out := e.mustRun("result", "evidence", "list")
	assert.Contains(t, out, "No evidence in")

	shots := filepath.Join(e.dataDir, "evidence")
	require.NoError(t, os.MkdirAll(filepath.Join(shots, "run-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shots, "run-1", "add.png"), []byte("png"), 0o644))

	var r types.TestResult
	e.runJSON(&r, "-p", "Web", "run",
		"--verdict", cases[0].Key+"=fail",
		"--evidence", cases[0].Key+"=run-1/add.png, gone.png")
	assert.Equal(t, []string{"run-1/add.png", "gone.png"}, r.Details[0].Screenshots)

	out = e.mustRun("-p", "Web", "result", "show", r.ID, "--plain")
	assert.Contains(t, out, "run-1/add.png")

	var files []evidence.File
	e.runJSON(&files, "result", "evidence", "list")
	require.Len(t, files, 1)
	assert.Equal(t, "run-1/add.png", files[0].Path)

	var attached []evidence.Attachment
	e.runJSON(&attached, "-p", "Web", "result", "evidence", "list", r.ID)
	require.Len(t, attached, 2)
	assert.NotNil(t, attached[0].File)
	assert.Nil(t, attached[1].File)

	e.mustRun("result", "evidence", "delete", "run-1/add.png")
	assert.NoFileExists(t, filepath.Join(shots, "run-1", "add.png"))
	_, stderr, err := e.run("result", "evidence", "delete", "run-1/add.png")
	require.NoError(t, err)
	assert.Contains(t, stderr, "nothing changed")

	_, _, err = e.run("result", "evidence", "delete", "../config/config.yaml")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))

	_, _, err = e.run("-p", "Web", "run", "--evidence", "nope")
	assert.Error(t, err)
}

func TestParseEvidenceFlag(t *testing.T) {
	ref, files, err := parseEvidenceFlag("TC_1=a.png, b/c.png,")
	require.NoError(t, err)
	assert.Equal(t, "TC_1", ref)
	assert.Equal(t, []string{"a.png", "b/c.png"}, files)

	for _, raw := range []string{"TC_1", "=a.png", "TC_1= , "} {
		_, _, err := parseEvidenceFlag(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseVerdictFlag(t *testing.T) {
	tests := []struct {
		raw     string
		ref     string
		verdict types.Verdict
		comment string
		wantErr bool
	}{
		{raw: "TC_1=pass", ref: "TC_1", verdict: types.VerdictPassed},
		{raw: "TC_1=Failed: timeout: 30s", ref: "TC_1", verdict: types.VerdictFailed, comment: "timeout: 30s"},
		{raw: " k = skip", ref: "k", verdict: types.VerdictSkipped},
		{raw: "TC_1", wantErr: true},
		{raw: "=pass", wantErr: true},
		{raw: "TC_1=maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, v, comment, err := parseVerdictFlag(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ref, ref)
			assert.Equal(t, tt.verdict, v)
			assert.Equal(t, tt.comment, comment)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrInvalidName))
	assert.Equal(t, exitSysError, exitCode(&types.PersistError{Op: "save", Err: errors.New("disk full")}))
	assert.Equal(t, exitSysError, exitCode(sysErr(errors.New("boom"))))
	assert.Equal(t, exitUserError, exitCode(userErrf("bad")))
}
