package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/besttest/besttest/internal/sqlite"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// readImportFile parses a .json array of records, a .csv file with a header
// row or the first sheet of an .xlsx workbook.
func readImportFile(path string) ([]store.ImportRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks are not supported, save as .xlsx", path)
	case ".json", ".csv":
	default:
		return nil, fmt.Errorf("%s: unsupported file type (want .csv, .json or .xlsx)", path)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var records []store.ImportRecord
		if err := json.NewDecoder(fh).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return records, nil
	}
	return readCSV(fh)
}

// importColumns lists the accepted header names per record field, in
// preference order. Headers are compared lower-cased.
var importColumns = []struct {
	field   string
	headers []string
}{
	{"name", []string{"name", "test name", "test case description", "testname", "test case", "test_name", "tc id"}},
	{"category", []string{"category", "module name", "test scenario description", "module", "feature"}},
	{"framework", []string{"framework", "type"}},
	{"priority", []string{"priority"}},
	{"tags", []string{"tags", "tag"}},
	{"description", []string{"description", "test objective", "details", "expected result"}},
}

// columnIndex maps each record field to its matching header columns, in
// preference order.
func columnIndex(header []string) map[string][]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, ok := pos[h]; !ok && h != "" {
			pos[h] = i
		}
	}
	cols := make(map[string][]int, len(importColumns))
	for _, c := range importColumns {
		for _, h := range c.headers {
			if i, ok := pos[h]; ok {
				cols[c.field] = append(cols[c.field], i)
			}
		}
	}
	return cols
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// recordFor builds one record from a data row. Each field takes the first
// non-blank cell among its columns.
func recordFor(cols map[string][]int, row []string) store.ImportRecord {
	field := func(name string) string {
		for _, i := range cols[name] {
			if i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}
	return store.ImportRecord{
		Name:        field("name"),
		Category:    field("category"),
		Framework:   field("framework"),
		Priority:    field("priority"),
		Tags:        splitTags(field("tags")),
		Description: field("description"),
	}
}

// readCSV maps columns by header name; see importColumns for the accepted
// names. Tags are separated by ',', ';' or '|'.
func readCSV(r io.Reader) ([]store.ImportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("csv header has no name column")
	}

	var records []store.ImportRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, recordFor(cols, row))
	}
	return records, nil
}

// readXLSX reads the first sheet of a workbook. Its first row is the
// header; blank rows below it are skipped.
func readXLSX(path string) ([]store.ImportRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return recordsFromRows(rows)
}

// recordsFromRows converts the rows below the header row.
func recordsFromRows(rows [][]string) ([]store.ImportRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := columnIndex(rows[0])
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("sheet header has no test name column")
	}
	var records []store.ImportRecord
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, recordFor(cols, row))
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// templateSheet is the sheet written by writeTemplate.
const templateSheet = "Test Cases"

var templateRows = [][]any{
	{"Test Name", "Category", "Framework", "Priority", "Tags", "Description"},
	{"Login with valid credentials", "Authentication", "playwright", "high", "smoke,login", "Test user login with correct username and password"},
	{"API - Create User", "User Management", "pytest", "medium", "api,user,crud", "Test POST /api/users endpoint"},
	{"Checkout Flow", "E-Commerce", "robot", "high", "e2e,checkout", "Test complete checkout process"},
}

// writeTemplate saves an example workbook in the layout readXLSX accepts.
func writeTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}
	for i, row := range templateRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(templateSheet, cell, &row); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(templateSheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(templateSheet, "A", "F", 28); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save template %s: %w", path, err)
	}
	return nil
}

func newImportCmd(f *rootFlags) *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "import <file.csv|file.json|file.xlsx>",
		Short: "Import test cases grouped by category",
		Long: "Each category becomes a module (existing modules with the same name are\n" +
			"reused) holding a \"Default Scenario\". The import is all or nothing.\n\n" +
			"--template writes an example .xlsx workbook instead of importing.",
		Args: func(cmd *cobra.Command, args []string) error {
			if template != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if template != "" {
				if !strings.EqualFold(filepath.Ext(template), ".xlsx") {
					return userErrf("template must be an .xlsx file: %s", template)
				}
				if err := writeTemplate(template); err != nil {
					return sysErr(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓"), "wrote template", template)
				return nil
			}
			records, err := readImportFile(args[0])
			if err != nil {
				return userErrf("%w", err)
			}
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				sum, err := st.ImportRecords(records)
				if err != nil {
					return err
				}
				return a.emit(sum, func() {
					fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf("imported %d test cases", sum.Cases))
					if len(sum.ModulesCreated) > 0 {
						fmt.Fprintf(a.out, "  new modules: %s\n", strings.Join(sum.ModulesCreated, ", "))
					}
					if len(sum.ModulesReused) > 0 {
						fmt.Fprintf(a.out, "  existing modules: %s\n", strings.Join(sum.ModulesReused, ", "))
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "write an example .xlsx workbook to this path")
	return cmd
}

// jsonlImporter is implemented by the SQL backends.
type jsonlImporter interface {
	ImportJSONL(dir string) (int, error)
}

var _ jsonlImporter = (*sqlite.Backend)(nil)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy a jsonl data directory into the SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				imp, ok := a.repo.(jsonlImporter)
				if !ok {
					return userErrf("migrate needs the sqlite or mysql backend, not %s", a.settings.Backend)
				}
				n, err := imp.ImportJSONL(from)
				if err != nil {
					return sysErr(err)
				}
				return a.emit(map[string]int{"namespaces": n}, func() {
					fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf("migrated %d namespaces from %s", n, from))
				})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "jsonl data directory")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
