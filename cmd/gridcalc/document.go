package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gridcalc/gridcalc"
)

// document is the YAML workbook form the CLI consumes. cells map A1-style
// references to values; strings starting with "=" are formulas.
type document struct {
	Sheets []documentSheet   `yaml:"sheets"`
	Names  map[string]string `yaml:"names"`
}

type documentSheet struct {
	Name  string         `yaml:"name"`
	Cells map[string]any `yaml:"cells"`
}

func loadDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	if len(doc.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return &doc, nil
}

// buildWorkbook populates an engine workbook from a document. cell keys
// are applied in sorted order so load failures are deterministic.
func buildWorkbook(doc *document) (*gridcalc.Workbook, error) {
	wb := gridcalc.NewWorkbook()

	for _, ds := range doc.Sheets {
		if _, err := wb.AddSheet(ds.Name); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(doc.Names))
	for name := range doc.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := wb.DefineName(name, doc.Names[name]); err != nil {
			return nil, err
		}
	}

	for idx, ds := range doc.Sheets {
		refs := make([]string, 0, len(ds.Cells))
		for ref := range ds.Cells {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			row, col, err := gridcalc.ParseCellRef(ref)
			if err != nil {
				return nil, fmt.Errorf("sheet %s: %w", ds.Name, err)
			}
			addr := gridcalc.CellAddress{Sheet: idx, Row: row, Col: col}
			if err := setDocumentCell(wb, addr, ds.Cells[ref]); err != nil {
				return nil, fmt.Errorf("sheet %s cell %s: %w", ds.Name, ref, err)
			}
		}
	}
	return wb, nil
}

func setDocumentCell(wb *gridcalc.Workbook, addr gridcalc.CellAddress, raw any) error {
	switch v := raw.(type) {
	case string:
		if strings.HasPrefix(v, "=") {
			return wb.SetFormula(addr, v)
		}
		return wb.SetCell(addr, gridcalc.TextValue(v))
	case bool:
		return wb.SetCell(addr, gridcalc.BoolValue(v))
	case int:
		return wb.SetCell(addr, gridcalc.NumberValue(float64(v)))
	case int64:
		return wb.SetCell(addr, gridcalc.NumberValue(float64(v)))
	case float64:
		return wb.SetCell(addr, gridcalc.NumberValue(v))
	case nil:
		return nil
	}
	return fmt.Errorf("unsupported cell value %v (%T)", raw, raw)
}

// renderResults prints every occupied cell's calculated value per sheet,
// followed by one stats line. output is deterministic for a given
// workbook.
func renderResults(wb *gridcalc.Workbook, stats gridcalc.CalcStats) string {
	var sb strings.Builder
	for idx, name := range wb.Sheets() {
		fmt.Fprintf(&sb, "%s:\n", name)
		for _, addr := range wb.UsedCells(idx) {
			value, err := wb.GetCalculatedValue(addr)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "  %s: %s\n", gridcalc.FormatCellRef(addr.Row, addr.Col), value.Display())
		}
	}
	fmt.Fprintf(&sb, "stats: formulas=%d calculated=%d errors=%d circular=%d converged=%t iterations=%d\n",
		stats.FormulaCount, stats.CellsCalculated, stats.Errors,
		stats.CircularReferences, stats.Converged, stats.Iterations)
	return sb.String()
}
