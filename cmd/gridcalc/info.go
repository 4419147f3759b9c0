package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridcalc/gridcalc"
)

var infoCmd = &cobra.Command{
	Use:   "info <workbook.yaml>",
	Short: "Show sheets, extents, and names of a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	wb, err := buildWorkbook(doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for idx, name := range wb.Sheets() {
		cells := wb.UsedCells(idx)
		formulas := 0
		for _, addr := range cells {
			v, err := wb.GetCell(addr)
			if err == nil && v.Kind == gridcalc.KindFormula {
				formulas++
			}
		}
		extent := "empty"
		if r, ok := wb.UsedRange(idx); ok {
			extent = gridcalc.FormatCellRef(r.StartRow, r.StartCol) + ":" +
				gridcalc.FormatCellRef(r.EndRow, r.EndCol)
		}
		fmt.Fprintf(out, "%s: %d cells (%d formulas), used range %s\n",
			name, len(cells), formulas, extent)
	}

	names := make([]string, 0, len(doc.Names))
	for name := range doc.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if def, ok := wb.NamedRange(name); ok {
			fmt.Fprintf(out, "name %s = %s\n", name, strings.TrimSpace(def))
		}
	}
	return nil
}
