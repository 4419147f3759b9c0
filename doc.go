// Package gridcalc is a spreadsheet formula calculation engine: it
// stores typed cell values across named sheets, parses user-entered
// formulas, discovers dependencies (including cross-sheet and named
// references), schedules evaluation topologically, isolates reference
// cycles, and optionally relaxes them iteratively.
package gridcalc
