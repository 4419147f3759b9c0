package gridcalc

// CalcOptions controls one calculation pass.
type CalcOptions struct {
	// Iterative hands circular components to the relaxation solver
	// instead of evaluating them once best-effort.
	Iterative bool
	// MaxIterations caps relaxation passes.
	MaxIterations int
	// MaxChange is the convergence threshold: relaxation stops once the
	// largest absolute numeric change in a pass is at or below it.
	MaxChange float64
}

// DefaultCalcOptions returns the engine defaults: non-iterative, with
// the cap and threshold used as safety nets when iteration is enabled.
func DefaultCalcOptions() CalcOptions {
	return CalcOptions{
		Iterative:     false,
		MaxIterations: 100,
		MaxChange:     0.001,
	}
}

// CalcStats describes one completed calculation pass.
type CalcStats struct {
	// FormulaCount is the number of formula cells present at pass start.
	FormulaCount int
	// CellsCalculated is the number of formula cells evaluated.
	CellsCalculated int
	// Errors counts cells whose final value is a spreadsheet error.
	Errors int
	// CircularReferences counts cells belonging to any circular
	// component, once per cell regardless of component size.
	CircularReferences int
	// Converged reports whether iterative relaxation settled below the
	// change threshold. always false when circular cells exist and
	// iterative mode is off.
	Converged bool
	// Iterations is the number of relaxation passes executed; 0 or 1 in
	// non-iterative mode.
	Iterations int
}

// Calculate runs one full pass with engine defaults.
func (wb *Workbook) Calculate() CalcStats {
	return wb.CalculateWithOptions(DefaultCalcOptions())
}

// CalculateWithOptions runs one full calculation pass: rebuild the
// dependency graph, schedule, evaluate the acyclic order, then handle
// circular components. only cached formula results and the returned
// stats are mutated; authored text and direct values never are.
// calculation never fails as a whole — a failing cell is contained to
// its own error value.
func (wb *Workbook) CalculateWithOptions(opts CalcOptions) CalcStats {
	var stats CalcStats

	formulas := wb.formulaCells()
	stats.FormulaCount = len(formulas)

	graph := buildGraph(wb, formulas)
	sched := buildSchedule(graph)
	stats.CircularReferences = len(sched.circular)

	evaluate := func(cell CellAddress) CellValue {
		ctx := &calcContext{
			env:    wb,
			base:   cell.Sheet,
			lookup: wb.calculatedValue,
		}
		return evalNode(ctx, formulas[cell])
	}

	// acyclic cells downstream of a cycle wait until the circular set
	// has settled; evaluating them now would cache pre-solve values
	for _, cell := range sched.acyclic {
		if _, deferred := sched.downstream[cell]; deferred {
			continue
		}
		wb.storeResult(cell, evaluate(cell))
		stats.CellsCalculated++
	}

	switch {
	case len(sched.circular) == 0:
		stats.Converged = true
		if stats.CellsCalculated > 0 {
			stats.Iterations = 1
		}

	case !opts.Iterative:
		// best-effort single pass over the circular cells; the result is
		// whatever one evaluation yields, flagged via CircularReferences
		for _, cell := range sched.circular {
			wb.storeResult(cell, evaluate(cell))
			stats.CellsCalculated++
		}
		stats.Converged = false
		stats.Iterations = 1

	default:
		solver := newIterativeSolver(opts.MaxIterations, opts.MaxChange)
		solver.relax(sched.circular, wb.calculatedValue, evaluate, wb.storeResult)
		stats.CellsCalculated += len(sched.circular)
		stats.Converged = solver.converged()
		stats.Iterations = solver.iterations
	}

	for _, cell := range sched.acyclic {
		if _, deferred := sched.downstream[cell]; !deferred {
			continue
		}
		wb.storeResult(cell, evaluate(cell))
		stats.CellsCalculated++
	}

	for cell := range formulas {
		if wb.calculatedValue(cell).IsError() {
			stats.Errors++
		}
	}
	return stats
}
