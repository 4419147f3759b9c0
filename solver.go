package gridcalc

import "math"

// solverState tracks the iterative solver's lifecycle.
type solverState uint8

const (
	solverNotStarted solverState = iota
	solverRelaxing
	solverConverged
	solverMaxIterations
)

func (s solverState) String() string {
	switch s {
	case solverNotStarted:
		return "not-started"
	case solverRelaxing:
		return "relaxing"
	case solverConverged:
		return "converged"
	case solverMaxIterations:
		return "max-iterations"
	}
	return "unknown"
}

// iterativeSolver relaxes the cells of circular components. each pass
// evaluates every circular cell exactly once, Gauss-Seidel style: a
// value written earlier in the pass is visible to cells evaluated later
// in the same pass, which speeds convergence for typical financial
// models. convergence is measured as the maximum absolute change across
// circular cells whose old and new values are both numeric; non-numeric
// transitions contribute nothing and are bounded by the iteration cap.
type iterativeSolver struct {
	maxIterations int
	maxChange     float64
	state         solverState
	iterations    int
}

func newIterativeSolver(maxIterations int, maxChange float64) *iterativeSolver {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &iterativeSolver{
		maxIterations: maxIterations,
		maxChange:     maxChange,
		state:         solverNotStarted,
	}
}

// relax runs relaxation passes until the change threshold is met or the
// iteration cap is reached. evaluate computes a cell's new value from
// the most recent available precedent values; current reads the cell's
// cached value; store writes the new value back immediately.
func (s *iterativeSolver) relax(
	cells []CellAddress,
	current func(CellAddress) CellValue,
	evaluate func(CellAddress) CellValue,
	store func(CellAddress, CellValue),
) {
	if len(cells) == 0 {
		s.state = solverConverged
		return
	}
	s.state = solverRelaxing
	for s.iterations < s.maxIterations {
		maxDelta := 0.0
		for _, cell := range cells {
			old := current(cell)
			next := evaluate(cell)
			store(cell, next)
			oldF, oldOK := numericView(old)
			newF, newOK := numericView(next)
			if oldOK && newOK {
				maxDelta = math.Max(maxDelta, math.Abs(newF-oldF))
			}
		}
		s.iterations++
		if maxDelta <= s.maxChange {
			s.state = solverConverged
			return
		}
	}
	s.state = solverMaxIterations
}

// converged reports whether relaxation settled below the threshold.
func (s *iterativeSolver) converged() bool {
	return s.state == solverConverged
}

// numericView reads a value as a number for convergence measurement.
// never-calculated cells are Empty and read as 0, so the first pass
// registers the jump away from zero.
func numericView(v CellValue) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindEmpty:
		return 0, true
	}
	return 0, false
}
