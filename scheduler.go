package gridcalc

import "slices"

// schedule is the scheduler's output: a topological order over the
// acyclic formula cells (precedents before dependents), and the cells
// that belong to any circular component, handed to the iterative solver.
// both slices are deterministic for an unchanged model: ties break on
// (sheet, row, col).
type schedule struct {
	acyclic     []CellAddress
	circular    []CellAddress
	circularSet map[CellAddress]struct{}
	// downstream marks acyclic cells transitively dependent on a
	// circular cell. they must be evaluated after the circular set has
	// settled, or they would read pre-solve cached values.
	downstream map[CellAddress]struct{}
}

// buildSchedule runs Tarjan's strongly-connected-component decomposition
// over the formula nodes. components of size one with no self-loop form
// the acyclic core; everything else is circular. a cell is counted as
// circular once, regardless of its component's size.
func buildSchedule(g *depGraph) schedule {
	nodes := sortedAddresses(g.formulas)

	t := &tarjan{
		graph:   g,
		index:   make(map[CellAddress]int),
		lowlink: make(map[CellAddress]int),
		onStack: make(map[CellAddress]struct{}),
	}
	for _, v := range nodes {
		if _, seen := t.index[v]; !seen {
			t.strongConnect(v)
		}
	}

	circularSet := make(map[CellAddress]struct{})
	for _, comp := range t.components {
		if len(comp) > 1 || g.hasEdge(comp[0], comp[0]) {
			for _, cell := range comp {
				circularSet[cell] = struct{}{}
			}
		}
	}

	s := schedule{
		circular:    sortedAddresses(circularSet),
		circularSet: circularSet,
	}
	s.acyclic = topoOrder(g, nodes, circularSet)
	s.downstream = downstreamOfCircular(g, circularSet)
	return s
}

// downstreamOfCircular walks dependent edges from every circular cell
// and collects the acyclic formula cells reachable from them.
func downstreamOfCircular(g *depGraph, circular map[CellAddress]struct{}) map[CellAddress]struct{} {
	out := make(map[CellAddress]struct{})
	stack := make([]CellAddress, 0, len(circular))
	for c := range circular {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for d := range g.dependents[v] {
			if _, isFormula := g.formulas[d]; !isFormula {
				continue
			}
			if _, isCircular := circular[d]; isCircular {
				continue
			}
			if _, seen := out[d]; seen {
				continue
			}
			out[d] = struct{}{}
			stack = append(stack, d)
		}
	}
	return out
}

// tarjan carries the per-run state of the SCC decomposition.
type tarjan struct {
	graph      *depGraph
	index      map[CellAddress]int
	lowlink    map[CellAddress]int
	onStack    map[CellAddress]struct{}
	stack      []CellAddress
	next       int
	components [][]CellAddress
}

func (t *tarjan) strongConnect(v CellAddress) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = struct{}{}

	for _, w := range t.successors(v) {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if _, on := t.onStack[w]; on {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] == t.index[v] {
		var comp []CellAddress
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			delete(t.onStack, w)
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}

// successors returns the formula precedents of a cell in deterministic
// order. non-formula precedents carry no evaluation, so they are not SCC
// vertices.
func (t *tarjan) successors(v CellAddress) []CellAddress {
	var out []CellAddress
	for p := range t.graph.precedents[v] {
		if _, ok := t.graph.formulas[p]; ok {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, compareAddresses)
	return out
}

// topoOrder produces the precedents-first evaluation order over the
// acyclic cells using a three-state depth-first search. circular cells
// are skipped: their values are whatever the solver (or the single
// best-effort pass) left cached.
func topoOrder(g *depGraph, nodes []CellAddress, circular map[CellAddress]struct{}) []CellAddress {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[CellAddress]int)
	order := make([]CellAddress, 0, len(nodes))

	var visit func(v CellAddress)
	visit = func(v CellAddress) {
		if state[v] != unvisited {
			return
		}
		if _, ok := circular[v]; ok {
			return
		}
		state[v] = visiting
		for _, p := range sortedFormulaPrecedents(g, v) {
			if state[p] == unvisited {
				visit(p)
			}
		}
		state[v] = done
		order = append(order, v)
	}

	for _, v := range nodes {
		visit(v)
	}
	return order
}

func sortedFormulaPrecedents(g *depGraph, v CellAddress) []CellAddress {
	var out []CellAddress
	for p := range g.precedents[v] {
		if _, ok := g.formulas[p]; ok {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, compareAddresses)
	return out
}

func sortedAddresses(set map[CellAddress]struct{}) []CellAddress {
	out := make([]CellAddress, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.SortFunc(out, compareAddresses)
	return out
}

func compareAddresses(a, b CellAddress) int {
	if a.Less(b) {
		return -1
	}
	if b.Less(a) {
		return 1
	}
	return 0
}
