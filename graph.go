package gridcalc

// depGraph records which cells each formula reads (precedents) and the
// reverse edges (dependents). nodes are keyed by address, never by object
// identity, so reference cycles in the model stay plain map entries here.
// the graph is rebuilt from scratch for every calculation: no stale edge
// can survive a definition change made between calculations.
type depGraph struct {
	precedents map[CellAddress]map[CellAddress]struct{}
	dependents map[CellAddress]map[CellAddress]struct{}
	formulas   map[CellAddress]struct{} // formula-bearing cells, the node set
}

func newDepGraph() *depGraph {
	return &depGraph{
		precedents: make(map[CellAddress]map[CellAddress]struct{}),
		dependents: make(map[CellAddress]map[CellAddress]struct{}),
		formulas:   make(map[CellAddress]struct{}),
	}
}

// addFormula registers a formula-bearing cell as a graph node, with or
// without edges.
func (g *depGraph) addFormula(cell CellAddress) {
	g.formulas[cell] = struct{}{}
}

// addEdge records that dependent reads precedent. duplicate references
// within one formula collapse to a single edge.
func (g *depGraph) addEdge(precedent, dependent CellAddress) {
	if g.precedents[dependent] == nil {
		g.precedents[dependent] = make(map[CellAddress]struct{})
	}
	g.precedents[dependent][precedent] = struct{}{}
	if g.dependents[precedent] == nil {
		g.dependents[precedent] = make(map[CellAddress]struct{})
	}
	g.dependents[precedent][dependent] = struct{}{}
}

func (g *depGraph) hasEdge(precedent, dependent CellAddress) bool {
	_, ok := g.precedents[dependent][precedent]
	return ok
}

// collectRefs walks an expression tree and resolves every reference into
// precedent addresses. range references contribute one precedent per
// covered cell; named references contribute the precedents of their
// expansion. unresolvable references contribute nothing here — the same
// resolution failure surfaces as an error value during evaluation.
func collectRefs(env resolveEnv, base int, node Node, depth int, out map[CellAddress]struct{}) {
	switch n := node.(type) {
	case *RefNode:
		addr, kind := resolveCell(env, base, n)
		if kind == errNone {
			out[addr] = struct{}{}
		}
	case *RangeRefNode:
		r, kind := resolveRange(env, base, n)
		if kind == errNone {
			for addr := range r.Cells() {
				out[addr] = struct{}{}
			}
		}
	case *NameNode:
		if depth >= maxNameDepth {
			return
		}
		expansion, kind := expandName(env, n.Name)
		if kind == errNone {
			collectRefs(env, base, expansion, depth+1, out)
		}
	case *UnaryNode:
		collectRefs(env, base, n.Operand, depth, out)
	case *BinaryNode:
		collectRefs(env, base, n.Left, depth, out)
		collectRefs(env, base, n.Right, depth, out)
	case *CallNode:
		for _, arg := range n.Args {
			collectRefs(env, base, arg, depth, out)
		}
	}
}

// buildGraph reconstructs the whole dependency graph for the given
// formula cells. every edge corresponds to a reference present in the
// owning cell's current parsed formula.
func buildGraph(env resolveEnv, formulas map[CellAddress]Node) *depGraph {
	g := newDepGraph()
	for cell, ast := range formulas {
		g.addFormula(cell)
		refs := make(map[CellAddress]struct{})
		collectRefs(env, cell.Sheet, ast, 0, refs)
		for precedent := range refs {
			g.addEdge(precedent, cell)
		}
	}
	return g
}
