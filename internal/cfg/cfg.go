// Package cfg builds the control-flow graph over a mir.Function and
// provides the generic dataflow framework of spec.md §4.6: predecessors,
// successors, dominators, and a forward/backward fixed-point Analysis
// runner that concrete analyses (e.g. liveness) plug into.
//
// The iterative worklist shape is grounded on the reaching-definitions and
// live-variable builders in the godoctor cfg/dataflow package (a classic
// Dragon Book iterative fixed-point over block GEN/KILL sets), generalized
// from Go's go/ast blocks to mir.BasicBlock and from *bitset.BitSet to a
// small local Set type so the package carries no bitset dependency the
// rest of the module has no other use for.
package cfg

import "aetherc/internal/mir"

// Graph is the control-flow graph of one function: predecessor and
// successor block lists derived once from each block's Terminator
// (§4.6 "CFG").
type Graph struct {
	fn    *mir.Function
	order []mir.BlockID // reverse-postorder from the entry block

	preds map[mir.BlockID][]mir.BlockID
	succs map[mir.BlockID][]mir.BlockID
}

// Build constructs a Graph from fn's current blocks and terminators.
func Build(fn *mir.Function) *Graph {
	g := &Graph{
		fn:    fn,
		preds: make(map[mir.BlockID][]mir.BlockID),
		succs: make(map[mir.BlockID][]mir.BlockID),
	}
	for _, id := range fn.BlockIDs() {
		blk, ok := fn.Block(id)
		if !ok {
			continue
		}
		succs := blk.Terminator.Successors()
		g.succs[id] = succs
		for _, s := range succs {
			g.preds[s] = append(g.preds[s], id)
		}
	}
	g.order = g.reversePostorder()
	return g
}

// Predecessors and Successors return a block's direct CFG neighbors. A
// block with none returns nil, never a panic, since dead-block elimination
// can leave an unreachable block with no predecessors.
func (g *Graph) Predecessors(id mir.BlockID) []mir.BlockID { return g.preds[id] }
func (g *Graph) Successors(id mir.BlockID) []mir.BlockID   { return g.succs[id] }

// Blocks returns every block id reachable from the entry, in reverse
// postorder (the standard visitation order for forward dataflow problems;
// Analysis reverses it for backward problems).
func (g *Graph) Blocks() []mir.BlockID {
	out := make([]mir.BlockID, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) reversePostorder() []mir.BlockID {
	visited := make(map[mir.BlockID]bool)
	var post []mir.BlockID

	var visit func(id mir.BlockID)
	visit = func(id mir.BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range g.succs[id] {
			visit(s)
		}
		post = append(post, id)
	}
	visit(g.fn.Entry)

	rev := make([]mir.BlockID, len(post))
	for i, id := range post {
		rev[len(post)-1-i] = id
	}
	return rev
}

// Dominators computes each reachable block's immediate dominator via the
// Cooper-Harvey-Kennedy iterative intersection algorithm over reverse
// postorder, which converges in a small constant number of passes on
// typical CFGs without needing an explicit dominator-tree data structure.
// The entry block dominates itself and has no immediate dominator, so it
// has no key in the returned map.
func (g *Graph) Dominators() map[mir.BlockID]mir.BlockID {
	idom := make(map[mir.BlockID]mir.BlockID)
	rpoIndex := make(map[mir.BlockID]int)
	for i, id := range g.order {
		rpoIndex[id] = i
	}

	idom[g.fn.Entry] = g.fn.Entry
	changed := true
	for changed {
		changed = false
		for _, b := range g.order {
			if b == g.fn.Entry {
				continue
			}
			var newIdom mir.BlockID
			first := true
			for _, p := range g.preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if first {
					newIdom = p
					first = false
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, p)
			}
			if first {
				continue // no processed predecessor yet
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, g.fn.Entry) // the entry has no immediate dominator
	return idom
}

func intersect(idom map[mir.BlockID]mir.BlockID, order map[mir.BlockID]int, a, b mir.BlockID) mir.BlockID {
	for a != b {
		for order[a] > order[b] {
			a = idom[a]
		}
		for order[b] > order[a] {
			b = idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b (every path from entry to b
// passes through a), including the reflexive case a == b.
func (g *Graph) Dominates(doms map[mir.BlockID]mir.BlockID, a, b mir.BlockID) bool {
	for b != a {
		next, ok := doms[b]
		if !ok {
			return false
		}
		if next == b {
			return false
		}
		b = next
	}
	return true
}
