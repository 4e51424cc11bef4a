package cfg

import "aetherc/internal/mir"

// Set is a small, order-independent set of local ids, used as the value
// lattice for every concrete Analysis. It is intentionally minimal rather
// than a general bitset: the dataflow problems §4.6 names (liveness today,
// reaching-definitions and available-expressions as natural extensions)
// all range over a function's locals, which rarely number more than a few
// hundred, so a map-backed set is simple and fast enough without pulling
// in a bitset dependency the rest of the module never needs elsewhere.
type Set map[mir.LocalID]struct{}

// NewSet builds a Set from the given members.
func NewSet(members ...mir.LocalID) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns a new set containing every member of s and other.
func (s Set) Union(other Set) Set {
	out := s.Clone()
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Difference returns a new set containing s's members not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set, len(s))
	for k := range s {
		if _, excluded := other[k]; !excluded {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and other contain exactly the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Direction says which way an Analysis propagates values along the CFG.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Analysis is a generic dataflow problem: a direction, a per-block
// transfer function, and a meet (join) over predecessor/successor OUT (or
// IN) sets, run to a fixed point over the Graph (§4.6 "Dataflow
// framework").
type Analysis struct {
	Direction Direction

	// Transfer computes a block's OUT (Forward) or IN (Backward) set from
	// its own IN (Forward) or OUT (Backward) set.
	Transfer func(block mir.BlockID, in Set) Set

	// Meet combines the sets flowing into a block from multiple neighbors.
	// Most analyses use Union (e.g. liveness, reaching defs); an analysis
	// requiring "true on every path" instead supplies an intersection.
	Meet func(sets []Set) Set
}

// Result holds the fixed-point IN/OUT sets computed for every block.
type Result struct {
	In  map[mir.BlockID]Set
	Out map[mir.BlockID]Set
}

// Run iterates the Analysis over g to a fixed point (§4.6's generic
// dataflow framework). Forward problems visit blocks in reverse
// postorder; backward problems visit the same blocks in postorder, which
// converges fastest for each direction.
func (a *Analysis) Run(g *Graph) Result {
	in := make(map[mir.BlockID]Set)
	out := make(map[mir.BlockID]Set)
	for _, id := range g.order {
		in[id] = Set{}
		out[id] = Set{}
	}

	visit := g.order
	if a.Direction == Backward {
		visit = reversed(g.order)
	}

	for changed := true; changed; {
		changed = false
		for _, b := range visit {
			var neighbors []mir.BlockID
			if a.Direction == Forward {
				neighbors = g.preds[b]
			} else {
				neighbors = g.succs[b]
			}

			gathered := make([]Set, 0, len(neighbors))
			for _, n := range neighbors {
				if a.Direction == Forward {
					gathered = append(gathered, out[n])
				} else {
					gathered = append(gathered, in[n])
				}
			}
			merged := a.Meet(gathered)

			if a.Direction == Forward {
				in[b] = merged
				newOut := a.Transfer(b, merged)
				if !newOut.Equal(out[b]) {
					out[b] = newOut
					changed = true
				}
			} else {
				out[b] = merged
				newIn := a.Transfer(b, merged)
				if !newIn.Equal(in[b]) {
					in[b] = newIn
					changed = true
				}
			}
		}
	}

	return Result{In: in, Out: out}
}

// Union is the standard Meet for "may happen on some path" analyses.
func Union(sets []Set) Set {
	merged := Set{}
	for _, s := range sets {
		merged = merged.Union(s)
	}
	return merged
}

func reversed(ids []mir.BlockID) []mir.BlockID {
	out := make([]mir.BlockID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
