package cfg

import "aetherc/internal/mir"

// Liveness runs backward liveness analysis over fn (§4.6): a local is live
// at a point if some path from that point reads it before it is next
// written. USE/DEF are computed per block exactly as the classic
// algorithm does — a read before any def of the same local within the
// block counts as a block-level USE; a def before any later read within
// the block counts as a block-level DEF, and that def also removes the
// local from USE if it was about to be added for a later read since
// reads are scanned in program order before their own def.
func Liveness(fn *mir.Function) Result {
	g := Build(fn)

	def := make(map[mir.BlockID]Set)
	use := make(map[mir.BlockID]Set)
	for _, id := range g.order {
		d, u := blockDefUse(fn, id)
		def[id] = d
		use[id] = u
	}

	analysis := &Analysis{
		Direction: Backward,
		Meet:      Union,
		Transfer: func(b mir.BlockID, out Set) Set {
			return use[b].Union(out.Difference(def[b]))
		},
	}
	return analysis.Run(g)
}

func blockDefUse(fn *mir.Function, id mir.BlockID) (Set, Set) {
	d := Set{}
	u := Set{}
	blk, ok := fn.Block(id)
	if !ok {
		return d, u
	}

	useIfNotYetDefined := func(local mir.LocalID) {
		if _, defined := d[local]; !defined {
			u[local] = struct{}{}
		}
	}

	for _, stmt := range blk.Statements {
		switch stmt.Kind {
		case mir.StmtAssign:
			for _, op := range rvalueOperands(stmt.Rvalue) {
				if local, ok := operandLocal(op); ok {
					useIfNotYetDefined(local)
				}
			}
			for _, local := range placeLocals(stmt.Place) {
				useIfNotYetDefined(local)
			}
			d[stmt.Place.Local] = struct{}{}
		case mir.StmtDrop:
			useIfNotYetDefined(stmt.Local)
		}
	}

	for _, op := range blk.Terminator.Operands() {
		if local, ok := operandLocal(op); ok {
			useIfNotYetDefined(local)
		}
	}
	if blk.Terminator.Kind == mir.TermCall && blk.Terminator.CallDestination != nil {
		d[blk.Terminator.CallDestination.Local] = struct{}{}
	}

	return d, u
}

// operandLocal returns the local an operand reads, for Copy/Move operands;
// Constant operands read nothing.
func operandLocal(op mir.Operand) (mir.LocalID, bool) {
	switch op.Kind {
	case mir.OpCopy, mir.OpMove:
		return op.Place.Local, true
	default:
		return 0, false
	}
}

// placeLocals reports the locals a place's index projections themselves
// read (a[i] reads both a and i).
func placeLocals(p mir.Place) []mir.LocalID {
	var out []mir.LocalID
	for _, proj := range p.Projection {
		if proj.Kind == mir.ProjIndex {
			if local, ok := operandLocal(proj.Index); ok {
				out = append(out, local)
			}
		}
	}
	return out
}

// rvalueOperands returns every operand an Rvalue directly reads.
func rvalueOperands(rv mir.Rvalue) []mir.Operand {
	switch rv.Kind {
	case mir.RvalUse:
		return []mir.Operand{rv.Operand}
	case mir.RvalBinaryOp:
		return []mir.Operand{rv.Left, rv.Right}
	case mir.RvalUnaryOp:
		return []mir.Operand{rv.Un}
	case mir.RvalCast:
		return []mir.Operand{rv.CastOp}
	case mir.RvalAggregate:
		return rv.AggElems
	default:
		return nil
	}
}
