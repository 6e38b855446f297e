package ssa

import (
	"github.com/msiegel/substratum-sub000/internal/idfa"
	"github.com/msiegel/substratum-sub000/internal/ir"
)

// writeSite identifies one write occurrence by its position in the CFG, so
// a base name's several writes across the function each get a distinct
// entry in the side tables below.
type writeSite struct {
	Block int
	Index int
}

// Info is the side table SSA construction produces: the SSA number
// assigned to each write occurrence and to each block's formal arguments.
// It is kept separate from the IR itself (mirroring the register
// allocator's spill side table in spec.md §4.8) so RemoveSSA is just
// discarding this value rather than un-mutating the IR.
type Info struct {
	WriteVersions   map[writeSite]int
	BlockArgVersion map[int]map[ir.ValueId]int
}

func newInfo() *Info {
	return &Info{
		WriteVersions:   map[writeSite]int{},
		BlockArgVersion: map[int]map[ir.ValueId]int{},
	}
}

// renumberWrites assigns each write occurrence (including each block's
// formal arguments, which act as pseudo-writes at block entry) a fresh
// per-base-name counter value, visiting blocks in reverse postorder
// (spec.md §4.6 stage 2).
func renumberWrites(cf *ir.ControlFlow, info *Info) {
	counters := map[ir.ValueId]int{}
	next := func(v ir.ValueId) int {
		n := counters[v]
		counters[v] = n + 1
		return n
	}

	for _, label := range reversePostorder(cf) {
		bb, _ := cf.Block(label)

		if len(bb.BlockArgs) > 0 {
			versions := make(map[ir.ValueId]int, len(bb.BlockArgs))
			for _, formal := range bb.BlockArgs {
				versions[formal] = next(formal)
			}
			info.BlockArgVersion[label] = versions
		}

		for idx, line := range bb.Lines {
			writes := line.Op.Writes()
			if len(writes) == 0 {
				continue
			}
			info.WriteVersions[writeSite{Block: label, Index: idx}] = next(writes[0])
		}
	}
}

// renumberReads assigns every read Operand its SSA number by running
// reaching-definitions and, for each read, picking the reaching write's
// assigned version; a base name with more than one reaching write at a
// block's entry must already be one of that block's arguments (block-
// argument inference guarantees this), so its block-argument version is
// used instead (spec.md §4.6 stage 3).
func renumberReads(cf *ir.ControlFlow, info *Info) {
	facts := idfa.Run[idfa.Definition](cf, idfa.ReachingDefs{})

	for _, bb := range cf.Blocks() {
		reachingByValue := map[ir.ValueId][]idfa.Definition{}
		for def := range facts[bb.Label].In {
			reachingByValue[def.Value] = append(reachingByValue[def.Value], def)
		}

		current := map[ir.ValueId]int{}
		for v, version := range info.BlockArgVersion[bb.Label] {
			current[v] = version
		}

		resolve := func(v ir.ValueId) (int, bool) {
			if version, ok := current[v]; ok {
				return version, true
			}
			defs := reachingByValue[v]
			switch len(defs) {
			case 0:
				return 0, false
			case 1:
				version := info.WriteVersions[writeSite{Block: defs[0].Block, Index: defs[0].Index}]
				current[v] = version
				return version, true
			default:
				// Ambiguous: more than one definition reaches this block for
				// the same base name without it being a declared block
				// argument. Fall back to the highest assigned version among
				// the candidates, matching "pick the highest SSA number"
				// literally when block-argument inference under-declared.
				best := -1
				for _, d := range defs {
					if v2 := info.WriteVersions[writeSite{Block: d.Block, Index: d.Index}]; v2 > best {
						best = v2
					}
				}
				current[v] = best
				return best, true
			}
		}

		for idx := range bb.Lines {
			op := bb.Lines[idx].Op
			reads := op.Reads()
			updated := make([]ir.Operand, len(reads))
			for i, r := range reads {
				if r.IsConstant() {
					updated[i] = r
					continue
				}
				version, ok := resolve(r.Value())
				if !ok {
					updated[i] = r
					continue
				}
				updated[i] = r.WithSSANumber(version)
			}
			op.SetReads(updated)

			for _, w := range op.Writes() {
				if version, ok := info.WriteVersions[writeSite{Block: bb.Label, Index: idx}]; ok {
					current[w] = version
				}
			}
		}
	}
}
