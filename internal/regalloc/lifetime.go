// Package regalloc implements the register allocator of spec.md §4.8:
// intra-block lifetime computation, interference graph construction, and
// greedy graph-coloring assignment against a target architecture's general
// purpose register file, with spills recorded as a side table rather than
// IR mutations.
package regalloc

import "github.com/msiegel/substratum-sub000/internal/ir"

// Lifetime is one operand's intra-block live range: a half-open interval
// over statement indices from its first touch (read or write) to its last.
type Lifetime struct {
	Value ir.ValueId
	Block int
	Start int
	End   int
}

// ComputeLifetimes scans every block's lines in index order and records,
// per value touched in that block, the first and last statement index it
// appears in as a read or write. Inline constants never produce a
// Lifetime. A block is intra-block only: a value referenced across more
// than one block gets one Lifetime per block it appears in, per spec.md
// §4.8's stated scope ("inter-block extension is future work").
func ComputeLifetimes(cf *ir.ControlFlow) []Lifetime {
	var lifetimes []Lifetime

	for _, bb := range cf.Blocks() {
		seen := map[ir.ValueId]*Lifetime{}
		order := []ir.ValueId{}

		touch := func(v ir.ValueId, idx int) {
			if lt, ok := seen[v]; ok {
				lt.End = idx
				return
			}
			lt := &Lifetime{Value: v, Block: bb.Label, Start: idx, End: idx}
			seen[v] = lt
			order = append(order, v)
		}

		for idx, line := range bb.Lines {
			for _, r := range line.Op.Reads() {
				if !r.IsConstant() {
					touch(r.Value(), idx)
				}
			}
			for _, w := range line.Op.Writes() {
				touch(w, idx)
			}
		}

		for _, v := range order {
			lifetimes = append(lifetimes, *seen[v])
		}
	}

	return lifetimes
}
