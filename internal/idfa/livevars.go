package idfa

import "github.com/msiegel/substratum-sub000/internal/ir"

// localGenKill scans a block's lines once, computing gen = upward-exposed
// reads (reads of a value not yet locally written) and kill = every value
// the block writes. Shared by LiveVars and BlockArgs, which differ only in
// direction and transfer.
func localGenKill(bb *ir.BasicBlock) (gen, kill Set[ir.ValueId]) {
	gen, kill = Set[ir.ValueId]{}, Set[ir.ValueId]{}
	written := map[ir.ValueId]bool{}
	for _, line := range bb.Lines {
		for _, read := range line.Op.Reads() {
			if read.IsConstant() {
				continue
			}
			v := read.Value()
			if !written[v] {
				gen.Add(v)
			}
		}
		for _, w := range line.Op.Writes() {
			written[w] = true
			kill.Add(w)
		}
	}
	return gen, kill
}

// LiveVars computes, per block, the set of values live on entry: gen is
// upward-exposed reads, kill is writes, direction is backward, and
// transfer applies the standard backward propagation `in = gen ∪ (out ∖
// kill)` (spec.md §4.7 — this closes an open question the sources left
// unimplemented).
type LiveVars struct{}

func (LiveVars) Direction() Direction { return Backward }

func (LiveVars) Meet(a, b Set[ir.ValueId]) Set[ir.ValueId] { return a.Union(b) }

func (LiveVars) Transfer(facts *BlockFacts[ir.ValueId], incoming Set[ir.ValueId]) Set[ir.ValueId] {
	return facts.Gen.Union(incoming.Diff(facts.Kill))
}

func (LiveVars) FindGenKill(cfg *ir.ControlFlow, facts map[int]*BlockFacts[ir.ValueId]) {
	for _, bb := range cfg.Blocks() {
		gen, kill := localGenKill(bb)
		facts[bb.Label].Gen = gen
		facts[bb.Label].Kill = kill
	}
}
