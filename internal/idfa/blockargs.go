package idfa

import "github.com/msiegel/substratum-sub000/internal/ir"

// BlockArgs identifies, per block, which values are read without a local
// definition — exactly the set SSA construction (§4.6) must turn into
// block-entry arguments. gen/kill match LiveVars; unlike LiveVars this
// client does not propagate incoming facts at all: a block's own
// unkilled-local-reads are already its full answer (spec.md §4.7: "transfer
// = gen").
type BlockArgs struct{}

func (BlockArgs) Direction() Direction { return Forward }

func (BlockArgs) Meet(a, b Set[ir.ValueId]) Set[ir.ValueId] { return a.Union(b) }

func (BlockArgs) Transfer(facts *BlockFacts[ir.ValueId], incoming Set[ir.ValueId]) Set[ir.ValueId] {
	return facts.Gen
}

func (BlockArgs) FindGenKill(cfg *ir.ControlFlow, facts map[int]*BlockFacts[ir.ValueId]) {
	for _, bb := range cfg.Blocks() {
		gen, kill := localGenKill(bb)
		facts[bb.Label].Gen = gen
		facts[bb.Label].Kill = kill
	}
}
