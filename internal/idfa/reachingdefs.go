package idfa

import (
	"fmt"

	"github.com/msiegel/substratum-sub000/internal/ir"
)

// Definition is a reaching-definitions fact: one write site of one value.
type Definition struct {
	Value ir.ValueId
	Block int
	Index int
}

func (d Definition) String() string {
	return fmt.Sprintf("def(%s@bb%d:%d)", d.Value, d.Block, d.Index)
}

// ReachingDefs computes, per block, the set of definitions that may reach
// its entry: gen is each variable's last definition within the block, kill
// is every other definition of a variable the block writes, transfer is
// `(in ∖ kill) ∪ gen` (spec.md §4.7).
type ReachingDefs struct{}

func (ReachingDefs) Direction() Direction { return Forward }

func (ReachingDefs) Meet(a, b Set[Definition]) Set[Definition] { return a.Union(b) }

func (ReachingDefs) Transfer(facts *BlockFacts[Definition], incoming Set[Definition]) Set[Definition] {
	return incoming.Diff(facts.Kill).Union(facts.Gen)
}

func (ReachingDefs) FindGenKill(cfg *ir.ControlFlow, facts map[int]*BlockFacts[Definition]) {
	allDefs := map[ir.ValueId][]Definition{}
	for _, bb := range cfg.Blocks() {
		for idx, line := range bb.Lines {
			for _, w := range line.Op.Writes() {
				allDefs[w] = append(allDefs[w], Definition{Value: w, Block: bb.Label, Index: idx})
			}
		}
	}

	for _, bb := range cfg.Blocks() {
		bf := facts[bb.Label]
		lastLocal := map[ir.ValueId]Definition{}
		for idx, line := range bb.Lines {
			for _, w := range line.Op.Writes() {
				lastLocal[w] = Definition{Value: w, Block: bb.Label, Index: idx}
			}
		}
		for v, def := range lastLocal {
			bf.Gen.Add(def)
			for _, other := range allDefs[v] {
				if other != def {
					bf.Kill.Add(other)
				}
			}
		}
	}
}
