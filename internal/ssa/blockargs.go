package ssa

import (
	"github.com/msiegel/substratum-sub000/internal/idfa"
	"github.com/msiegel/substratum-sub000/internal/ir"
)

// InferBlockArguments runs the BlockArgs IDFA client, sets each block's
// BlockArgs to its computed fact set, and augments every predecessor Jump
// with an identity block_args entry for each new argument (spec.md §4.6
// stage 1). It repeats until no block gains a new argument, since adding an
// argument to one block can in principle change what an earlier block
// needs to forward.
func InferBlockArguments(cf *ir.ControlFlow) {
	for {
		facts := idfa.Run[ir.ValueId](cf, idfa.BlockArgs{})

		changed := false
		for _, bb := range cf.Blocks() {
			wanted := facts[bb.Label].Out.Sorted()
			if !sameValueSet(bb.BlockArgs, wanted) {
				bb.BlockArgs = wanted
				changed = true
			}
		}
		if !changed {
			attachBlockArgsToJumps(cf)
			return
		}
		attachBlockArgsToJumps(cf)
	}
}

func sameValueSet(a, b []ir.ValueId) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[ir.ValueId]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

// attachBlockArgsToJumps ensures every Jump terminator supplies an actual
// operand, identity-mapped pre-SSA, for each of its destination block's
// formal arguments.
func attachBlockArgsToJumps(cf *ir.ControlFlow) {
	for _, bb := range cf.Blocks() {
		for _, line := range bb.Lines {
			jump, ok := line.Op.(*ir.Jump)
			if !ok {
				continue
			}
			dest, ok := cf.Block(jump.Destination)
			if !ok {
				continue
			}
			if jump.BlockArgs == nil && len(dest.BlockArgs) > 0 {
				jump.BlockArgs = map[ir.ValueId]ir.Operand{}
			}
			for _, formal := range dest.BlockArgs {
				if _, ok := jump.BlockArgs[formal]; !ok {
					jump.BlockArgs[formal] = ir.ValueOperand(formal)
				}
			}
		}
	}
}
