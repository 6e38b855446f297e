package regalloc

import (
	"sort"

	"github.com/msiegel/substratum-sub000/internal/arch"
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// SpillSlot records that a value lives on the stack rather than in a
// register, at a monotonically increasing slot index.
type SpillSlot struct {
	Value ir.ValueId
	Index int
}

// Assignment is the register allocator's output: a side table, not an IR
// mutation (spec.md §4.8 step 3). Every value that some line of the
// function reads or writes appears in exactly one of Registers or Spills;
// interned values that no line touches appear in neither.
type Assignment struct {
	Registers map[ir.ValueId]arch.Register
	Spills    map[ir.ValueId]SpillSlot
}

// Allocate runs lifetime computation, interference-graph construction, and
// greedy graph-coloring assignment for one function's control flow.
//
// Values are visited in decreasing interference degree (ties broken by
// ValueId for determinism) and assigned the first general-purpose register
// not already taken by a colored neighbor. A value whose type is too large
// to fit the argument-register class (per target.RegistersRequiredForArgument)
// spills unconditionally, before coloring is attempted; a value that
// exhausts the available general-purpose registers among its neighbors
// spills too. This completes spec.md §9's "Assignment... left as
// unimplemented!" open question.
func Allocate(cf *ir.ControlFlow, values *ir.Interner, typeInterner *types.Interner, target arch.Target) *Assignment {
	graph := BuildGraph(ComputeLifetimes(cf))
	registers := target.Registers().GeneralPurpose()

	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		di, dj := graph.Degree(nodes[i]), graph.Degree(nodes[j])
		if di != dj {
			return di > dj
		}
		return nodes[i] < nodes[j]
	})

	result := &Assignment{
		Registers: map[ir.ValueId]arch.Register{},
		Spills:    map[ir.ValueId]SpillSlot{},
	}
	nextSlot := 0
	spill := func(v ir.ValueId) {
		result.Spills[v] = SpillSlot{Value: v, Index: nextSlot}
		nextSlot++
	}

	for _, v := range nodes {
		if tooLargeForArguments(v, values, typeInterner, target) {
			spill(v)
			continue
		}

		taken := map[string]bool{}
		for _, n := range graph.Neighbors(v) {
			if reg, ok := result.Registers[n]; ok {
				taken[reg.Name] = true
			}
		}

		assigned := false
		for _, reg := range registers {
			if !taken[reg.Name] {
				result.Registers[v] = reg
				assigned = true
				break
			}
		}
		if !assigned {
			spill(v)
		}
	}

	return result
}

func tooLargeForArguments(v ir.ValueId, values *ir.Interner, typeInterner *types.Interner, target arch.Target) bool {
	val, ok := values.Lookup(v)
	if !ok || val.Type == types.Invalid {
		return false
	}
	size := typeInterner.SizeOf(val.Type)
	_, ok = target.RegistersRequiredForArgument(size)
	return !ok
}
