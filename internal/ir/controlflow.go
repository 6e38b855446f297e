package ir

import (
	"fmt"
	"sort"
	"strings"
)

// ControlFlow owns every basic block of one function, indexed by label, plus
// the symmetric successor/predecessor relations and the per-function temp
// counter and "current block" cursor used during linearization (spec.md
// §3.5). It is the direct descendant of the teacher's per-function `Blocks
// []*BasicBlock` + `AddSuccessor`, generalized to maintain relations by
// label rather than pointer so blocks can be added and relinked freely
// during SSA construction without invalidating other blocks' references.
type ControlFlow struct {
	blocks       []*BasicBlock
	successors   map[int]map[int]bool
	predecessors map[int]map[int]bool

	tempCounter int
	current     int
}

// NewControlFlow creates a CFG with a single entry block labeled 0.
func NewControlFlow() *ControlFlow {
	cf := &ControlFlow{
		successors:   map[int]map[int]bool{},
		predecessors: map[int]map[int]bool{},
	}
	cf.NewBlock()
	return cf
}

// NewBlock allocates a fresh block with the next monotonic label and makes
// it the current block.
func (cf *ControlFlow) NewBlock() *BasicBlock {
	label := len(cf.blocks)
	bb := NewBasicBlock(label)
	cf.blocks = append(cf.blocks, bb)
	cf.successors[label] = map[int]bool{}
	cf.predecessors[label] = map[int]bool{}
	cf.current = label
	return bb
}

// Block returns the block with the given label.
func (cf *ControlFlow) Block(label int) (*BasicBlock, bool) {
	if label < 0 || label >= len(cf.blocks) {
		return nil, false
	}
	return cf.blocks[label], true
}

// Blocks returns every block in label order.
func (cf *ControlFlow) Blocks() []*BasicBlock { return cf.blocks }

// Current returns the block the linearizer is currently appending to.
func (cf *ControlFlow) Current() *BasicBlock { return cf.blocks[cf.current] }

// SetCurrent moves the "current block" cursor.
func (cf *ControlFlow) SetCurrent(label int) { cf.current = label }

// NextTemp returns the next value in the per-function temp counter
// sequence and advances it. Value interning itself lives in Interner, and
// the linearizer allocates its temporaries there; this counter is separate
// from the interner's ValueIds.
func (cf *ControlFlow) NextTemp() int {
	n := cf.tempCounter
	cf.tempCounter++
	return n
}

// AddEdge records a, b as connected by a jump from a to b, maintaining the
// symmetric successors/predecessors relation required by spec.md §3.5.
func (cf *ControlFlow) AddEdge(from, to int) {
	if cf.successors[from] == nil {
		cf.successors[from] = map[int]bool{}
	}
	if cf.predecessors[to] == nil {
		cf.predecessors[to] = map[int]bool{}
	}
	cf.successors[from][to] = true
	cf.predecessors[to][from] = true
}

// Successors returns the sorted labels of blocks reachable by one jump from
// label.
func (cf *ControlFlow) Successors(label int) []int {
	return sortedKeys(cf.successors[label])
}

// Predecessors returns the sorted labels of blocks that can jump to label.
func (cf *ControlFlow) Predecessors(label int) []int {
	return sortedKeys(cf.predecessors[label])
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Emit appends a terminating Jump to block `from` and records the
// corresponding CFG edge. Used by BlockManager rather than appending to
// Lines directly, so the successors/predecessors relation can never drift
// out of sync with the blocks' terminators.
func (cf *ControlFlow) Emit(from int, loc SourceLoc, jump *Jump) {
	bb := cf.blocks[from]
	bb.Append(loc, jump)
	cf.AddEdge(from, jump.Destination)
}

// CheckSymmetry validates the invariant of spec.md §3.5: b is a successor
// of a iff a is a predecessor of b. Returns the first violation found, or
// nil if the relation is symmetric.
func (cf *ControlFlow) CheckSymmetry() error {
	for a, succs := range cf.successors {
		for b := range succs {
			if !cf.predecessors[b][a] {
				return fmt.Errorf("successors(%d) contains %d but predecessors(%d) lacks %d", a, b, b, a)
			}
		}
	}
	for b, preds := range cf.predecessors {
		for a := range preds {
			if !cf.successors[a][b] {
				return fmt.Errorf("predecessors(%d) contains %d but successors(%d) lacks %d", b, a, a, b)
			}
		}
	}
	return nil
}

func (cf *ControlFlow) String() string {
	var sb strings.Builder
	for _, bb := range cf.blocks {
		sb.WriteString(bb.String())
	}
	return sb.String()
}
