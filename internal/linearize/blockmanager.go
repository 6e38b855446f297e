package linearize

import "github.com/msiegel/substratum-sub000/internal/ir"

// NotLoopedError reports a loop-body operation called with no open loop.
type NotLoopedError struct{}

func (e *NotLoopedError) Error() string { return "loop operation called with no open loop" }

type loopFrame struct {
	Top, Bottom, After int
}

// BlockManager owns branch and loop bookkeeping over one function's
// ControlFlow: allocating the blocks a conditional, unconditional branch,
// or loop needs, wiring their jumps, and tracking convergence via
// Convergences (spec.md §4.4).
type BlockManager struct {
	cf          *ir.ControlFlow
	conv        *Convergences
	branchPath  []int
	falseBlocks map[int]int
	loops       []loopFrame
}

// NewBlockManager returns a BlockManager driving cf.
func NewBlockManager(cf *ir.ControlFlow) *BlockManager {
	return &BlockManager{cf: cf, conv: NewConvergences(), falseBlocks: map[int]int{}}
}

// CreateConditionalBranch opens `if cond { ... } else { ... }` from the
// block currently cf.Current(). It allocates true/false/convergence
// blocks, emits the conditional-then-unconditional terminator pair,
// redirects any enclosing convergence that was waiting on the source block
// to land on the new join instead, and registers the new join. It returns
// the true block, which becomes current.
func (m *BlockManager) CreateConditionalBranch(condition ir.Condition, a, b ir.Operand, loc ir.SourceLoc) (int, error) {
	from := m.cf.Current().Label
	if existing, ok := m.falseBlocks[from]; ok {
		return 0, &ExistingFalseBlockError{From: from, Existing: existing}
	}

	trueB := m.cf.NewBlock()
	falseB := m.cf.NewBlock()
	convB := m.cf.NewBlock()

	m.cf.Emit(from, loc, &ir.Jump{Destination: trueB.Label, Condition: condition, A: a, B: b})
	m.cf.Emit(from, loc, &ir.Jump{Destination: falseB.Label})

	m.conv.RedirectSource(from, convB.Label)
	if err := m.conv.Add([]int{trueB.Label, falseB.Label}, convB.Label); err != nil {
		return 0, err
	}

	m.falseBlocks[from] = falseB.Label
	m.branchPath = append(m.branchPath, from)
	m.cf.SetCurrent(trueB.Label)
	return trueB.Label, nil
}

// FinishTrueBranchSwitchToFalse converges the true arm's final block and
// switches current to the stashed false block.
func (m *BlockManager) FinishTrueBranchSwitchToFalse(loc ir.SourceLoc) (int, error) {
	if len(m.branchPath) == 0 {
		return 0, &NotBranchedError{}
	}
	from := m.branchPath[len(m.branchPath)-1]

	current := m.cf.Current().Label
	result, err := m.conv.Converge(current)
	if err != nil {
		return 0, err
	}
	m.cf.Emit(current, loc, &ir.Jump{Destination: result.Target})

	falseBlock, ok := m.falseBlocks[from]
	if !ok {
		return 0, &MissingFalseBlockError{From: from}
	}
	delete(m.falseBlocks, from)
	m.cf.SetCurrent(falseBlock)
	return falseBlock, nil
}

// CreateUnconditionalBranch opens a single-successor branch (used for
// lexical sub-blocks) from cf.Current(). Like CreateConditionalBranch, it
// redirects any enclosing convergence waiting on the source block. It
// returns the true block, which becomes current.
func (m *BlockManager) CreateUnconditionalBranch(loc ir.SourceLoc) (int, error) {
	from := m.cf.Current().Label
	trueB := m.cf.NewBlock()
	afterB := m.cf.NewBlock()

	m.conv.RedirectSource(from, afterB.Label)
	if err := m.conv.Add([]int{trueB.Label}, afterB.Label); err != nil {
		return 0, err
	}

	m.cf.Emit(from, loc, &ir.Jump{Destination: trueB.Label})
	m.branchPath = append(m.branchPath, from)
	m.cf.SetCurrent(trueB.Label)
	return trueB.Label, nil
}

// FinishBranch converges the current block for the innermost open branch.
// When every source of that convergence has now landed (Done), the target
// block becomes current and is returned with done=true.
func (m *BlockManager) FinishBranch(loc ir.SourceLoc) (target int, done bool, err error) {
	if len(m.branchPath) == 0 {
		return 0, false, &NotBranchedError{}
	}
	m.branchPath = m.branchPath[:len(m.branchPath)-1]

	current := m.cf.Current().Label
	result, err := m.conv.Converge(current)
	if err != nil {
		return 0, false, err
	}
	m.cf.Emit(current, loc, &ir.Jump{Destination: result.Target})

	if result.Done {
		m.cf.SetCurrent(result.Target)
	}
	return result.Target, result.Done, nil
}

// CreateLoop opens `while cond { body }` from cf.Current(). It allocates
// the loop's top (condition test), bottom (loop-exit landing pad), and
// after (post-loop continuation) blocks, emits the entry jump, redirects
// any enclosing convergence waiting on the source block to after, and
// registers the bottom→after convergence. The top block becomes current.
func (m *BlockManager) CreateLoop(loc ir.SourceLoc) int {
	from := m.cf.Current().Label
	top := m.cf.NewBlock()
	bottom := m.cf.NewBlock()
	after := m.cf.NewBlock()

	m.cf.Emit(from, loc, &ir.Jump{Destination: top.Label})
	m.conv.RedirectSource(from, after.Label)
	// Single-source convergence: Add can't fail here since bottom was just
	// allocated and has no prior registration.
	_ = m.conv.Add([]int{bottom.Label}, after.Label)

	m.loops = append(m.loops, loopFrame{Top: top.Label, Bottom: bottom.Label, After: after.Label})
	m.cf.SetCurrent(top.Label)
	return top.Label
}

// EnterLoopBody emits the loop condition's two terminator jumps from the
// loop's top block (true into a fresh body block, false straight to the
// loop's bottom) and switches current to the body block.
func (m *BlockManager) EnterLoopBody(condition ir.Condition, a, b ir.Operand, loc ir.SourceLoc) (int, error) {
	if len(m.loops) == 0 {
		return 0, &NotLoopedError{}
	}
	frame := m.loops[len(m.loops)-1]
	body := m.cf.NewBlock()

	m.cf.Emit(frame.Top, loc, &ir.Jump{Destination: body.Label, Condition: condition, A: a, B: b})
	m.cf.Emit(frame.Top, loc, &ir.Jump{Destination: frame.Bottom})

	m.cf.SetCurrent(body.Label)
	return body.Label, nil
}

// FinishLoopBody emits the back-edge from the body's final current block
// to the loop's top.
func (m *BlockManager) FinishLoopBody(loc ir.SourceLoc) error {
	if len(m.loops) == 0 {
		return &NotLoopedError{}
	}
	frame := m.loops[len(m.loops)-1]
	current := m.cf.Current().Label
	m.cf.Emit(current, loc, &ir.Jump{Destination: frame.Top})
	return nil
}

// FinishLoop converges the loop's bottom block into after and switches
// current there, popping the loop frame.
func (m *BlockManager) FinishLoop(loc ir.SourceLoc) (int, error) {
	if len(m.loops) == 0 {
		return 0, &NotLoopedError{}
	}
	frame := m.loops[len(m.loops)-1]
	m.loops = m.loops[:len(m.loops)-1]

	result, err := m.conv.Converge(frame.Bottom)
	if err != nil {
		return 0, err
	}
	m.cf.Emit(frame.Bottom, loc, &ir.Jump{Destination: result.Target})
	m.cf.SetCurrent(result.Target)
	return result.Target, nil
}
