package linearize

import (
	"testing"

	"github.com/msiegel/substratum-sub000/internal/ir"
)

func cond() ir.Operand { return ir.ConstantOperand(1) }

func requireTerminated(t *testing.T, cf *ir.ControlFlow, label int) *ir.Jump {
	t.Helper()
	bb, ok := cf.Block(label)
	if !ok {
		t.Fatalf("block %d does not exist", label)
	}
	j := bb.Terminator()
	if j == nil {
		t.Fatalf("block %d is not terminated", label)
	}
	return j
}

func TestConditionalBranchBothArmsConverge(t *testing.T) {
	cf := ir.NewControlFlow()
	bm := NewBlockManager(cf)

	entry := cf.Current().Label
	trueB, err := bm.CreateConditionalBranch(ir.CondEq, cond(), cond(), ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if trueB != cf.Current().Label {
		t.Fatalf("CreateConditionalBranch should leave current at the true block")
	}

	entryBB, _ := cf.Block(entry)
	if len(entryBB.Lines) != 2 {
		t.Fatalf("entry block should carry the conditional-then-unconditional jump pair, got %d lines", len(entryBB.Lines))
	}
	condJump, ok := entryBB.Lines[0].Op.(*ir.Jump)
	if !ok || condJump.Condition != ir.CondEq || condJump.Destination != trueB {
		t.Errorf("entry block's first line should be the conditional jump to the true block")
	}
	uncondJump, ok := entryBB.Lines[1].Op.(*ir.Jump)
	if !ok || uncondJump.Condition != ir.Unconditional {
		t.Errorf("entry block's second line should be the unconditional jump to the false block")
	}

	falseB, err := bm.FinishTrueBranchSwitchToFalse(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if falseB != cf.Current().Label {
		t.Fatalf("FinishTrueBranchSwitchToFalse should leave current at the false block")
	}

	target, done, err := bm.FinishBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatalf("both arms converged, FinishBranch should report done")
	}
	if target != cf.Current().Label {
		t.Fatalf("current should be the convergence target after done")
	}

	trueJump := requireTerminated(t, cf, trueB)
	if trueJump.Destination != target {
		t.Errorf("true arm should jump to convergence target %d, got %d", target, trueJump.Destination)
	}
	falseJump := requireTerminated(t, cf, falseB)
	if falseJump.Destination != target {
		t.Errorf("false arm should jump to convergence target %d, got %d", target, falseJump.Destination)
	}

	if err := cf.CheckSymmetry(); err != nil {
		t.Errorf("successor/predecessor relation is not symmetric: %v", err)
	}
	preds := cf.Predecessors(target)
	if len(preds) != 2 || preds[0] != trueB || preds[1] != falseB {
		t.Errorf("convergence target should have exactly {trueB, falseB} as predecessors, got %v", preds)
	}
}

func TestUnconditionalBranchSingleSourceConverges(t *testing.T) {
	cf := ir.NewControlFlow()
	bm := NewBlockManager(cf)

	entry := cf.Current().Label
	body, err := bm.CreateUnconditionalBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if body != cf.Current().Label {
		t.Fatalf("CreateUnconditionalBranch should leave current at the body block")
	}

	entryJump := requireTerminated(t, cf, entry)
	if entryJump.Condition != ir.Unconditional || entryJump.Destination != body {
		t.Errorf("entry should unconditionally jump to the body block")
	}

	target, done, err := bm.FinishBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("single-source convergence should be immediately done")
	}
	if target != cf.Current().Label {
		t.Fatalf("current should move to the convergence target")
	}

	bodyJump := requireTerminated(t, cf, body)
	if bodyJump.Destination != target {
		t.Errorf("body should jump to the convergence target %d, got %d", target, bodyJump.Destination)
	}
}

// TestNestedConditionalRedirectsEnclosingConvergence covers the scenario
// that motivates RedirectSource: an outer if/else whose false arm opens a
// second, nested conditional branch before the outer arm ever converges.
// The outer convergence was registered against the false block itself; once
// the nested branch's jumps overwrite that block's terminator, the outer
// convergence must follow control to the nested branch's own join block,
// not sit forever on a block that will never call Converge again.
func TestNestedConditionalRedirectsEnclosingConvergence(t *testing.T) {
	cf := ir.NewControlFlow()
	bm := NewBlockManager(cf)

	outerTrue, err := bm.CreateConditionalBranch(ir.CondEq, cond(), cond(), ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	outerFalse, err := bm.FinishTrueBranchSwitchToFalse(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}

	// The false arm's own body contains a nested if/else, opened while
	// outerFalse is still the pending source of the outer convergence.
	innerTrue, err := bm.CreateConditionalBranch(ir.CondEq, cond(), cond(), ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if innerTrue == outerFalse {
		t.Fatal("inner true block must be freshly allocated")
	}
	if _, err := bm.FinishTrueBranchSwitchToFalse(ir.SourceLoc{}); err != nil {
		t.Fatal(err)
	}
	innerTarget, innerDone, err := bm.FinishBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !innerDone {
		t.Fatal("inner branch should be fully converged")
	}
	if cf.Current().Label != innerTarget {
		t.Fatal("current should now be the inner join block")
	}

	// Now finish the OUTER branch. Its registered source was outerFalse, but
	// outerFalse's terminator was overwritten by the nested branch above, so
	// finishing must operate on the inner join block (current) and still
	// resolve to the outer convergence.
	outerTarget, outerDone, err := bm.FinishBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !outerDone {
		t.Fatal("outer branch should converge once its redirected source lands")
	}

	outerTrueJump := requireTerminated(t, cf, outerTrue)
	if outerTrueJump.Destination != outerTarget {
		t.Errorf("outer true arm should join at %d, got %d", outerTarget, outerTrueJump.Destination)
	}
	innerJoinJump := requireTerminated(t, cf, innerTarget)
	if innerJoinJump.Destination != outerTarget {
		t.Errorf("inner join block should have been redirected to converge at %d, got %d", outerTarget, innerJoinJump.Destination)
	}

	if err := cf.CheckSymmetry(); err != nil {
		t.Errorf("successor/predecessor relation is not symmetric: %v", err)
	}
}

func TestLoopProtocolBackEdgeAndAfterConvergence(t *testing.T) {
	cf := ir.NewControlFlow()
	bm := NewBlockManager(cf)

	entry := cf.Current().Label
	top := bm.CreateLoop(ir.SourceLoc{})
	if top != cf.Current().Label {
		t.Fatal("CreateLoop should leave current at the top block")
	}
	entryJump := requireTerminated(t, cf, entry)
	if entryJump.Destination != top {
		t.Errorf("entry should jump into the loop top, got %d", entryJump.Destination)
	}

	body, err := bm.EnterLoopBody(ir.CondNE, cond(), cond(), ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if body != cf.Current().Label {
		t.Fatal("EnterLoopBody should leave current at the body block")
	}
	topBB, _ := cf.Block(top)
	if len(topBB.Lines) != 2 {
		t.Fatalf("loop top should carry the conditional-then-unconditional jump pair, got %d lines", len(topBB.Lines))
	}
	topCondJump, ok := topBB.Lines[0].Op.(*ir.Jump)
	if !ok || topCondJump.Condition != ir.CondNE || topCondJump.Destination != body {
		t.Errorf("loop top's first line should be the conditional jump into the body block")
	}

	if err := bm.FinishLoopBody(ir.SourceLoc{}); err != nil {
		t.Fatal(err)
	}
	bodyJump := requireTerminated(t, cf, body)
	if bodyJump.Destination != top {
		t.Errorf("loop body should back-edge to top %d, got %d", top, bodyJump.Destination)
	}

	after, err := bm.FinishLoop(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if after != cf.Current().Label {
		t.Fatal("FinishLoop should leave current at the after block")
	}

	if err := cf.CheckSymmetry(); err != nil {
		t.Errorf("successor/predecessor relation is not symmetric: %v", err)
	}
	succs := cf.Successors(top)
	foundBody := false
	for _, s := range succs {
		if s == body {
			foundBody = true
		}
	}
	if !foundBody {
		t.Errorf("top's successors should include the body block, got %v", succs)
	}
}

func TestLoopNestedInsideBranchRedirectsOuterConvergence(t *testing.T) {
	cf := ir.NewControlFlow()
	bm := NewBlockManager(cf)

	if _, err := bm.CreateConditionalBranch(ir.CondEq, cond(), cond(), ir.SourceLoc{}); err != nil {
		t.Fatal(err)
	}

	top := bm.CreateLoop(ir.SourceLoc{})
	body, err := bm.EnterLoopBody(ir.CondNE, cond(), cond(), ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if err := bm.FinishLoopBody(ir.SourceLoc{}); err != nil {
		t.Fatal(err)
	}
	after, err := bm.FinishLoop(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if after != cf.Current().Label {
		t.Fatal("current should be the loop's after block")
	}

	falseB, err := bm.FinishTrueBranchSwitchToFalse(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	target, done, err := bm.FinishBranch(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("outer branch should converge once the redirected loop-after block lands")
	}

	afterJump := requireTerminated(t, cf, after)
	if afterJump.Destination != target {
		t.Errorf("loop's after block should have been redirected to converge at %d, got %d", target, afterJump.Destination)
	}
	bodyJump := requireTerminated(t, cf, body)
	if bodyJump.Destination != top {
		t.Errorf("loop body should still back-edge to top %d, got %d", top, bodyJump.Destination)
	}
	falseJump := requireTerminated(t, cf, falseB)
	if falseJump.Destination != target {
		t.Errorf("false arm should join at %d, got %d", target, falseJump.Destination)
	}

	if err := cf.CheckSymmetry(); err != nil {
		t.Errorf("successor/predecessor relation is not symmetric: %v", err)
	}
}
