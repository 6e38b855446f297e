package linearize

import "testing"

func TestConvergeSingleSourceIsImmediatelyDone(t *testing.T) {
	c := NewConvergences()
	if err := c.Add([]int{1}, 2); err != nil {
		t.Fatal(err)
	}
	result, err := c.Converge(1)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Done || result.Target != 2 {
		t.Errorf("single-source convergence should be immediately Done at target 2, got %+v", result)
	}
}

func TestConvergeTwoSourcesWaitsForBoth(t *testing.T) {
	c := NewConvergences()
	if err := c.Add([]int{1, 2}, 3); err != nil {
		t.Fatal(err)
	}

	result, err := c.Converge(1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Done {
		t.Error("first of two sources should not be Done")
	}

	result, err = c.Converge(2)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Done || result.Target != 3 {
		t.Errorf("second of two sources should complete the convergence, got %+v", result)
	}
}

func TestAddRejectsSourceAlreadyConverging(t *testing.T) {
	c := NewConvergences()
	if err := c.Add([]int{1}, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.Add([]int{1}, 5); err == nil {
		t.Error("expected an error re-registering a source already converging elsewhere")
	}
}

func TestConvergeUnregisteredSourceErrors(t *testing.T) {
	c := NewConvergences()
	if _, err := c.Converge(99); err == nil {
		t.Error("expected an error converging a source with no registration")
	}
}

func TestRetargetMovesAllPendingSources(t *testing.T) {
	c := NewConvergences()
	if err := c.Add([]int{1, 2}, 3); err != nil {
		t.Fatal(err)
	}
	c.Retarget(3, 7)

	result, err := c.Converge(1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Target != 7 {
		t.Errorf("after retargeting, source 1 should converge to 7, got %d", result.Target)
	}
	if result.Done {
		t.Error("source 2 hasn't converged yet")
	}

	result, err = c.Converge(2)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Done || result.Target != 7 {
		t.Errorf("final source should complete convergence at the retargeted block, got %+v", result)
	}
}

func TestRetargetOfUnregisteredTargetIsNoop(t *testing.T) {
	c := NewConvergences()
	c.Retarget(42, 99) // should not panic or create spurious state
	if _, err := c.Converge(42); err == nil {
		t.Error("retargeting a non-target should not register a convergence for it")
	}
}
