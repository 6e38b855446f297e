package linearize

import "fmt"

// ExistingFalseBlockError reports a second conditional branch opened from
// a block that already has a pending false-target, which is an internal
// invariant violation.
type ExistingFalseBlockError struct {
	From     int
	Existing int
}

func (e *ExistingFalseBlockError) Error() string {
	return fmt.Sprintf("block %d already has a pending false-block %d", e.From, e.Existing)
}

// MissingFalseBlockError reports a conditional convergence finish with no
// stashed false target for the source block.
type MissingFalseBlockError struct{ From int }

func (e *MissingFalseBlockError) Error() string {
	return fmt.Sprintf("block %d has no stashed false-block", e.From)
}

// NotBranchedError reports a branch-finish call with no open branch.
type NotBranchedError struct{}

func (e *NotBranchedError) Error() string { return "finish called with no open branch" }

// NotDoneError reports a branch-finish expected to fully converge that
// didn't (some registered source never called Converge).
type NotDoneError struct{ Target int }

func (e *NotDoneError) Error() string {
	return fmt.Sprintf("convergence at block %d is not done: sources remain", e.Target)
}

// alreadyConvergingError reports Add called with a source that already
// converges to a different target — a duplicate convergence registration.
type alreadyConvergingError struct {
	Source, ExistingTarget int
}

func (e *alreadyConvergingError) Error() string {
	return fmt.Sprintf("block %d already converges to block %d", e.Source, e.ExistingTarget)
}

// noConvergenceError reports Converge called for a source with no
// registered convergence.
type noConvergenceError struct{ Source int }

func (e *noConvergenceError) Error() string {
	return fmt.Sprintf("block %d has no registered convergence", e.Source)
}

// ConvergeResult is the outcome of converging one source: either the
// convergence target is Done (every registered source has now converged,
// and the caller owns the target block) or NotDone (other sources remain).
type ConvergeResult struct {
	Done   bool
	Target int
}

// Convergences is a many-to-one relation from source-block labels to a
// single designated convergence target, tracking which sources have yet to
// converge. The target block is conceptually "owned" by the relation until
// every registered source has converged to it.
type Convergences struct {
	targetBySource map[int]int
	pending        map[int]map[int]bool // target -> set of sources not yet converged
}

// NewConvergences returns an empty convergence tracker.
func NewConvergences() *Convergences {
	return &Convergences{
		targetBySource: map[int]int{},
		pending:        map[int]map[int]bool{},
	}
}

// Add registers every label in sources as converging to target. It is an
// error for any source to already converge elsewhere.
func (c *Convergences) Add(sources []int, target int) error {
	for _, s := range sources {
		if existing, ok := c.targetBySource[s]; ok {
			return &alreadyConvergingError{Source: s, ExistingTarget: existing}
		}
	}
	pending := make(map[int]bool, len(sources))
	for _, s := range sources {
		c.targetBySource[s] = target
		pending[s] = true
	}
	c.pending[target] = pending
	return nil
}

// Converge records that source has reached its registered target, and
// reports whether every source of that target has now converged.
func (c *Convergences) Converge(source int) (ConvergeResult, error) {
	target, ok := c.targetBySource[source]
	if !ok {
		return ConvergeResult{}, &noConvergenceError{Source: source}
	}
	delete(c.targetBySource, source)

	pending := c.pending[target]
	delete(pending, source)
	if len(pending) == 0 {
		delete(c.pending, target)
		return ConvergeResult{Done: true, Target: target}, nil
	}
	return ConvergeResult{Done: false, Target: target}, nil
}

// Retarget renames any convergence currently targeting oldTarget so it
// targets newTarget instead, moving every one of its pending sources along
// with it. This is how an enclosing branch's join point is pushed forward
// when a new branch opens from a block the enclosing branch was about to
// converge at (spec.md §4.4: "renames any existing convergence that
// currently terminates at from_block to terminate at convergence
// instead"). A no-op if oldTarget isn't currently a convergence target.
func (c *Convergences) Retarget(oldTarget, newTarget int) {
	pending, ok := c.pending[oldTarget]
	if !ok {
		return
	}
	delete(c.pending, oldTarget)
	c.pending[newTarget] = pending
	for s := range pending {
		c.targetBySource[s] = newTarget
	}
}

// RedirectSource moves a single pending source registration from oldSource
// to newSource, leaving its target unchanged. A no-op if oldSource isn't
// currently registered as a pending source of anything.
//
// This is what keeps an enclosing branch's eventual Converge call working
// once a nested branch opens from its source block: oldSource's own
// terminator is about to be overwritten by the nested branch's jumps, so it
// will never itself call Converge again. newSource — the nested branch's own
// join block — is what becomes current once the nested branch fully
// resolves, so it's what must carry the outer registration forward.
func (c *Convergences) RedirectSource(oldSource, newSource int) {
	target, ok := c.targetBySource[oldSource]
	if !ok {
		return
	}
	delete(c.targetBySource, oldSource)
	c.targetBySource[newSource] = target

	pending := c.pending[target]
	delete(pending, oldSource)
	pending[newSource] = true
}
