// Package idfa implements the generic iterative dataflow analysis
// framework of spec.md §4.7: a fixpoint analyzer parameterized by an
// ordered, displayable fact type, driven by a client's gen/kill
// population, meet, and transfer functions.
package idfa

import (
	"fmt"
	"sort"

	"github.com/msiegel/substratum-sub000/internal/ir"
)

// Fact is the constraint spec.md places on the analysis's fact type: it
// must support equality (so fixpoint convergence can be checked) and a
// stable display order (so results are reproducible in diagnostics).
type Fact interface {
	comparable
	fmt.Stringer
}

// Set is an unordered collection of facts.
type Set[T Fact] map[T]struct{}

// NewSet builds a Set containing items.
func NewSet[T Fact](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}

// Clone returns an independent copy of s.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns a new set containing every element of s and other.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := s.Clone()
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Diff returns a new set containing s's elements that are not in other.
func (s Set[T]) Diff(other Set[T]) Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		if _, excluded := other[k]; !excluded {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and other contain exactly the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Add inserts item into s in place.
func (s Set[T]) Add(item T) { s[item] = struct{}{} }

// Sorted returns s's elements ordered by their String() form, for
// deterministic diagnostic rendering.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// BlockFacts holds the four per-block fact sets spec.md §4.7 names.
type BlockFacts[T Fact] struct {
	In, Out, Gen, Kill Set[T]
}

func newBlockFacts[T Fact]() *BlockFacts[T] {
	return &BlockFacts[T]{In: Set[T]{}, Out: Set[T]{}, Gen: Set[T]{}, Kill: Set[T]{}}
}

// Direction discriminates forward analyses (reaching definitions) from
// backward ones (liveness).
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Client supplies the three functions spec.md §4.7 requires of a concrete
// analysis: gen/kill population, meet, and transfer.
type Client[T Fact] interface {
	// FindGenKill populates the Gen and Kill sets of every block's facts.
	// In/Out are left zero-valued for Run to iterate.
	FindGenKill(cfg *ir.ControlFlow, facts map[int]*BlockFacts[T])

	// Meet combines two incoming fact sets at a join point.
	Meet(a, b Set[T]) Set[T]

	// Transfer computes a block's outgoing (forward) or incoming
	// (backward) facts from its own Gen/Kill and the facts flowing in
	// from Meet.
	Transfer(facts *BlockFacts[T], incoming Set[T]) Set[T]

	Direction() Direction
}

// Run drives client to a fixpoint over cfg, visiting blocks in label order
// for forward analyses and reverse label order for backward ones,
// repeating full passes until one produces no change (spec.md §4.7).
func Run[T Fact](cfg *ir.ControlFlow, client Client[T]) map[int]*BlockFacts[T] {
	blocks := cfg.Blocks()
	facts := make(map[int]*BlockFacts[T], len(blocks))
	for _, bb := range blocks {
		facts[bb.Label] = newBlockFacts[T]()
	}
	client.FindGenKill(cfg, facts)

	order := make([]int, len(blocks))
	for i, bb := range blocks {
		order[i] = bb.Label
	}
	if client.Direction() == Backward {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	for {
		changed := false
		for _, label := range order {
			bf := facts[label]

			var neighbors []int
			if client.Direction() == Forward {
				neighbors = cfg.Predecessors(label)
			} else {
				neighbors = cfg.Successors(label)
			}

			incoming := Set[T]{}
			for _, n := range neighbors {
				var src Set[T]
				if client.Direction() == Forward {
					src = facts[n].Out
				} else {
					src = facts[n].In
				}
				incoming = client.Meet(incoming, src)
			}

			if client.Direction() == Forward {
				bf.In = incoming
			} else {
				bf.Out = incoming
			}

			result := client.Transfer(bf, incoming)

			if client.Direction() == Forward {
				if !result.Equal(bf.Out) {
					bf.Out = result
					changed = true
				}
			} else {
				if !result.Equal(bf.In) {
					bf.In = result
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	return facts
}
