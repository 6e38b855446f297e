package ir

import (
	"fmt"
	"strings"
)

// SourceLoc is the file/line/column/module tag every IR line carries,
// preserved verbatim through SSA and register allocation (spec.md §6).
type SourceLoc struct {
	File   string
	Line   int
	Column int
	Module string
}

func (l SourceLoc) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Line is one IR instruction: a source location plus an Operation.
type Line struct {
	Loc SourceLoc
	Op  Operation
}

// BasicBlock is a straight-line sequence of IR lines with a single entry
// and a terminating Jump, plus the set of block arguments it receives on
// entry (spec.md §3.5). Block arguments replace phi nodes: a block that
// needs a value from more than one predecessor declares it as an argument,
// and each predecessor's terminating Jump supplies the actual operand.
type BasicBlock struct {
	Label     int
	Lines     []Line
	BlockArgs []ValueId
}

// NewBasicBlock creates an empty block with the given label.
func NewBasicBlock(label int) *BasicBlock {
	return &BasicBlock{Label: label}
}

// Append adds a line to the end of the block.
func (bb *BasicBlock) Append(loc SourceLoc, op Operation) {
	bb.Lines = append(bb.Lines, Line{Loc: loc, Op: op})
}

// Terminator returns the block's last line's Operation if it is a Jump, or
// nil if the block has not been terminated yet.
func (bb *BasicBlock) Terminator() *Jump {
	if len(bb.Lines) == 0 {
		return nil
	}
	j, ok := bb.Lines[len(bb.Lines)-1].Op.(*Jump)
	if !ok {
		return nil
	}
	return j
}

// IsTerminated reports whether the block's last line is a Jump.
func (bb *BasicBlock) IsTerminated() bool { return bb.Terminator() != nil }

// HasBlockArg reports whether id is among this block's formal arguments.
func (bb *BasicBlock) HasBlockArg(id ValueId) bool {
	for _, a := range bb.BlockArgs {
		if a == id {
			return true
		}
	}
	return false
}

func (bb *BasicBlock) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bb%d", bb.Label)
	if len(bb.BlockArgs) > 0 {
		parts := make([]string, len(bb.BlockArgs))
		for i, a := range bb.BlockArgs {
			parts[i] = fmt.Sprintf("v%d", a)
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(parts, ", "))
	}
	sb.WriteString(":\n")
	for _, line := range bb.Lines {
		fmt.Fprintf(&sb, "  %s  ; %s\n", line.Op, line.Loc)
	}
	return sb.String()
}
