package diag

import (
	"strings"

	"github.com/pkg/errors"
)

// Buffer accumulates non-fatal diagnostics in source order (spec.md §7's
// propagation policy). Fatal diagnostics never enter the buffer: they are
// wrapped with github.com/pkg/errors at the call site and returned
// immediately so the caller aborts compilation with a stack trace intact.
type Buffer struct {
	entries []Diagnostic
}

// NewBuffer returns an empty diagnostics buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Push records a non-fatal diagnostic.
func (b *Buffer) Push(d Diagnostic) { b.entries = append(b.entries, d) }

// Len reports how many diagnostics have been recorded.
func (b *Buffer) Len() int { return len(b.entries) }

// Entries returns the recorded diagnostics in source order.
func (b *Buffer) Entries() []Diagnostic {
	out := make([]Diagnostic, len(b.entries))
	copy(out, b.entries)
	return out
}

// HasErrors reports whether any diagnostic was recorded.
func (b *Buffer) HasErrors() bool { return len(b.entries) > 0 }

// Render joins every entry's rendering, one per line, in source order.
func (b *Buffer) Render() string {
	lines := make([]string, len(b.entries))
	for i, d := range b.entries {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// Fatal wraps an internal-invariant error (branch protocol misuse, invalid
// ownership, and similarly "can't have happened" conditions) with
// call-site context, per spec.md §7: these abort compilation immediately
// rather than being accumulated.
func Fatal(err error, context string) error {
	return errors.Wrap(err, context)
}
