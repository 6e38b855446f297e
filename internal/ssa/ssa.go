// Package ssa implements the three-stage SSA construction pass of spec.md
// §4.6: block-argument inference, write renumbering, and read renumbering,
// plus RemoveSSA to hand IR back to passes that want pre-SSA form.
package ssa

import "github.com/msiegel/substratum-sub000/internal/ir"

// Construct runs all three stages over cf and returns the resulting side
// table of SSA versions.
func Construct(cf *ir.ControlFlow) *Info {
	InferBlockArguments(cf)
	info := newInfo()
	renumberWrites(cf, info)
	renumberReads(cf, info)
	return info
}

// RemoveSSA clears every read operand's SSA number and every block's
// argument list, discarding info. It does not undo block-argument
// inference's structural effect on Jump.BlockArgs maps, since those
// entries are needed again if SSA is reconstructed and carry no SSA
// number themselves.
func RemoveSSA(cf *ir.ControlFlow) {
	for _, bb := range cf.Blocks() {
		bb.BlockArgs = nil
		for _, line := range bb.Lines {
			reads := line.Op.Reads()
			cleared := make([]ir.Operand, len(reads))
			for i, r := range reads {
				r.SSANumber = nil
				cleared[i] = r
			}
			line.Op.SetReads(cleared)
		}
	}
}
