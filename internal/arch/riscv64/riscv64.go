// Package riscv64 implements the one concrete TargetArchitecture spec.md
// §4.9 requires: a 64-bit RISC-style ISA with 32 registers, grounded on the
// base integer register file convention of RV64 (x0..x31).
package riscv64

import "github.com/msiegel/substratum-sub000/internal/arch"

// Target is the 64-bit, 32-register RISC-V-style architecture.
type Target struct {
	registers arch.Registers
}

// New builds the RISC-V-style target's register file:
//   - x0: zero (read-only zero register)
//   - x1: return address
//   - x2: stack pointer
//   - x3, x4: other (global pointer, thread pointer)
//   - x5, x6, x7: temporaries (caller-save)
//   - x8: frame pointer
//   - x9, x18..x27: general purpose, callee-save (11 registers)
//   - x10..x17: argument-passing, caller-save (8 registers)
//   - x28..x31: temporaries (caller-save)
func New() *Target {
	regs := []arch.Register{
		{Name: "x0", Purpose: arch.Zero, Save: arch.NoSave},
		{Name: "x1", Purpose: arch.ReturnAddress, Save: arch.CallerSave},
		{Name: "x2", Purpose: arch.StackPointer, Save: arch.CalleeSave},
		{Name: "x3", Purpose: arch.Other, Save: arch.NoSave},
		{Name: "x4", Purpose: arch.Other, Save: arch.NoSave},
		{Name: "x5", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x6", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x7", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x8", Purpose: arch.FramePointer, Save: arch.CalleeSave},
		{Name: "x9", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x10", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x11", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x12", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x13", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x14", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x15", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x16", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x17", Purpose: arch.Argument, Save: arch.CallerSave},
		{Name: "x18", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x19", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x20", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x21", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x22", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x23", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x24", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x25", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x26", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x27", Purpose: arch.GeneralPurpose, Save: arch.CalleeSave},
		{Name: "x28", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x29", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x30", Purpose: arch.Temporary, Save: arch.CallerSave},
		{Name: "x31", Purpose: arch.Temporary, Save: arch.CallerSave},
	}
	return &Target{registers: arch.NewRegisters(regs)}
}

// WordSize is 8 bytes (64-bit).
func (t *Target) WordSize() int { return 8 }

// Registers returns the RV64-style register file.
func (t *Target) Registers() arch.Registers { return t.registers }

// RegistersRequiredForArgument delegates to the shared ceil(size/word)
// formula, capped at this target's 8 argument registers.
func (t *Target) RegistersRequiredForArgument(sizeBytes int) (int, bool) {
	return arch.RegistersRequiredForArgument(t, sizeBytes)
}
