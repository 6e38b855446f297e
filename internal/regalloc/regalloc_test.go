package regalloc

import (
	"strconv"
	"testing"

	"github.com/msiegel/substratum-sub000/internal/arch"
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// fakeTarget is a minimal arch.Target with a caller-chosen number of
// general-purpose registers, so tests can force spills without building a
// full 32-register RISC-V-style file.
type fakeTarget struct {
	word         int
	generalCount int
	argCount     int
}

func (f fakeTarget) WordSize() int { return f.word }

func (f fakeTarget) Registers() arch.Registers {
	var regs []arch.Register
	for i := 0; i < f.generalCount; i++ {
		regs = append(regs, arch.Register{Name: rname("g", i), Purpose: arch.GeneralPurpose})
	}
	for i := 0; i < f.argCount; i++ {
		regs = append(regs, arch.Register{Name: rname("a", i), Purpose: arch.Argument})
	}
	return arch.NewRegisters(regs)
}

func (f fakeTarget) RegistersRequiredForArgument(sizeBytes int) (int, bool) {
	return arch.RegistersRequiredForArgument(f, sizeBytes)
}

func rname(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

func u32Type(interner *types.Interner) types.Semantic {
	return interner.Intern(types.TypeDefinition{
		Syntax: types.UnsignedInt{Size: types.Size32},
		Repr:   types.TypeRepr{Kind: types.ReprUnsignedInteger, IntSize: types.Size32},
	})
}

// buildSingleBlock constructs one block with three values whose lifetimes
// all overlap: a := 1; b := 2; c := a + b. a, b, and c are all live at the
// BinaryOperation line, so all three pairwise interfere.
func buildSingleBlock(typ types.Semantic) (*ir.ControlFlow, *ir.Interner, map[string]ir.ValueId) {
	cf := ir.NewControlFlow()
	values := ir.NewInterner()

	a := values.NewVariable(nil, typ)
	b := values.NewVariable(nil, typ)
	c := values.NewTemporary(typ)

	bb, _ := cf.Block(0)
	bb.Append(ir.SourceLoc{}, &ir.Assignment{Dest: a, Source: ir.ConstantOperand(1)})
	bb.Append(ir.SourceLoc{}, &ir.Assignment{Dest: b, Source: ir.ConstantOperand(2)})
	bb.Append(ir.SourceLoc{}, &ir.BinaryOperation{Op: ir.Add, Dest: c, A: ir.ValueOperand(a), B: ir.ValueOperand(b)})

	return cf, values, map[string]ir.ValueId{"a": a, "b": b, "c": c}
}

func TestComputeLifetimesTracksFirstAndLastTouch(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	typ := u32Type(typeInterner)
	cf, _, vals := buildSingleBlock(typ)

	lifetimes := ComputeLifetimes(cf)
	byValue := map[ir.ValueId]Lifetime{}
	for _, lt := range lifetimes {
		byValue[lt.Value] = lt
	}

	a := byValue[vals["a"]]
	if a.Start != 0 || a.End != 2 {
		t.Errorf("a's lifetime should span its write at 0 through its read at 2, got [%d,%d]", a.Start, a.End)
	}

	c := byValue[vals["c"]]
	if c.Start != 2 || c.End != 2 {
		t.Errorf("c's lifetime should be a single point at 2, got [%d,%d]", c.Start, c.End)
	}
}

func TestBuildGraphConnectsOverlappingLifetimes(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	typ := u32Type(typeInterner)
	cf, _, vals := buildSingleBlock(typ)

	graph := BuildGraph(ComputeLifetimes(cf))

	if !graph.Interferes(vals["a"], vals["b"]) {
		t.Error("a and b are both live at the BinaryOperation and should interfere")
	}
	if !graph.Interferes(vals["a"], vals["c"]) {
		t.Error("a and c are both live at the BinaryOperation and should interfere")
	}
	if graph.Interferes(vals["a"], vals["a"]) {
		t.Error("a value should never interfere with itself")
	}
}

func TestAllocateColorsInterferingValuesDistinctly(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	typ := u32Type(typeInterner)
	cf, values, vals := buildSingleBlock(typ)
	target := fakeTarget{word: 8, generalCount: 3, argCount: 2}

	assignment := Allocate(cf, values, typeInterner, target)

	regA, okA := assignment.Registers[vals["a"]]
	regB, okB := assignment.Registers[vals["b"]]
	regC, okC := assignment.Registers[vals["c"]]
	if !okA || !okB || !okC {
		t.Fatalf("all three interfering values should have been colored, got %+v", assignment.Registers)
	}
	if regA.Name == regB.Name || regA.Name == regC.Name || regB.Name == regC.Name {
		t.Errorf("mutually interfering values must receive distinct registers, got a=%s b=%s c=%s", regA.Name, regB.Name, regC.Name)
	}
	if len(assignment.Spills) != 0 {
		t.Errorf("expected no spills with 3 registers for 3 mutually interfering values, got %+v", assignment.Spills)
	}
}

func TestAllocateSpillsWhenRegistersExhausted(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	typ := u32Type(typeInterner)
	cf, values, vals := buildSingleBlock(typ)
	target := fakeTarget{word: 8, generalCount: 2, argCount: 2}

	assignment := Allocate(cf, values, typeInterner, target)

	colored := len(assignment.Registers)
	spilled := len(assignment.Spills)
	if colored != 2 || spilled != 1 {
		t.Errorf("with 2 registers for 3 mutually interfering values, expected 2 colored and 1 spilled, got colored=%d spilled=%d", colored, spilled)
	}
	_ = vals
}

func TestAllocateSpillsOversizedOperandUnconditionally(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	big := typeInterner.Intern(types.TypeDefinition{
		Repr: types.TypeRepr{Kind: types.ReprStruct, Name: "Big", Size: 4096, Align: 8},
	})

	cf := ir.NewControlFlow()
	values := ir.NewInterner()
	v := values.NewVariable(nil, big)
	bb, _ := cf.Block(0)
	bb.Append(ir.SourceLoc{}, &ir.Assignment{Dest: v, Source: ir.ConstantOperand(0)})

	target := fakeTarget{word: 8, generalCount: 16, argCount: 8}
	assignment := Allocate(cf, values, typeInterner, target)

	if _, ok := assignment.Registers[v]; ok {
		t.Error("an operand too large for the argument-register class should never be colored")
	}
	if _, ok := assignment.Spills[v]; !ok {
		t.Error("an oversized operand should be recorded as a spill")
	}
}

func TestAllocateIsolatedValueStillAssigned(t *testing.T) {
	typeInterner := types.NewInterner(fakeTarget{word: 8})
	typ := u32Type(typeInterner)

	cf := ir.NewControlFlow()
	values := ir.NewInterner()
	v := values.NewVariable(nil, typ)
	bb, _ := cf.Block(0)
	bb.Append(ir.SourceLoc{}, &ir.Assignment{Dest: v, Source: ir.ConstantOperand(5)})

	target := fakeTarget{word: 8, generalCount: 1, argCount: 1}
	assignment := Allocate(cf, values, typeInterner, target)

	if _, ok := assignment.Registers[v]; !ok {
		t.Error("a value with no interference at all should still be colored")
	}
}
