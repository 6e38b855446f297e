// Command substratumc drives the middle end end to end: lex, parse, build
// the symbol table while linearizing into IR, construct SSA, run the
// dataflow analyses, and allocate registers for one riscv64 target.
//
// This demonstrates the complete pipeline:
//  1. Lexical analysis (tokenization)
//  2. Syntax analysis (parsing into the Rust-like surface ast)
//  3. Declaration + linearization (symbol table population, AST -> IR)
//  4. SSA construction
//  5. Dataflow analysis (live variables)
//  6. Register allocation
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/msiegel/substratum-sub000/internal/arch/riscv64"
	"github.com/msiegel/substratum-sub000/internal/diag"
	"github.com/msiegel/substratum-sub000/internal/idfa"
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/lexer"
	"github.com/msiegel/substratum-sub000/internal/linearize"
	"github.com/msiegel/substratum-sub000/internal/parser"
	"github.com/msiegel/substratum-sub000/internal/regalloc"
	"github.com/msiegel/substratum-sub000/internal/ssa"
	"github.com/msiegel/substratum-sub000/internal/symtab"
)

func main() {
	verbose := flag.Bool("verbose", false, "dump IR, live-variable facts, and register assignments for every function")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-verbose] <source-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(filename string, verbose bool) error {
	source, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "reading source file")
	}

	file, parseErrors := parser.New(lexer.New(string(source), filename)).ParseFile(filename)
	if len(parseErrors) > 0 {
		for _, e := range parseErrors {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", e)
		}
		return errors.New("parsing failed")
	}
	fmt.Println("parsing succeeded")

	target := riscv64.New()
	symbols := symtab.New(target)
	diags := diag.NewBuffer()
	lz := linearize.NewLinearizer(symbols, diags)
	if err := lz.LinearizeFile(file); err != nil {
		return errors.Wrap(err, "linearizing")
	}

	if diags.HasErrors() {
		fmt.Fprintln(os.Stderr, diags.Render())
		return errors.New("linearization reported diagnostics")
	}
	fmt.Printf("linearized %d function(s)\n", len(lz.Results))

	for _, result := range lz.Results {
		if err := compileFunction(result, symbols, target, verbose); err != nil {
			return errors.Wrapf(err, "compiling %s", result.Path)
		}
	}

	fmt.Println("compilation succeeded")
	return nil
}

func compileFunction(result *linearize.Result, symbols *symtab.SymbolTable, target *riscv64.Target, verbose bool) error {
	if err := result.CF.CheckSymmetry(); err != nil {
		return errors.Wrap(err, "control-flow graph is malformed")
	}

	if verbose {
		fmt.Printf("\n=== %s: IR before SSA ===\n%s\n", result.Path, result.CF)
	}

	ssa.Construct(result.CF)

	liveIn := idfa.Run[ir.ValueId](result.CF, idfa.LiveVars{})
	if verbose {
		fmt.Printf("\n=== %s: live variables on block entry ===\n", result.Path)
		for _, bb := range result.CF.Blocks() {
			fmt.Printf("  bb%d: %v\n", bb.Label, liveIn[bb.Label].In.Sorted())
		}
	}

	assignment := regalloc.Allocate(result.CF, result.Values, symbols.Types, target)
	if verbose {
		fmt.Printf("\n=== %s: register assignment ===\n", result.Path)
		for value, reg := range assignment.Registers {
			fmt.Printf("  %s -> %s\n", value, reg)
		}
		for value, slot := range assignment.Spills {
			fmt.Printf("  %s -> spill slot %d\n", value, slot.Index)
		}
	}

	return nil
}
