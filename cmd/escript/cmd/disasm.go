package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/bytecode"
	"github.com/cwbudde/escript/internal/lexer"
	"github.com/cwbudde/escript/internal/parser"
	"github.com/spf13/cobra"
)

var disasmEval string

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a script and print its bytecode disassembly",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&disasmEval, "eval", "e", "", "disassemble inline code instead of reading from file")
}

func runDisasm(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(disasmEval, args)
	if err != nil {
		return err
	}

	lex := lexer.New(input)
	p := parser.New(lex)
	prog, err := p.ParseProgram()
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	fn, err := bytecode.Compile("", nil, ast.List(prog), true)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	bytecode.NewDisassembler(os.Stdout).Disassemble(fn)
	return nil
}
