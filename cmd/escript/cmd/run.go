package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/escript/internal/vm"
	"github.com/spf13/cobra"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an escript file or inline expression",
	Long: `Execute an escript program from a file or inline expression.

Examples:
  # Run a script file
  escript run script.es

  # Evaluate an inline expression
  escript run -e "console.log('hello');"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
}

func runScript(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	rt := vm.NewRuntime(nil)
	rt.Output = os.Stdout

	fn, err := rt.BuildFunctionFromCode(input)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	if _, err := rt.RunScript(fn); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

func readSource(evalExpr string, args []string) (source, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e flag for inline code")
}
