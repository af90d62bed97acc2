// Command escript is the CLI front end for the escript interpreter: run a
// script file or inline expression, or disassemble its compiled bytecode.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/escript/cmd/escript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
