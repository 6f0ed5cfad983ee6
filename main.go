// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"warplint/grammar"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: warplint-parse <file.wk>")
		os.Exit(1)
	}

	path := os.Args[1]

	program, err := grammar.ParseFile(path)
	if err != nil {
		// grammar.ParseFile printed any syntax error; a read failure is not printed.
		os.Exit(1)
	}

	fmt.Println("Parsed program:")
	fmt.Print(program.String())

	color.Green("Successfully parsed %s", path)
}
