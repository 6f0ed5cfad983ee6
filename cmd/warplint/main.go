// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"warplint/grammar"
	"warplint/internal/diagnostics"
	"warplint/internal/interproc"
	"warplint/internal/kernelir/build"
	"warplint/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: warplint <file.wk>")
		os.Exit(1)
	}

	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	prog, err := grammar.ParseString(path, string(source))
	if err != nil {
		// grammar.ParseString already printed a caret-style diagnostic.
		os.Exit(1)
	}

	mod, err := build.FromProgram(prog)
	if err != nil {
		color.Red("failed to lower %s: %s", path, err)
		os.Exit(1)
	}

	result := interproc.Run(mod)
	findings := report.Findings(mod, result)

	reporter := diagnostics.NewReporter(path, string(source))
	fmt.Print(reporter.FormatAll(findings))

	if len(findings) == 0 {
		color.Green("no issues found in %s", path)
		return
	}

	os.Exit(1)
}
