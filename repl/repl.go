// Package repl SPDX-License-Identifier: Apache-2.0
//
// repl provides an interactive shell for loading a kernel-IR file and
// inspecting the Multiplier and BSizeDependence lattice values the core
// analyses compute for it, one function at a time.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"warplint/grammar"
	"warplint/internal/bsize"
	"warplint/internal/contract"
	"warplint/internal/kernelir"
	"warplint/internal/kernelir/build"
	"warplint/internal/uncoalesced"
)

const PROMPT = ">> "

// session holds the module currently loaded, plus the analysis run over
// whichever function was last selected with "func".
type session struct {
	mod      *kernelir.Module
	fnName   string
	fn       contract.Function
	mult     *uncoalesced.Analysis
	bsz      *bsize.Analysis
	bszFlags map[contract.ValueID]bool
}

// Start runs the REPL loop over in, printing prompts and results to stdout
// until in is exhausted.
func Start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	sess := &session{}

	fmt.Println(`warplint REPL. Commands: load <file>, funcs, func <name>, show <%valueID>, flagged, help, quit`)
	for {
		fmt.Print(PROMPT)
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			fmt.Println(`load <file>    parse and lower a kernel-IR file
funcs          list functions in the loaded module
func <name>    run the analyses over one function
show <%N>      print the Multiplier value of %N in the state recorded before
               instruction N, and whether instruction N is block-size flagged
flagged        print the uncoalesced/block-size-dependent instructions found
quit           exit`)
		case "load":
			sess.load(args)
		case "funcs":
			sess.listFuncs()
		case "func":
			sess.selectFunc(args)
		case "show":
			sess.show(args)
		case "flagged":
			sess.printFlagged()
		default:
			fmt.Printf("unknown command %q (try \"help\")\n", cmd)
		}
	}
}

func (s *session) load(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: load <file>")
		return
	}

	prog, err := grammar.ParseFile(args[0])
	if err != nil {
		return // grammar.ParseFile printed any syntax error; a read failure is not printed.
	}

	mod, err := build.FromProgram(prog)
	if err != nil {
		fmt.Printf("lowering failed: %s\n", err)
		return
	}

	s.mod = mod
	s.fnName = ""
	s.fn = nil
	fmt.Printf("loaded %d function(s) from %s\n", len(mod.Functions()), args[0])
}

func (s *session) listFuncs() {
	if s.mod == nil {
		fmt.Println("no module loaded; try \"load <file>\"")
		return
	}
	for _, fn := range s.mod.Functions() {
		fmt.Println(fn.Name())
	}
}

func (s *session) selectFunc(args []string) {
	if s.mod == nil {
		fmt.Println("no module loaded; try \"load <file>\"")
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: func <name>")
		return
	}

	var fn contract.Function
	for _, f := range s.mod.Functions() {
		if f.Name() == args[0] {
			fn = f
			break
		}
	}
	if fn == nil {
		fmt.Printf("no such function %q\n", args[0])
		return
	}

	isPointer := func(id contract.ValueID) bool { return fn.IsParamPointer(id) }

	mult := uncoalesced.NewAnalysis()
	multState := mult.BuildInitialState(fn, isPointer)
	mult.Run(fn, multState)

	bsz := bsize.NewAnalysis(0)
	bszState := bsz.BuildInitialState(fn, isPointer)
	bszFlags := bsz.Run(fn, bszState)

	s.fnName = fn.Name()
	s.fn = fn
	s.mult = mult
	s.bsz = bsz
	s.bszFlags = bszFlags
	fmt.Printf("analyzing %s (axis x)\n", fn.Name())
}

func (s *session) show(args []string) {
	if s.fn == nil {
		fmt.Println("no function selected; try \"func <name>\"")
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: show <%valueID>")
		return
	}

	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if err != nil {
		fmt.Printf("invalid value id %q\n", args[0])
		return
	}
	vid := contract.ValueID(id)

	if st, ok := s.mult.StateBeforeInstruction(vid); ok {
		fmt.Printf("multiplier: %s\n", st.GetValue(vid))
	} else {
		fmt.Println("multiplier: (no recorded state before this value)")
	}

	flagged := s.bszFlags[vid]
	fmt.Printf("block-size flagged: %t\n", flagged)
}

func (s *session) printFlagged() {
	if s.fn == nil {
		fmt.Println("no function selected; try \"func <name>\"")
		return
	}
	fmt.Println("uncoalesced:")
	for id := range s.mult.FlaggedAccesses() {
		fmt.Printf("  %%%d\n", id)
	}
	fmt.Println("block-size-dependent:")
	for id := range s.bsz.FlaggedAccesses() {
		fmt.Printf("  %%%d\n", id)
	}
	fmt.Println("__syncthreads():")
	for id := range s.bsz.SyncThreads() {
		fmt.Printf("  %%%d\n", id)
	}
}
