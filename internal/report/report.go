// Package report turns an interproc.Result into diagnostics.Finding values
// located at their flagged instructions, shared by cmd/warplint and
// internal/lsp so both report the exact same findings through their own
// presentation (colorized terminal output vs. LSP diagnostics).
package report

import (
	"sort"

	"warplint/internal/contract"
	"warplint/internal/diagnostics"
	"warplint/internal/interproc"
)

// Findings walks every entrypoint's recorded result and returns one
// diagnostics.Finding per flagged instruction, sorted by function name then
// source position for stable output.
func Findings(g contract.CallGraph, result interproc.Result) []diagnostics.Finding {
	fns := make(map[string]contract.Function, len(g.Functions()))
	for _, fn := range g.Functions() {
		fns[fn.Name()] = fn
	}

	var out []diagnostics.Finding
	for name, u := range result.Uncoalesced {
		fn, ok := fns[name]
		if !ok {
			continue
		}
		for id := range u.FlaggedAccesses {
			inst, ok := findInstruction(fn, id)
			if !ok {
				continue
			}
			out = append(out, diagnostics.FindingFor(diagnostics.CodeUncoalescedAccess, diagnostics.Warning, name, inst))
		}
	}

	for name, b := range result.BSI {
		fn, ok := fns[name]
		if !ok {
			continue
		}
		for id := range b.FlaggedAccesses {
			inst, ok := findInstruction(fn, id)
			if !ok {
				continue
			}
			code := diagnostics.CodeBlockSizeDependentAccess
			if inst.Op() == contract.OpCall {
				code = diagnostics.CodeBlockSizeDependentCall
			}
			out = append(out, diagnostics.FindingFor(code, diagnostics.Warning, name, inst))
		}
		for id := range b.SyncThreadsFlagged {
			inst, ok := findInstruction(fn, id)
			if !ok {
				continue
			}
			out = append(out, diagnostics.FindingFor(diagnostics.CodeDivergentSyncThreads, diagnostics.Error, name, inst))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Function != out[j].Function {
			return out[i].Function < out[j].Function
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

func findInstruction(fn contract.Function, id contract.ValueID) (contract.Instruction, bool) {
	for _, bid := range fn.Blocks() {
		for _, inst := range fn.Block(bid).Instructions() {
			if inst.ID() == id {
				return inst, true
			}
		}
	}
	return nil, false
}
