// Package interproc drives the two per-function analyses
// (internal/uncoalesced, internal/bsize) across an entire module in
// call-graph order, threading per-function summaries between callers and
// callees. The two analyses need opposite traversal orders: bsize's
// callers consume their callees' independence/return-value summaries, so
// it must process callees before callers; uncoalesced's callees consume
// their callers' recorded call-site argument values, so it must process
// callers before callees.
package interproc

import (
	"warplint/internal/bsize"
	"warplint/internal/contract"
	"warplint/internal/lattice"
	"warplint/internal/uncoalesced"
)

// numThreadDims is the number of block-dimension axes bsize.Analysis runs
// separately (x, y, z); a function is reported block-size independent
// only if every axis agrees.
const numThreadDims = 3

// flattenSCCs concatenates g.SCCs() into one function-name list, preserving
// the callees-before-callers order SCCs() already returns.
func flattenSCCs(g contract.CallGraph) []string {
	var out []string
	for _, scc := range g.SCCs() {
		out = append(out, scc...)
	}
	return out
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func paramIsPointer(fn contract.Function) func(contract.ValueID) bool {
	return func(v contract.ValueID) bool { return fn.IsParamPointer(v) }
}

// BSIResult holds one function's block-size-invariance findings, unioned
// across the three thread-dimension runs.
type BSIResult struct {
	Independent        bool
	FlaggedAccesses    map[contract.ValueID]bool
	SyncThreadsFlagged map[contract.ValueID]bool
}

// UncoalescedResult holds one function's uncoalesced-access findings.
type UncoalescedResult struct {
	FlaggedAccesses map[contract.ValueID]bool
}

// Result is the combined, entrypoint-filtered report for one module.
type Result struct {
	BSI         map[string]BSIResult
	Uncoalesced map[string]UncoalescedResult
}

func functionsByName(g contract.CallGraph) map[string]contract.Function {
	out := make(map[string]contract.Function)
	for _, fn := range g.Functions() {
		out[fn.Name()] = fn
	}
	return out
}

// RunBSI runs the block-size-invariance analysis over every function in g,
// once per thread axis, in callees-before-callers order so a caller's
// dependent-call check (AreFunctionCallArgsBSI, via RecordFunctionSummary)
// sees each callee's per-axis summary already recorded. A function is
// reported independent only if no axis flagged an access or a
// __syncthreads() call. Output is filtered to entrypoint functions,
// matching the original's ENTRYPOINTS_ONLY reporting.
func RunBSI(g contract.CallGraph) map[string]BSIResult {
	fns := functionsByName(g)
	order := flattenSCCs(g)

	unioned := make(map[string]BSIResult, len(fns))
	for _, name := range order {
		unioned[name] = BSIResult{
			FlaggedAccesses:    make(map[contract.ValueID]bool),
			SyncThreadsFlagged: make(map[contract.ValueID]bool),
		}
	}

	for dim := 0; dim < numThreadDims; dim++ {
		a := bsize.NewAnalysis(dim)
		for _, name := range order {
			fn, ok := fns[name]
			if !ok {
				continue
			}
			initial := a.BuildInitialState(fn, paramIsPointer(fn))
			flagged := a.Run(fn, initial)
			syncs := a.SyncThreads()

			res := unioned[name]
			for id := range flagged {
				res.FlaggedAccesses[id] = true
			}
			for id := range syncs {
				res.SyncThreadsFlagged[id] = true
			}
			unioned[name] = res

			a.RecordFunctionSummary(name, len(flagged) == 0 && len(syncs) == 0)
		}
	}

	out := make(map[string]BSIResult)
	for name, res := range unioned {
		if !g.IsEntryPoint(name) {
			continue
		}
		res.Independent = len(res.FlaggedAccesses) == 0 && len(res.SyncThreadsFlagged) == 0
		out[name] = res
	}
	return out
}

// RunUncoalesced runs the uncoalesced-access analysis over every function
// in g, in callers-before-callees order (the full reverse of SCCs()'s
// natural callees-before-callers order) so that by the time a callee runs,
// every caller has already recorded its call-site argument values via
// RecordCallArguments.
func RunUncoalesced(g contract.CallGraph) map[string]UncoalescedResult {
	fns := functionsByName(g)
	order := reversed(flattenSCCs(g))

	a := uncoalesced.NewAnalysis()
	all := make(map[string]UncoalescedResult, len(fns))

	for _, name := range order {
		fn, ok := fns[name]
		if !ok {
			continue
		}
		initial := a.BuildInitialState(fn, paramIsPointer(fn))
		flagged := a.Run(fn, initial)
		all[name] = UncoalescedResult{FlaggedAccesses: flagged}

		for _, site := range g.CallSites(name) {
			callee, ok := fns[site.Callee]
			if !ok {
				continue
			}
			st, ok := a.StateBeforeInstruction(site.Inst)
			if !ok {
				continue
			}
			argVals := make([]lattice.Multiplier, len(site.ArgVals))
			for i, v := range site.ArgVals {
				argVals[i] = st.GetValue(v)
			}
			a.RecordCallArguments(site.Callee, callee.Params(), argVals)
		}
	}

	out := make(map[string]UncoalescedResult)
	for name, res := range all {
		if g.IsEntryPoint(name) {
			out[name] = res
		}
	}
	return out
}

// Run executes both analyses over g and returns the combined,
// entrypoint-filtered report.
func Run(g contract.CallGraph) Result {
	return Result{
		BSI:         RunBSI(g),
		Uncoalesced: RunUncoalesced(g),
	}
}
