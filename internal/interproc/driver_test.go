package interproc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warplint/internal/contract"
	"warplint/internal/interproc"
	"warplint/internal/kernelir"
)

// callerCallee builds a two-function module: "caller" calls "callee" once,
// passing a single argument value. Each function is a single block ending
// in a return.
func callerCallee(t *testing.T, calleeBody func(f *kernelir.Function, b0 *kernelir.BasicBlock), callArg int) *kernelir.Module {
	t.Helper()
	m := kernelir.NewModule()

	callee := kernelir.NewFunction("callee")
	callee.Params_ = []int{100}
	cb0 := callee.AddBlock(0)
	calleeBody(callee, cb0)
	m.AddFunction(callee)

	caller := kernelir.NewFunction("caller")
	caller.Params_ = []int{}
	ckb0 := caller.AddBlock(0)
	caller.AddInst(ckb0, kernelir.NewCall(0, 0, -1, false, "callee", []int{callArg}, false))
	caller.AddInst(ckb0, kernelir.NewReturn(1, 0, false, 0))
	m.AddFunction(caller)

	return m
}

func TestRunUncoalescedPropagatesCallArgumentsCallerBeforeCallee(t *testing.T) {
	m := callerCallee(t, func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewLoad(0, 0, 10, 100, contract.AddressSpaceGlobal, 8, false))
		f.AddInst(b0, kernelir.NewReturn(1, 0, false, 0))
	}, 7)

	results := interproc.RunUncoalesced(m)

	// "callee" is called from "caller", so it is not an entrypoint and its
	// result is filtered out.
	require.NotContains(t, results, "callee")
	require.Contains(t, results, "caller")
}

func TestRunBSIPropagatesFunctionSummaryCalleeBeforeCaller(t *testing.T) {
	m := callerCallee(t, func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewReturn(0, 0, false, 0))
	}, 0)

	results := interproc.RunBSI(m)

	require.Contains(t, results, "caller")
	assert.True(t, results["caller"].Independent)
}

func TestRunBSIFlagsCallerWhenCalleeIsDependent(t *testing.T) {
	m := callerCallee(t, func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.ParamPointer_ = map[int]bool{100: true}
		f.AddInst(b0, kernelir.NewSpecialReg(0, 0, 101, contract.OpThreadIdx, 0))
		f.AddInst(b0, kernelir.NewStore(1, 0, 100, 101, contract.AddressSpaceGlobal, 8))
		f.AddInst(b0, kernelir.NewReturn(2, 0, false, 0))
	}, 0)

	results := interproc.RunBSI(m)

	require.Contains(t, results, "caller")
	assert.False(t, results["caller"].Independent)
}

func TestRunFiltersNonEntrypointHelpers(t *testing.T) {
	m := kernelir.NewModule()

	helper := kernelir.NewFunction("helper")
	hb0 := helper.AddBlock(0)
	helper.AddInst(hb0, kernelir.NewReturn(0, 0, false, 0))
	m.AddFunction(helper)

	kernel := kernelir.NewFunction("kernel")
	kb0 := kernel.AddBlock(0)
	kernel.AddInst(kb0, kernelir.NewCall(0, 0, -1, false, "helper", nil, false))
	kernel.AddInst(kb0, kernelir.NewCall(1, 0, -1, false, "helper", nil, false))
	kernel.AddInst(kb0, kernelir.NewReturn(2, 0, false, 0))
	m.AddFunction(kernel)

	uncoalescedResults := interproc.RunUncoalesced(m)
	assert.Contains(t, uncoalescedResults, "kernel")
	assert.NotContains(t, uncoalescedResults, "helper")

	bsiResults := interproc.RunBSI(m)
	assert.Contains(t, bsiResults, "kernel")
	assert.NotContains(t, bsiResults, "helper")
}
