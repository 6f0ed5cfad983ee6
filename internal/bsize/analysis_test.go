package bsize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warplint/internal/bsize"
	"warplint/internal/contract"
	"warplint/internal/kernelir"
	"warplint/internal/lattice"
)

func straightLineFn(insts func(f *kernelir.Function, b0 *kernelir.BasicBlock)) *kernelir.Function {
	f := kernelir.NewFunction("k")
	b0 := f.AddBlock(0)
	insts(f, b0)
	return f
}

func TestBuildInitialStateMarksPointerParamsAddressType(t *testing.T) {
	f := kernelir.NewFunction("k")
	f.Params_ = []int{1, 2}
	f.AddBlock(0)

	a := bsize.NewAnalysis(0)
	st := a.BuildInitialState(f, func(id contract.ValueID) bool { return id == 1 })

	assert.True(t, st.GetValue(1).IsAddressType())
	assert.True(t, st.GetValue(1).IsConst())
	assert.False(t, st.GetValue(2).IsAddressType())
}

func TestThreadIdxMatchesConfiguredAxis(t *testing.T) {
	f := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewSpecialReg(0, 0, 10, contract.OpThreadIdx, 0))
		f.AddInst(b0, kernelir.NewReturn(1, 0, true, 10))
	})

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()
	a.Run(f, st)

	v, ok := a.ReturnValue("k")
	assert.True(t, ok)
	assert.True(t, v.IsTid())

	other := bsize.NewAnalysis(1)
	other.Run(f, bsize.NewState())

	v, ok = other.ReturnValue("k")
	assert.True(t, ok)
	assert.True(t, v.IsConst())
}

func TestStoreFlagsBlockSizeDependentAddress(t *testing.T) {
	f := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewStore(0, 0, 1, 2, contract.AddressSpaceGlobal, 8))
		f.AddInst(b0, kernelir.NewReturn(1, 0, false, 0))
	})

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()
	st.SetValue(1, lattice.BSizeTid[contract.ValueID]().WithAddressType(true))
	st.SetValue(2, lattice.BSizeConst[contract.ValueID]())
	st.SetNumThreads(lattice.BSizeConst[contract.ValueID]())

	flagged := a.Run(f, st)
	assert.True(t, flagged[0])
}

func TestStoreDoesNotFlagConstantAddressUnderConstantPredicate(t *testing.T) {
	f := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewStore(0, 0, 1, 2, contract.AddressSpaceGlobal, 8))
		f.AddInst(b0, kernelir.NewReturn(1, 0, false, 0))
	})

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()
	st.SetValue(1, lattice.BSizeConst[contract.ValueID]().WithAddressType(true))
	st.SetValue(2, lattice.BSizeConst[contract.ValueID]())
	st.SetNumThreads(lattice.BSizeConst[contract.ValueID]())

	flagged := a.Run(f, st)
	assert.False(t, flagged[0])
}

func TestCallToUnknownFunctionFlagsDependency(t *testing.T) {
	f := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewCall(0, 0, 10, true, "someUserFunction", nil, false))
		f.AddInst(b0, kernelir.NewReturn(1, 0, false, 0))
	})

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()

	flagged := a.Run(f, st)
	assert.True(t, flagged[0])
}

func TestCallToKnownIndependentFunctionDoesNotFlag(t *testing.T) {
	f := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.AddInst(b0, kernelir.NewCall(0, 0, 10, true, "helper", nil, false))
		f.AddInst(b0, kernelir.NewReturn(1, 0, false, 0))
	})

	a := bsize.NewAnalysis(0)
	a.RecordFunctionSummary("helper", true)
	st := bsize.NewState()

	flagged := a.Run(f, st)
	assert.False(t, flagged[0])
}

func TestReturnSummaryAccumulatesAcrossRuns(t *testing.T) {
	f1 := straightLineFn(func(f *kernelir.Function, b0 *kernelir.BasicBlock) {
		f.FnName = "callee"
		f.AddInst(b0, kernelir.NewReturn(0, 0, true, 5))
	})

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()
	st.SetValue(5, lattice.BSizeConst[contract.ValueID]())
	a.Run(f1, st)

	v, ok := a.ReturnValue("callee")
	assert.True(t, ok)
	assert.True(t, v.IsConst())

	st2 := bsize.NewState()
	st2.SetValue(5, lattice.BSizeTid[contract.ValueID]())
	a.Run(f1, st2)

	v, ok = a.ReturnValue("callee")
	assert.True(t, ok)
	assert.True(t, v.IsTop())
}

func TestPhiJoinsAllIncomingUnconditionally(t *testing.T) {
	f := kernelir.NewFunction("diamond")
	b0 := f.AddBlock(0)
	b1 := f.AddBlock(1)
	b2 := f.AddBlock(2)
	b3 := f.AddBlock(3)

	f.AddInst(b0, kernelir.NewCondBranch(0, 0, 9, 1, 2))
	f.AddInst(b1, kernelir.NewBranch(1, 1, 3))
	f.AddInst(b2, kernelir.NewBranch(2, 2, 3))
	f.AddInst(b3, kernelir.NewPhi(3, 3, 30, []int{40, 41}))
	f.AddInst(b3, kernelir.NewReturn(4, 3, true, 30))

	a := bsize.NewAnalysis(0)
	st := bsize.NewState()
	st.SetValue(9, lattice.BSizeConst[contract.ValueID]())
	st.SetValue(40, lattice.BSizeTid[contract.ValueID]())
	st.SetValue(41, lattice.BSizeBid[contract.ValueID]())
	st.SetNumThreads(lattice.BSizeConst[contract.ValueID]())

	flagged := a.Run(f, st)
	assert.Empty(t, flagged)

	v, ok := a.ReturnValue("diamond")
	assert.True(t, ok)
	assert.True(t, v.IsTop())
}
