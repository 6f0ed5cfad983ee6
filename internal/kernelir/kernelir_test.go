package kernelir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warplint/internal/contract"
)

// buildDiamond builds:
//
//	b0 -> b1, b2
//	b1 -> b3
//	b2 -> b3
//
// a standard if/then/else diamond, with b0 as entry and b3 as the merge
// point dominated only by b0.
func buildDiamond() *Function {
	f := NewFunction("diamond")
	b0 := f.AddBlock(0)
	b1 := f.AddBlock(1)
	b2 := f.AddBlock(2)
	b3 := f.AddBlock(3)

	f.AddInst(b0, NewCondBranch(0, 0, 100, 1, 2))
	f.AddInst(b1, NewBranch(1, 1, 3))
	f.AddInst(b2, NewBranch(2, 2, 3))
	f.AddInst(b3, NewReturn(3, 3, false, 0))

	return f
}

func TestFunctionBlockWiring(t *testing.T) {
	f := buildDiamond()

	assert.Equal(t, 0, f.EntryBlock())
	assert.Equal(t, []int{0, 1, 2, 3}, f.Blocks())

	b0 := f.Block(0)
	require.NotNil(t, b0)
	assert.ElementsMatch(t, []int{1, 2}, b0.Successors())

	b3 := f.Block(3)
	require.NotNil(t, b3)
	assert.ElementsMatch(t, []int{1, 2}, f.Blocks_[3].predecessors)
	assert.Len(t, b3.Instructions(), 1)
}

func TestDominatorsDiamond(t *testing.T) {
	f := buildDiamond()

	assert.True(t, f.Dom(0, 0))
	assert.True(t, f.Dom(0, 1))
	assert.True(t, f.Dom(0, 2))
	assert.True(t, f.Dom(0, 3))

	assert.False(t, f.Dom(1, 3))
	assert.False(t, f.Dom(2, 3))
	assert.False(t, f.Dom(1, 2))

	idom, ok := f.IDom(3)
	require.True(t, ok)
	assert.Equal(t, 0, idom)

	_, hasEntryIdom := f.IDom(0)
	assert.False(t, hasEntryIdom)
}

// buildLoop builds a single-block self-loop preceded by an entry block:
//
//	b0 -> b1
//	b1 -> b1, b2
func buildLoop() *Function {
	f := NewFunction("loop")
	b0 := f.AddBlock(0)
	b1 := f.AddBlock(1)
	b2 := f.AddBlock(2)

	f.AddInst(b0, NewBranch(0, 0, 1))
	f.AddInst(b1, NewCondBranch(1, 1, 200, 1, 2))
	f.AddInst(b2, NewReturn(2, 2, false, 0))

	return f
}

func TestDominatorsLoop(t *testing.T) {
	f := buildLoop()

	assert.True(t, f.Dom(0, 1))
	assert.True(t, f.Dom(1, 1))
	assert.True(t, f.Dom(1, 2))
	assert.True(t, f.Dom(0, 2))

	idom, ok := f.IDom(1)
	require.True(t, ok)
	assert.Equal(t, 0, idom)

	idom2, ok := f.IDom(2)
	require.True(t, ok)
	assert.Equal(t, 1, idom2)
}

func TestInstructionContractConformance(t *testing.T) {
	var insts []contract.Instruction = []contract.Instruction{
		NewBinary(0, 0, 1, BinAdd, 2, 3),
		NewCast(1, 0, 4, 1),
		NewAlloca(2, 0, 5, false, 4),
		NewLoad(3, 0, 6, 5, contract.AddressSpaceGlobal, 4, false),
		NewStore(4, 0, 5, 6, contract.AddressSpaceGlobal, 4),
		NewGEP(5, 0, 7, 5, []int{1, 2}, 4),
		NewSelect(6, 0, 8, 1, 2, 3),
		NewPhi(7, 0, 9, []int{2, 3}),
		NewCmp(8, 0, 10, CmpEQ, 2, 3),
		NewExtractValue(9, 0, 11, 8),
		NewCall(10, 0, 12, true, "helper", []int{2}, false),
		NewBranch(11, 0, 1),
		NewCondBranch(12, 0, 1, 1, 2),
		NewReturn(13, 0, true, 2),
		NewUnreachable(14, 0),
		NewSpecialReg(15, 0, 13, contract.OpThreadIdx, 0),
		NewSyncThreads(16, 0),
	}

	for _, inst := range insts {
		assert.NotEmpty(t, inst.String())
		_ = inst.Op()
		_ = inst.Operands()
		_ = inst.Block()
	}

	gep := insts[5].(*GEPInst)
	before := append([]int(nil), gep.Indices...)
	_ = gep.Operands()
	assert.Equal(t, before, gep.Indices, "Operands must not mutate Indices")

	call := insts[10].(*CallInst)
	assert.Equal(t, "helper", call.CalleeName())

	sreg := insts[15].(*SpecialRegInst)
	assert.Equal(t, "llvm.nvvm.read.ptx.sreg.tid.x", sreg.CalleeName())
}
