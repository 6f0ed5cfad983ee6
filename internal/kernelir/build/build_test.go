package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warplint/grammar"
	"warplint/internal/contract"
	"warplint/internal/kernelir/build"
)

func parse(t *testing.T, src string) *grammar.Program {
	t.Helper()
	prog, err := grammar.ParseString("test.wk", src)
	require.NoError(t, err)
	return prog
}

func TestFromProgramLowersParamsAndBlocks(t *testing.T) {
	prog := parse(t, `
module m {
fn kernel(%0: ptr, %1: i32) {
block 0:
%2 = tid.x
br 1
block 1:
ret
}
}
`)

	mod, err := build.FromProgram(prog)
	require.NoError(t, err)

	fns := mod.Functions()
	require.Len(t, fns, 1)
	fn := fns[0]

	assert.Equal(t, "kernel", fn.Name())
	assert.Equal(t, []int{0, 1}, fn.Params())
	assert.True(t, fn.IsParamPointer(0))
	assert.False(t, fn.IsParamPointer(1))
	assert.Equal(t, []int{0, 1}, fn.Blocks())
}

func TestFromProgramLowersBinaryAndMemoryOps(t *testing.T) {
	prog := parse(t, `
module m {
fn f(%0: ptr) {
block 0:
%1 = add %0, 4
%2 = gep %0, %1 space(global) size(4)
%3 = load %2 space(global) size(4)
store %2, %3 space(global) size(4)
ret
}
}
`)

	mod, err := build.FromProgram(prog)
	require.NoError(t, err)

	fn := mod.Functions()[0]
	block := fn.Block(0)
	insts := block.Instructions()
	require.Len(t, insts, 5)

	add := insts[0]
	assert.Equal(t, contract.OpAdd, add.Op())
	operands := add.Operands()
	require.Len(t, operands, 2)
	assert.Equal(t, 0, operands[0])
	assert.Less(t, operands[1], 0, "literal operand should get a synthetic negative ID")

	gep := insts[1]
	assert.Equal(t, contract.OpGEP, gep.Op())
	assert.Equal(t, contract.AddressSpaceGlobal, gep.AddressSpace())
	assert.Equal(t, 4, gep.ElementSize())

	load := insts[2]
	assert.Equal(t, contract.OpLoad, load.Op())

	store := insts[3]
	assert.Equal(t, contract.OpStore, store.Op())
	assert.False(t, store.IsTerminator())
}

func TestFromProgramReusesLiteralIDForRepeatedConstant(t *testing.T) {
	prog := parse(t, `
module m {
fn f(%0: i32) {
block 0:
%1 = add %0, 4
%2 = sub %1, 4
ret %2
}
}
`)

	mod, err := build.FromProgram(prog)
	require.NoError(t, err)

	insts := mod.Functions()[0].Block(0).Instructions()
	addLit := insts[0].Operands()[1]
	subLit := insts[1].Operands()[1]
	assert.Equal(t, addLit, subLit, "same literal value should reuse the same synthetic ID")
}

func TestFromProgramLowersSpecialRegistersAndCalls(t *testing.T) {
	prog := parse(t, `
module m {
fn caller(%0: i32) {
block 0:
%1 = tid.x
%2 = bdim.y
%3 = call @helper(%0, %1)
call @log(%2)
ret %3
}
}
`)

	mod, err := build.FromProgram(prog)
	require.NoError(t, err)

	insts := mod.Functions()[0].Block(0).Instructions()

	tid := insts[0]
	assert.Equal(t, contract.OpThreadIdx, tid.Op())

	bdim := insts[1]
	assert.Equal(t, contract.OpBlockDim, bdim.Op())

	call := insts[2]
	assert.Equal(t, contract.OpCall, call.Op())
	assert.Equal(t, "helper", call.CalleeName())
	dst, hasResult := call.Result()
	assert.True(t, hasResult)
	assert.Equal(t, 3, dst)

	stmtCall := insts[3]
	_, hasResult = stmtCall.Result()
	assert.False(t, hasResult)
}

func TestFromProgramSetsSourcePositions(t *testing.T) {
	prog := parse(t, `
module m {
fn f(%0: i32) {
block 0:
%1 = add %0, 1
ret %1
}
}
`)

	mod, err := build.FromProgram(prog)
	require.NoError(t, err)

	add := mod.Functions()[0].Block(0).Instructions()[0]
	assert.Greater(t, add.Line(), 0)
}
