package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warplint/grammar"
)

const sampleKernel = `
/// multiplies two vectors element-wise
module vecadd {
fn saxpy(%0: ptr, %1: ptr, %2: ptr) {
block 0:
%3 = tid.x
%4 = bdim.x
%5 = bid.x
%6 = mul %5, %4
%7 = add %6, %3
%8 = gep %0, %7 space(global) size(4)
%9 = load %8 space(global) size(4)
%10 = gep %1, %7 space(global) size(4)
%11 = load %10 space(global) size(4)
%12 = mul %9, %11
%13 = gep %2, %7 space(global) size(4)
store %13, %12 space(global) size(4)
ret
}
}
`

func TestParseStringSaxpy(t *testing.T) {
	program, err := grammar.ParseString("saxpy.wk", sampleKernel)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	assert.NotNil(t, program)
	assert.Equal(t, 1, len(program.Modules))

	mod := program.Modules[0]
	assert.Equal(t, "vecadd", mod.Name)
	assert.NotNil(t, mod.Doc)

	assert.Equal(t, 1, len(mod.Functions))
	fn := mod.Functions[0]
	assert.Equal(t, "saxpy", fn.Name)
	assert.Equal(t, 3, len(fn.Params))
	for _, p := range fn.Params {
		assert.Equal(t, "ptr", p.Type)
	}

	assert.Equal(t, 1, len(fn.Blocks))
	block := fn.Blocks[0]
	assert.Equal(t, 0, block.ID)

	insts := block.Insts
	assert.NotEmpty(t, insts)

	tid := insts[0]
	assert.NotNil(t, tid.Assign)
	assert.NotNil(t, tid.Assign.RHS.SpecReg)
	assert.Equal(t, "tid.x", tid.Assign.RHS.SpecReg.Reg)

	var foundStore bool
	var foundRet bool
	for _, inst := range insts {
		if inst.Store != nil {
			foundStore = true
			assert.Equal(t, "global", inst.Store.Space)
			assert.Equal(t, 4, inst.Store.Size)
		}
		if inst.Ret != nil {
			foundRet = true
			assert.Nil(t, inst.Ret.Value)
		}
	}
	assert.True(t, foundStore)
	assert.True(t, foundRet)
}

func TestParseStringBinaryAndCompare(t *testing.T) {
	src := `
module m {
fn f(%0: i32) {
block 0:
%1 = add %0, 4
%2 = icmp.slt %1, %0
condbr %2, 1, 2
block 1:
ret %1
block 2:
unreachable
}
}
`
	program, err := grammar.ParseString("f.wk", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	fn := program.Modules[0].Functions[0]
	assert.Equal(t, 3, len(fn.Blocks))

	add := fn.Blocks[0].Insts[0]
	assert.NotNil(t, add.Assign.RHS.Binary)
	assert.Equal(t, "add", add.Assign.RHS.Binary.Op)
	assert.NotNil(t, add.Assign.RHS.Binary.Right.Literal)
	assert.Equal(t, 4, *add.Assign.RHS.Binary.Right.Literal)

	cmp := fn.Blocks[0].Insts[1]
	assert.NotNil(t, cmp.Assign.RHS.Cmp)
	assert.Equal(t, "icmp.slt", cmp.Assign.RHS.Cmp.Pred)

	condbr := fn.Blocks[0].Insts[2]
	assert.NotNil(t, condbr.CondBr)
	assert.Equal(t, 1, condbr.CondBr.True)
	assert.Equal(t, 2, condbr.CondBr.False)

	unreach := fn.Blocks[2].Insts[0]
	assert.NotNil(t, unreach.Unreach)
}

func TestParseStringCallAndPhi(t *testing.T) {
	src := `
module m {
fn caller(%0: i32) {
block 0:
%1 = call @helper(%0, 7)
br 1
block 1:
%2 = phi [%1, %0]
call @log(%2)
ret
}
}
`
	program, err := grammar.ParseString("call.wk", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	fn := program.Modules[0].Functions[0]
	call := fn.Blocks[0].Insts[0]
	assert.NotNil(t, call.Assign.RHS.Call)
	assert.Equal(t, "helper", call.Assign.RHS.Call.Callee)
	assert.Equal(t, 2, len(call.Assign.RHS.Call.Args))

	phi := fn.Blocks[1].Insts[0]
	assert.NotNil(t, phi.Assign.RHS.Phi)
	assert.Equal(t, 2, len(phi.Assign.RHS.Phi.Incoming))

	stmtCall := fn.Blocks[1].Insts[1]
	assert.NotNil(t, stmtCall.Call)
	assert.Equal(t, "log", stmtCall.Call.Callee)
}

func TestParseStringRejectsGarbage(t *testing.T) {
	_, err := grammar.ParseString("bad.wk", "module { garbage")
	assert.Error(t, err)
}
