package kernelir

import "warplint/internal/contract"

// The New* constructors below are the only way for a package outside
// kernelir (chiefly internal/kernelir/build, the participle-grammar
// lowering pass) to build instructions, since base's fields are
// unexported.

func newBase(id, block int) base { return base{id: id, block: block} }

func NewBinary(id, block, dst int, op BinaryOp, left, right int) *BinaryInst {
	return &BinaryInst{base: newBase(id, block), Dst: dst, Op_: op, Left: left, Right: right}
}

func NewCast(id, block, dst, src int) *CastInst {
	return &CastInst{base: newBase(id, block), Dst: dst, Src: src}
}

func NewAlloca(id, block, dst int, isAggregate bool, elemSize int) *AllocaInst {
	return &AllocaInst{base: newBase(id, block), Dst: dst, IsArrayOrStruct: isAggregate, ElemSz: elemSize}
}

func NewLoad(id, block, dst, addr int, space contract.AddressSpace, elemSize int, isPointer bool) *LoadInst {
	return &LoadInst{base: newBase(id, block), Dst: dst, Addr: addr, Space: space, ElemSz: elemSize, IsPointer: isPointer}
}

func NewStore(id, block, addr, val int, space contract.AddressSpace, elemSize int) *StoreInst {
	return &StoreInst{base: newBase(id, block), Addr: addr, Val: val, Space: space, ElemSz: elemSize}
}

func NewGEP(id, block, dst, basePtr int, indices []int, elemSize int) *GEPInst {
	return &GEPInst{base: newBase(id, block), Dst: dst, Base: basePtr, Indices: indices, ElemSz: elemSize}
}

// NewGEPInSpace is NewGEP for a GEP whose base pointer is known to live in a
// specific address space (shared/constant module-level buffers), which the
// analyses special-case.
func NewGEPInSpace(id, block, dst, basePtr int, indices []int, elemSize int, space contract.AddressSpace) *GEPInst {
	g := NewGEP(id, block, dst, basePtr, indices, elemSize)
	g.Space = space
	return g
}

func NewSelect(id, block, dst, cond, t, f int) *SelectInst {
	return &SelectInst{base: newBase(id, block), Dst: dst, Cond: cond, True: t, False: f}
}

func NewPhi(id, block, dst int, incoming []int) *PhiInst {
	return &PhiInst{base: newBase(id, block), Dst: dst, Incoming: incoming}
}

func NewCmp(id, block, dst int, pred CmpPred, left, right int) *CmpInst {
	return &CmpInst{base: newBase(id, block), Dst: dst, Pred: pred, Left: left, Right: right}
}

func NewExtractValue(id, block, dst, agg int) *ExtractValueInst {
	return &ExtractValueInst{base: newBase(id, block), Dst: dst, Agg: agg}
}

func NewCall(id, block, dst int, hasResult bool, callee string, args []int, inlineAsm bool) *CallInst {
	return &CallInst{base: newBase(id, block), Dst: dst, HasResult: hasResult, Callee: callee, Args: args, InlineAsm: inlineAsm}
}

func NewBranch(id, block, target int) *BranchInst {
	return &BranchInst{base: newBase(id, block), Target: target}
}

func NewCondBranch(id, block, cond, trueBlk, falseBlk int) *CondBranchInst {
	return &CondBranchInst{base: newBase(id, block), Cond: cond, TrueBlk: trueBlk, FalseBlk: falseBlk}
}

func NewReturn(id, block int, hasValue bool, value int) *ReturnInst {
	return &ReturnInst{base: newBase(id, block), HasValue: hasValue, Value: value}
}

func NewUnreachable(id, block int) *UnreachableInst {
	return &UnreachableInst{base: newBase(id, block)}
}

func NewSpecialReg(id, block, dst int, reg contract.Opcode, dim int) *SpecialRegInst {
	return &SpecialRegInst{base: newBase(id, block), Dst: dst, Reg: reg, Dim: dim}
}

func NewSyncThreads(id, block int) *SyncThreadsInst {
	return &SyncThreadsInst{base: newBase(id, block)}
}
