// Package kernelir is a concrete SSA-form intermediate representation for
// GPU kernels, used both to drive the analysis core end-to-end from parsed
// text (see grammar/) and to build the core's tests. It implements the
// provider interfaces of internal/contract; the core packages never import
// this package's concrete types directly.
package kernelir

import (
	"fmt"
	"strings"

	"warplint/internal/contract"
)

// Value is a single SSA value: a function argument, an instruction result,
// or a constant.
type Value struct {
	ID          int
	Name        string
	IsPointer   bool
	AddrSpace   contract.AddressSpace
	ElemSize    int
	IsConstant  bool
	ConstInt    int64
	IsConstNull bool
}

func (v *Value) String() string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("%%%d", v.ID)
}

// BinaryOp enumerates the integer binary operators the grammar accepts.
// It is an alias of contract.BinOp so instructions can report their exact
// operator to the core without the core importing this package.
type BinaryOp = contract.BinOp

const (
	BinAdd  = contract.BinAdd
	BinSub  = contract.BinSub
	BinMul  = contract.BinMul
	BinSDiv = contract.BinSDiv
	BinUDiv = contract.BinUDiv
	BinURem = contract.BinURem
	BinSRem = contract.BinSRem
	BinShl  = contract.BinShl
	BinLShr = contract.BinLShr
	BinAShr = contract.BinAShr
	BinAnd  = contract.BinAnd
	BinOr   = contract.BinOr
	BinXor  = contract.BinXor
)

// CmpPred enumerates the comparison predicates the grammar accepts. The
// uncoalesced analysis gives only EQ and NE precise abstract semantics and
// folds the rest to Top, matching the original's conservative default; the
// block-size analysis computes all six with BSizeRel.
type CmpPred int

const (
	CmpEQ CmpPred = iota
	CmpNE
	CmpSLT
	CmpSLE
	CmpSGT
	CmpSGE
)

// Instruction is the common base every concrete instruction embeds.
type Instruction interface {
	contract.Instruction
}

type base struct {
	id     int
	block  int
	line   int
	column int
}

func (b *base) ID() int                             { return b.id }
func (b *base) Block() contract.BlockID             { return b.block }
func (b *base) IsTerminator() bool                  { return false }
func (b *base) AddressSpace() contract.AddressSpace { return contract.AddressSpaceGeneric }
func (b *base) ElementSize() int                    { return 0 }
func (b *base) CalleeName() string                  { return "" }
func (b *base) IsAggregate() bool                   { return false }
func (b *base) IsPointerResult() bool               { return false }
func (b *base) IsInlineAsm() bool                   { return false }
func (b *base) Line() int                           { return b.line }
func (b *base) Column() int                         { return b.column }

// SetPos records the source location of the instruction, called by
// internal/kernelir/build while lowering a parsed grammar tree.
func (b *base) SetPos(line, column int) {
	b.line, b.column = line, column
}

// BinaryInst computes Op(Left, Right) -> Dst.
type BinaryInst struct {
	base
	Dst         int
	Op_         BinaryOp
	Left, Right int
}

func (i *BinaryInst) Op() contract.Opcode    { return binOpcode(i.Op_) }
func (i *BinaryInst) BinOp() contract.BinOp  { return i.Op_ }
func (i *BinaryInst) Operands() []int        { return []int{i.Left, i.Right} }
func (i *BinaryInst) Result() (int, bool)    { return i.Dst, true }
func (i *BinaryInst) String() string {
	return fmt.Sprintf("%%%d = %s %%%d, %%%d", i.Dst, binName(i.Op_), i.Left, i.Right)
}

func binOpcode(op BinaryOp) contract.Opcode {
	switch op {
	case BinAdd:
		return contract.OpAdd
	case BinSub:
		return contract.OpSub
	case BinMul, BinShl:
		return contract.OpMul
	case BinSDiv:
		return contract.OpSDiv
	case BinUDiv:
		return contract.OpUDiv
	case BinAnd:
		return contract.OpAnd
	case BinOr:
		return contract.OpOr
	case BinXor:
		return contract.OpXor
	default:
		return contract.OpUnknown
	}
}

func binName(op BinaryOp) string {
	names := map[BinaryOp]string{
		BinAdd: "add", BinSub: "sub", BinMul: "mul", BinSDiv: "sdiv", BinUDiv: "udiv",
		BinURem: "urem", BinSRem: "srem", BinShl: "shl", BinLShr: "lshr", BinAShr: "ashr",
		BinAnd: "and", BinOr: "or", BinXor: "xor",
	}
	return names[op]
}

// CastInst is a no-op (for abstract-value purposes) bitcast/trunc/extend.
type CastInst struct {
	base
	Dst int
	Src int
}

func (i *CastInst) Op() contract.Opcode  { return contract.OpCast }
func (i *CastInst) Operands() []int      { return []int{i.Src} }
func (i *CastInst) Result() (int, bool)  { return i.Dst, true }
func (i *CastInst) String() string       { return fmt.Sprintf("%%%d = cast %%%d", i.Dst, i.Src) }

// AllocaInst reserves a local pointer-typed value. IsArrayOrStruct marks an
// aggregate allocation (as opposed to a bare pointer local).
type AllocaInst struct {
	base
	Dst             int
	IsArrayOrStruct bool
	ElemSz          int
}

func (i *AllocaInst) Op() contract.Opcode   { return contract.OpAlloca }
func (i *AllocaInst) Operands() []int       { return nil }
func (i *AllocaInst) Result() (int, bool)   { return i.Dst, true }
func (i *AllocaInst) ElementSize() int      { return i.ElemSz }
func (i *AllocaInst) IsAggregate() bool     { return i.IsArrayOrStruct }
func (i *AllocaInst) IsPointerResult() bool { return !i.IsArrayOrStruct }
func (i *AllocaInst) String() string        { return fmt.Sprintf("%%%d = alloca", i.Dst) }

// LoadInst loads through a pointer.
type LoadInst struct {
	base
	Dst       int
	Addr      int
	Space     contract.AddressSpace
	ElemSz    int
	IsPointer bool
}

func (i *LoadInst) Op() contract.Opcode                 { return contract.OpLoad }
func (i *LoadInst) Operands() []int                     { return []int{i.Addr} }
func (i *LoadInst) Result() (int, bool)                 { return i.Dst, true }
func (i *LoadInst) AddressSpace() contract.AddressSpace { return i.Space }
func (i *LoadInst) ElementSize() int                    { return i.ElemSz }
func (i *LoadInst) IsPointerResult() bool               { return i.IsPointer }
func (i *LoadInst) String() string                      { return fmt.Sprintf("%%%d = load %%%d", i.Dst, i.Addr) }

// StoreInst stores Val through Addr.
type StoreInst struct {
	base
	Addr   int
	Val    int
	Space  contract.AddressSpace
	ElemSz int
}

func (i *StoreInst) Op() contract.Opcode                 { return contract.OpStore }
func (i *StoreInst) Operands() []int                     { return []int{i.Addr, i.Val} }
func (i *StoreInst) Result() (int, bool)                 { return 0, false }
func (i *StoreInst) AddressSpace() contract.AddressSpace { return i.Space }
func (i *StoreInst) ElementSize() int                    { return i.ElemSz }
func (i *StoreInst) String() string                      { return fmt.Sprintf("store %%%d, %%%d", i.Val, i.Addr) }

// GEPInst computes a derived pointer: Base plus the sum of Indices.
type GEPInst struct {
	base
	Dst     int
	Base    int
	Indices []int
	ElemSz  int
	Space   contract.AddressSpace
}

func (i *GEPInst) Op() contract.Opcode                 { return contract.OpGEP }
func (i *GEPInst) Operands() []int                     { return append([]int{i.Base}, i.Indices...) }
func (i *GEPInst) Result() (int, bool)                 { return i.Dst, true }
func (i *GEPInst) ElementSize() int                    { return i.ElemSz }
func (i *GEPInst) AddressSpace() contract.AddressSpace { return i.Space }
func (i *GEPInst) String() string {
	idx := make([]string, len(i.Indices))
	for n, v := range i.Indices {
		idx[n] = fmt.Sprintf("%%%d", v)
	}
	return fmt.Sprintf("%%%d = gep %%%d[%s]", i.Dst, i.Base, strings.Join(idx, ", "))
}

// SelectInst picks True or False based on Cond.
type SelectInst struct {
	base
	Dst         int
	Cond        int
	True, False int
}

func (i *SelectInst) Op() contract.Opcode { return contract.OpSelect }
func (i *SelectInst) Operands() []int     { return []int{i.Cond, i.True, i.False} }
func (i *SelectInst) Result() (int, bool) { return i.Dst, true }
func (i *SelectInst) String() string {
	return fmt.Sprintf("%%%d = select %%%d, %%%d, %%%d", i.Dst, i.Cond, i.True, i.False)
}

// PhiInst merges values from predecessor blocks.
type PhiInst struct {
	base
	Dst      int
	Incoming []int // value IDs, one per predecessor, in Block().Predecessors order
}

func (i *PhiInst) Op() contract.Opcode { return contract.OpPhi }
func (i *PhiInst) Operands() []int     { return i.Incoming }
func (i *PhiInst) Result() (int, bool) { return i.Dst, true }
func (i *PhiInst) String() string      { return fmt.Sprintf("%%%d = phi(...)", i.Dst) }

// CmpInst computes a comparison predicate.
type CmpInst struct {
	base
	Dst         int
	Pred        CmpPred
	Left, Right int
}

func (i *CmpInst) Op() contract.Opcode {
	switch i.Pred {
	case CmpEQ:
		return contract.OpICmpEQ
	case CmpNE:
		return contract.OpICmpNE
	case CmpSLT:
		return contract.OpICmpSLT
	case CmpSLE:
		return contract.OpICmpSLE
	case CmpSGT:
		return contract.OpICmpSGT
	default:
		return contract.OpICmpSGE
	}
}
func (i *CmpInst) Operands() []int     { return []int{i.Left, i.Right} }
func (i *CmpInst) Result() (int, bool) { return i.Dst, true }
func (i *CmpInst) String() string      { return fmt.Sprintf("%%%d = cmp %%%d, %%%d", i.Dst, i.Left, i.Right) }

// ExtractValueInst extracts a field of an aggregate (mirrors
// llvm::ExtractValueInst; used by checked-arithmetic-style calls).
type ExtractValueInst struct {
	base
	Dst int
	Agg int
}

func (i *ExtractValueInst) Op() contract.Opcode { return contract.OpExtractValue }
func (i *ExtractValueInst) Operands() []int     { return []int{i.Agg} }
func (i *ExtractValueInst) Result() (int, bool) { return i.Dst, true }
func (i *ExtractValueInst) String() string      { return fmt.Sprintf("%%%d = extractvalue %%%d", i.Dst, i.Agg) }

// CallInst calls Callee, which may be a user-defined function, an NVVM
// special-register read, __syncthreads, or an external library routine.
type CallInst struct {
	base
	Dst       int
	HasResult bool
	Callee    string
	Args      []int
	InlineAsm bool
}

func (i *CallInst) Op() contract.Opcode    { return contract.OpCall }
func (i *CallInst) Operands() []int        { return i.Args }
func (i *CallInst) Result() (int, bool)    { return i.Dst, i.HasResult }
func (i *CallInst) CalleeName() string     { return i.Callee }
func (i *CallInst) IsInlineAsm() bool      { return i.InlineAsm }
func (i *CallInst) String() string {
	args := make([]string, len(i.Args))
	for n, v := range i.Args {
		args[n] = fmt.Sprintf("%%%d", v)
	}
	prefix := ""
	if i.HasResult {
		prefix = fmt.Sprintf("%%%d = ", i.Dst)
	}
	return fmt.Sprintf("%scall %s(%s)", prefix, i.Callee, strings.Join(args, ", "))
}

// BranchInst is an unconditional jump.
type BranchInst struct {
	base
	Target contract.BlockID
}

func (i *BranchInst) Op() contract.Opcode { return contract.OpBr }
func (i *BranchInst) Operands() []int     { return nil }
func (i *BranchInst) Result() (int, bool) { return 0, false }
func (i *BranchInst) IsTerminator() bool  { return true }
func (i *BranchInst) String() string      { return fmt.Sprintf("br %d", i.Target) }

// CondBranchInst branches on Cond to one of two successor blocks.
type CondBranchInst struct {
	base
	Cond              int
	TrueBlk, FalseBlk contract.BlockID
}

func (i *CondBranchInst) Op() contract.Opcode { return contract.OpCondBr }
func (i *CondBranchInst) Operands() []int     { return []int{i.Cond} }
func (i *CondBranchInst) Result() (int, bool) { return 0, false }
func (i *CondBranchInst) IsTerminator() bool  { return true }
func (i *CondBranchInst) String() string {
	return fmt.Sprintf("br %%%d, %d, %d", i.Cond, i.TrueBlk, i.FalseBlk)
}

// ReturnInst returns (optionally) a value from the function.
type ReturnInst struct {
	base
	HasValue bool
	Value    int
}

func (i *ReturnInst) Op() contract.Opcode { return contract.OpRet }
func (i *ReturnInst) Operands() []int {
	if i.HasValue {
		return []int{i.Value}
	}
	return nil
}
func (i *ReturnInst) Result() (int, bool) { return 0, false }
func (i *ReturnInst) IsTerminator() bool  { return true }
func (i *ReturnInst) String() string {
	if i.HasValue {
		return fmt.Sprintf("ret %%%d", i.Value)
	}
	return "ret"
}

// UnreachableInst marks a block that never completes (e.g. after a trap).
type UnreachableInst struct{ base }

func (i *UnreachableInst) Op() contract.Opcode  { return contract.OpUnreachable }
func (i *UnreachableInst) Operands() []int      { return nil }
func (i *UnreachableInst) Result() (int, bool)  { return 0, false }
func (i *UnreachableInst) IsTerminator() bool   { return true }
func (i *UnreachableInst) String() string       { return "unreachable" }

// SpecialRegInst reads one X/Y/Z component of a thread/block special
// register (threadIdx, blockIdx, blockDim, gridDim).
type SpecialRegInst struct {
	base
	Dst int
	Reg contract.Opcode // one of OpThreadIdx/OpBlockIdx/OpBlockDim/OpGridDim
	Dim int              // 0=x, 1=y, 2=z
}

func (i *SpecialRegInst) Op() contract.Opcode { return i.Reg }
func (i *SpecialRegInst) Operands() []int     { return nil }
func (i *SpecialRegInst) Result() (int, bool) { return i.Dst, true }
func (i *SpecialRegInst) CalleeName() string  { return specialRegName(i.Reg, i.Dim) }
func (i *SpecialRegInst) String() string      { return fmt.Sprintf("%%%d = %s", i.Dst, i.CalleeName()) }

func specialRegName(op contract.Opcode, dim int) string {
	reg := map[contract.Opcode]string{
		contract.OpThreadIdx: "tid",
		contract.OpBlockIdx:  "ctaid",
		contract.OpBlockDim:  "ntid",
		contract.OpGridDim:   "nctaid",
	}[op]
	axis := [...]string{"x", "y", "z"}[dim]
	return "llvm.nvvm.read.ptx.sreg." + reg + "." + axis
}

// SyncThreadsInst is a __syncthreads() barrier call.
type SyncThreadsInst struct{ base }

func (i *SyncThreadsInst) Op() contract.Opcode { return contract.OpSyncThreads }
func (i *SyncThreadsInst) Operands() []int     { return nil }
func (i *SyncThreadsInst) Result() (int, bool) { return 0, false }
func (i *SyncThreadsInst) CalleeName() string  { return "llvm.nvvm.barrier0" }
func (i *SyncThreadsInst) String() string      { return "call llvm.nvvm.barrier0()" }
