// Package contract defines the narrow collaborator interfaces the analysis
// core (internal/engine, internal/uncoalesced, internal/bsize,
// internal/interproc) depends on. It never imports a concrete IR: any
// package providing these views can drive the engine, keeping IR parsing
// and representation out of the core's dependency graph.
package contract

// ValueID identifies a value within a function body. Concrete IRs are free
// to use whatever representation is convenient as long as it is comparable.
type ValueID = int

// Opcode discriminates an instruction's operation. The concrete set (see
// internal/kernelir) covers arithmetic, memory, control flow, and the
// CUDA-specific special-register reads and synchronization primitives the
// transfer functions dispatch on.
type Opcode int

const (
	OpUnknown Opcode = iota
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpICmpEQ
	OpICmpNE
	OpICmpSLT
	OpICmpSLE
	OpICmpSGT
	OpICmpSGE
	OpCast
	OpSelect
	OpPhi
	OpAlloca
	OpLoad
	OpStore
	OpGEP
	OpCall
	OpBr
	OpCondBr
	OpRet
	OpUnreachable
	OpExtractValue
	// ThreadIdx/BlockIdx/BlockDim/GridDim read the X/Y/Z component of the
	// corresponding special register, selected by the analysis run's
	// Dimension (0=x, 1=y, 2=z).
	OpThreadIdx
	OpBlockIdx
	OpBlockDim
	OpGridDim
	OpSyncThreads
)

// AddressSpace mirrors NVVM's address-space numbering for pointer types.
type AddressSpace int

const (
	AddressSpaceGeneric  AddressSpace = 0
	AddressSpaceGlobal   AddressSpace = 1
	AddressSpaceShared   AddressSpace = 3
	AddressSpaceConstant AddressSpace = 4
	AddressSpaceLocal    AddressSpace = 5
)

// BinOp distinguishes the exact binary operator of a BinaryOperator
// instruction. Opcode alone folds several LLVM-level operators together
// (Mul and Shl share Multiplier-lattice semantics, for instance), but the
// two analyses don't fold the same operators into each other, so transfer
// functions dispatch on the precise operator via HasBinOp rather than Op().
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinSDiv
	BinUDiv
	BinURem
	BinSRem
	BinShl
	BinLShr
	BinAShr
	BinAnd
	BinOr
	BinXor
)

// HasBinOp is implemented by binary-operator instructions.
type HasBinOp interface {
	BinOp() BinOp
}

// Instruction is the minimal view the core needs of one IR instruction.
type Instruction interface {
	ID() ValueID
	Op() Opcode
	// Operands returns the instruction's operand value IDs in order. A
	// missing/constant-only operand is represented by the caller's own
	// convention (internal/kernelir uses negative IDs for constants).
	Operands() []ValueID
	// Result reports whether this instruction produces a value, and its ID.
	Result() (ValueID, bool)
	Block() BlockID
	IsTerminator() bool
	// AddressSpace reports the address space of a pointer-typed
	// load/store/GEP/alloca instruction.
	AddressSpace() AddressSpace
	// ElementSize reports the size in bytes of the pointee type for a
	// load/store/GEP, used by the uncoalesced->4-byte threshold.
	ElementSize() int
	// CalleeName returns the called function's name for OpCall.
	CalleeName() string
	// IsAggregate reports, for an OpAlloca, whether the allocated type is an
	// array or struct (as opposed to a bare pointer local).
	IsAggregate() bool
	// IsPointerResult reports whether the instruction's result is itself a
	// pointer-typed value (a pointer-to-pointer load, or a bare-pointer
	// alloca).
	IsPointerResult() bool
	// IsInlineAsm reports whether an OpCall is an inline-assembly call,
	// whose effects are conservatively unknown.
	IsInlineAsm() bool
	// Line and Column report the instruction's source location, for
	// diagnostic rendering. Both are 0 when the instruction was built
	// without position information (e.g. directly by a test).
	Line() int
	Column() int
	String() string
}

// BlockID identifies a basic block within a function.
type BlockID = int

// Block is the minimal view the core needs of one basic block.
type Block interface {
	ID() BlockID
	Instructions() []Instruction
	Successors() []BlockID
	Predecessors() []BlockID
}

// Function is the minimal view the core needs of one function body.
type Function interface {
	Name() string
	EntryBlock() BlockID
	Blocks() []BlockID
	Block(id BlockID) Block
	// Params returns the value IDs of the function's formal parameters, in
	// declaration order.
	Params() []ValueID
	// IsParamPointer reports whether the parameter identified by v is
	// pointer-typed, used to seed BuildInitialState's address-type marking.
	IsParamPointer(v ValueID) bool
	// Dom reports whether a dominates b (inclusive: a dominates itself).
	Dom(a, b BlockID) bool
	// IDom returns b's immediate dominator. Returns false for the entry
	// block, which has none.
	IDom(b BlockID) (BlockID, bool)
}

// CallSite identifies one call instruction and its resolved callee (if the
// callee is defined in this module; external/library calls resolve to "").
type CallSite struct {
	Caller   string
	Callee   string
	Inst     ValueID
	ArgVals  []ValueID
}

// CallGraph is the minimal view the interprocedural driver needs of the
// module's call relationships.
type CallGraph interface {
	Functions() []Function
	CallSites(caller string) []CallSite
	// SCCs returns the call graph's strongly connected components in
	// reverse topological order (callees before callers), matching the
	// original's scc_iterator traversal order.
	SCCs() [][]string
	// IsEntryPoint reports whether f has at most one incoming reference,
	// and that reference (if any) originates outside the module.
	IsEntryPoint(f string) bool
}
