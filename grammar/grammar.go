// Package grammar is a participle-based parser for the textual kernel-IR
// format: a flat, assembly-like syntax for describing GPU kernel functions
// as a list of basic blocks of single-assignment instructions. It has no
// expressions or operator precedence; every value is either a function
// parameter, an instruction result, or an immediate integer literal.
package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Program is a sequence of modules, each a flat namespace of functions.
type Program struct {
	Modules []*Module `@@*`
}

// DocComment is a /// doc comment preceding a module or function.
type DocComment struct {
	Text string `@DocComment`
}

// Comment is a top-level // comment, kept as its own source element so a
// file's leading license comment round-trips through the printer.
type Comment struct {
	Text string `@Comment`
}

// Module groups the functions of one compilation unit.
type Module struct {
	Pos       lexer.Position
	Doc       *DocComment `@@?`
	Name      string      `"module" @Ident "{"`
	Functions []*Function `@@* "}"`
}

// Param is a formal parameter: its value ID and whether it is pointer-typed
// (address-space analyses key off this, not a full type system).
type Param struct {
	Pos  lexer.Position
	ID   int    `"%" @Integer ":"`
	Type string `@("ptr" | "i32")`
}

// Function is one kernel or device function body.
type Function struct {
	Pos    lexer.Position
	Doc    *DocComment `@@?`
	Name   string      `"fn" @Ident "("`
	Params []*Param    `[ @@ { "," @@ } ] ")" "{"`
	Blocks []*Block    `@@+ "}"`
}

// Block is one basic block: an integer ID and a straight-line instruction
// list ending in a terminator.
type Block struct {
	Pos   lexer.Position
	ID    int            `"block" @Integer ":"`
	Insts []*Instruction `@@*`
}

// Operand is either a reference to a prior value (%N) or a bare integer
// literal. The lowering pass (internal/kernelir/build) gives each distinct
// literal a synthetic negative value ID rather than adding a dedicated
// constant instruction, matching how internal/kernelir already documents
// negative IDs as its constant-operand convention.
type Operand struct {
	Ref     *int `  "%" @Integer`
	Literal *int `| @Integer`
}

// Instruction is one line of a block body: a comment, or exactly one
// operation. Terminators (br/condbr/ret/unreachable) and statement-form
// instructions (store/call/syncthreads) never assign a result; every other
// alternative assigns through Assignment.
type Instruction struct {
	Pos     lexer.Position
	Comment *Comment     `  @@`
	Assign  *Assignment  `| @@`
	Store   *StoreInst   `| @@`
	Call    *CallInst    `| @@`
	Sync    *SyncInst    `| @@`
	Branch  *BranchInst  `| @@`
	CondBr  *CondBrInst  `| @@`
	Ret     *RetInst     `| @@`
	Unreach *UnreachInst `| @@`
}

// Assignment is "%Dst = <rhs>".
type Assignment struct {
	Pos lexer.Position
	Dst int  `"%" @Integer "="`
	RHS *RHS `@@`
}

// RHS is the right-hand side of an Assignment: exactly one of the
// value-producing operations.
type RHS struct {
	Binary  *BinaryRHS     `  @@`
	Cast    *CastRHS       `| @@`
	Alloca  *AllocaRHS     `| @@`
	Load    *LoadRHS       `| @@`
	GEP     *GEPRHS        `| @@`
	Select  *SelectRHS     `| @@`
	Phi     *PhiRHS        `| @@`
	Cmp     *CmpRHS        `| @@`
	Extract *ExtractRHS    `| @@`
	SpecReg *SpecialRegRHS `| @@`
	Call    *CallRHS       `| @@`
}

// BinaryRHS covers the integer arithmetic and bitwise operators, named
// after their original LLVM mnemonics.
type BinaryRHS struct {
	Op    string  `@("add"|"sub"|"mul"|"sdiv"|"udiv"|"urem"|"srem"|"shl"|"lshr"|"ashr"|"and"|"or"|"xor")`
	Left  Operand `@@ ","`
	Right Operand `@@`
}

// CastRHS is a bitcast/trunc/extend, treated as a no-op by the abstract
// lattices (the bit pattern, not the type, is what the analyses track).
type CastRHS struct {
	Src Operand `"cast" @@`
}

// AllocaRHS reserves a local. Aggregate marks an array/struct allocation as
// opposed to a bare pointer local.
type AllocaRHS struct {
	Aggregate bool `"alloca" [ @"aggregate" ]`
	Size      int  `[ "size" "(" @Integer ")" ]`
}

// LoadRHS loads through a pointer operand. Ptr marks the loaded value as
// itself pointer-typed (a pointer-to-pointer load).
type LoadRHS struct {
	Addr  Operand `"load" @@`
	Space string  `[ "space" "(" @("global"|"shared"|"constant"|"local") ")" ]`
	Size  int     `[ "size" "(" @Integer ")" ]`
	Ptr   bool    `[ @"ptr" ]`
}

// StoreInst stores a value through a pointer. It never assigns a result, so
// it appears directly as an Instruction alternative rather than under RHS.
type StoreInst struct {
	Pos   lexer.Position
	Addr  Operand `"store" @@ ","`
	Val   Operand `@@`
	Space string  `[ "space" "(" @("global"|"shared"|"constant"|"local") ")" ]`
	Size  int     `[ "size" "(" @Integer ")" ]`
}

// GEPRHS computes a derived pointer from a base and a list of indices.
type GEPRHS struct {
	Base    Operand   `"gep" @@ ","`
	Indices []Operand `@@ { "," @@ }`
	Space   string    `[ "space" "(" @("global"|"shared"|"constant"|"local") ")" ]`
	Size    int       `[ "size" "(" @Integer ")" ]`
}

// SelectRHS picks True or False based on Cond.
type SelectRHS struct {
	Cond  Operand `"select" @@ ","`
	True  Operand `@@ ","`
	False Operand `@@`
}

// PhiRHS merges values from predecessor blocks, in predecessor order.
type PhiRHS struct {
	Incoming []Operand `"phi" "[" @@ { "," @@ } "]"`
}

// CmpRHS computes one of the six signed/equality comparison predicates.
type CmpRHS struct {
	Pred  string  `@("icmp.eq"|"icmp.ne"|"icmp.slt"|"icmp.sle"|"icmp.sgt"|"icmp.sge")`
	Left  Operand `@@ ","`
	Right Operand `@@`
}

// ExtractRHS reads a field out of an aggregate value.
type ExtractRHS struct {
	Agg Operand `"extractvalue" @@`
}

// SpecialRegRHS reads one X/Y/Z component of a thread/block special
// register: threadIdx, blockIdx, blockDim, or gridDim.
type SpecialRegRHS struct {
	Reg string `@("tid.x"|"tid.y"|"tid.z"|"bid.x"|"bid.y"|"bid.z"|"bdim.x"|"bdim.y"|"bdim.z"|"gdim.x"|"gdim.y"|"gdim.z")`
}

// CallRHS is a result-producing call.
type CallRHS struct {
	InlineAsm bool      `"call" [ @"asm" ]`
	Callee    string    `"@" @Ident "("`
	Args      []Operand `[ @@ { "," @@ } ] ")"`
}

// CallInst is a statement-form call: no result is assigned.
type CallInst struct {
	Pos       lexer.Position
	InlineAsm bool      `"call" [ @"asm" ]`
	Callee    string    `"@" @Ident "("`
	Args      []Operand `[ @@ { "," @@ } ] ")"`
}

// SyncInst is a __syncthreads() barrier.
type SyncInst struct {
	Pos lexer.Position
	Tok string `"syncthreads"`
}

// BranchInst is an unconditional jump to a block ID.
type BranchInst struct {
	Pos    lexer.Position
	Target int `"br" @Integer`
}

// CondBrInst branches on Cond to one of two block IDs.
type CondBrInst struct {
	Pos   lexer.Position
	Cond  Operand `"condbr" @@ ","`
	True  int     `@Integer ","`
	False int     `@Integer`
}

// RetInst returns, optionally with a value.
type RetInst struct {
	Pos   lexer.Position
	Value *Operand `"ret" [ @@ ]`
}

// UnreachInst marks a block that never completes.
type UnreachInst struct {
	Pos lexer.Position
	Tok string `"unreachable"`
}
