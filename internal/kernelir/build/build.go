// Package build lowers a parsed kernel-IR syntax tree (see the grammar
// package) into a internal/kernelir.Module, assigning each instruction a
// unique ID and recording its source position for diagnostics.
package build

import (
	"fmt"
	"strings"

	"warplint/grammar"
	"warplint/internal/contract"
	"warplint/internal/kernelir"
)

// FromProgram lowers every module in prog into one combined kernelir.Module.
// Kernel-IR source files describe a single flat compilation unit, so
// functions from every grammar.Module are merged into one call graph.
func FromProgram(prog *grammar.Program) (*kernelir.Module, error) {
	mod := kernelir.NewModule()
	for _, gm := range prog.Modules {
		for _, gf := range gm.Functions {
			fn, err := lowerFunction(gf)
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", gf.Name, err)
			}
			mod.AddFunction(fn)
		}
	}
	return mod, nil
}

// builder accumulates per-function lowering state: the instruction ID
// counter and the literal-to-synthetic-value-ID cache.
type builder struct {
	fn      *kernelir.Function
	nextID  int
	nextLit int
	litIDs  map[int]int
}

func newBuilder(name string) *builder {
	return &builder{
		fn:      kernelir.NewFunction(name),
		nextLit: -1,
		litIDs:  make(map[int]int),
	}
}

func (b *builder) instID() int {
	id := b.nextID
	b.nextID++
	return id
}

// operand resolves a grammar.Operand to a value ID: a %N reference passes
// through unchanged, and a bare integer literal is assigned a synthetic
// negative ID, reused for repeated occurrences of the same literal within
// the function. The ID is never recorded via absstate.State.SetValue, so
// GetValue's zero-value (Bot) fallback stands in for the literal's abstract
// value, matching internal/kernelir's documented constant convention.
func (b *builder) operand(o grammar.Operand) int {
	if o.Ref != nil {
		return *o.Ref
	}
	lit := *o.Literal
	if id, ok := b.litIDs[lit]; ok {
		return id
	}
	id := b.nextLit
	b.nextLit--
	b.litIDs[lit] = id
	return id
}

func (b *builder) operands(ops []grammar.Operand) []int {
	out := make([]int, len(ops))
	for i, o := range ops {
		out[i] = b.operand(o)
	}
	return out
}

func lowerFunction(gf *grammar.Function) (*kernelir.Function, error) {
	b := newBuilder(gf.Name)
	b.fn.ParamPointer_ = make(map[int]bool)
	for _, p := range gf.Params {
		b.fn.Params_ = append(b.fn.Params_, p.ID)
		if p.Type == "ptr" {
			b.fn.ParamPointer_[p.ID] = true
		}
	}

	for _, blk := range gf.Blocks {
		b.fn.AddBlock(blk.ID)
	}

	for _, blk := range gf.Blocks {
		bb := b.fn.Blocks_[blk.ID]
		for _, inst := range blk.Insts {
			if err := b.lowerInst(bb, blk.ID, inst); err != nil {
				return nil, err
			}
		}
	}

	return b.fn, nil
}

func (b *builder) lowerInst(bb *kernelir.BasicBlock, blockID int, inst *grammar.Instruction) error {
	switch {
	case inst.Comment != nil:
		return nil
	case inst.Assign != nil:
		return b.lowerAssign(bb, blockID, inst.Assign)
	case inst.Store != nil:
		s := inst.Store
		ki := kernelir.NewStore(b.instID(), blockID, b.operand(s.Addr), b.operand(s.Val), addrSpace(s.Space), s.Size)
		ki.SetPos(s.Pos.Line, s.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.Call != nil:
		c := inst.Call
		ki := kernelir.NewCall(b.instID(), blockID, 0, false, c.Callee, b.operands(c.Args), c.InlineAsm)
		ki.SetPos(c.Pos.Line, c.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.Sync != nil:
		ki := kernelir.NewSyncThreads(b.instID(), blockID)
		ki.SetPos(inst.Sync.Pos.Line, inst.Sync.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.Branch != nil:
		ki := kernelir.NewBranch(b.instID(), blockID, inst.Branch.Target)
		ki.SetPos(inst.Branch.Pos.Line, inst.Branch.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.CondBr != nil:
		cb := inst.CondBr
		ki := kernelir.NewCondBranch(b.instID(), blockID, b.operand(cb.Cond), cb.True, cb.False)
		ki.SetPos(cb.Pos.Line, cb.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.Ret != nil:
		r := inst.Ret
		hasVal := r.Value != nil
		val := 0
		if hasVal {
			val = b.operand(*r.Value)
		}
		ki := kernelir.NewReturn(b.instID(), blockID, hasVal, val)
		ki.SetPos(r.Pos.Line, r.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	case inst.Unreach != nil:
		ki := kernelir.NewUnreachable(b.instID(), blockID)
		ki.SetPos(inst.Unreach.Pos.Line, inst.Unreach.Pos.Column)
		b.fn.AddInst(bb, ki)
		return nil
	default:
		return fmt.Errorf("unrecognized instruction at line %d", inst.Pos.Line)
	}
}

func (b *builder) lowerAssign(bb *kernelir.BasicBlock, blockID int, a *grammar.Assignment) error {
	dst := a.Dst
	rhs := a.RHS
	id := b.instID()
	pos := a.Pos

	switch {
	case rhs.Binary != nil:
		op, err := binOp(rhs.Binary.Op)
		if err != nil {
			return err
		}
		ki := kernelir.NewBinary(id, blockID, dst, op, b.operand(rhs.Binary.Left), b.operand(rhs.Binary.Right))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Cast != nil:
		ki := kernelir.NewCast(id, blockID, dst, b.operand(rhs.Cast.Src))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Alloca != nil:
		ki := kernelir.NewAlloca(id, blockID, dst, rhs.Alloca.Aggregate, rhs.Alloca.Size)
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Load != nil:
		l := rhs.Load
		ki := kernelir.NewLoad(id, blockID, dst, b.operand(l.Addr), addrSpace(l.Space), l.Size, l.Ptr)
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.GEP != nil:
		g := rhs.GEP
		indices := b.operands(g.Indices)
		var ki *kernelir.GEPInst
		if g.Space != "" {
			ki = kernelir.NewGEPInSpace(id, blockID, dst, b.operand(g.Base), indices, g.Size, addrSpace(g.Space))
		} else {
			ki = kernelir.NewGEP(id, blockID, dst, b.operand(g.Base), indices, g.Size)
		}
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Select != nil:
		s := rhs.Select
		ki := kernelir.NewSelect(id, blockID, dst, b.operand(s.Cond), b.operand(s.True), b.operand(s.False))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Phi != nil:
		ki := kernelir.NewPhi(id, blockID, dst, b.operands(rhs.Phi.Incoming))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Cmp != nil:
		pred, err := cmpPred(rhs.Cmp.Pred)
		if err != nil {
			return err
		}
		ki := kernelir.NewCmp(id, blockID, dst, pred, b.operand(rhs.Cmp.Left), b.operand(rhs.Cmp.Right))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Extract != nil:
		ki := kernelir.NewExtractValue(id, blockID, dst, b.operand(rhs.Extract.Agg))
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.SpecReg != nil:
		reg, dim, err := specialReg(rhs.SpecReg.Reg)
		if err != nil {
			return err
		}
		ki := kernelir.NewSpecialReg(id, blockID, dst, reg, dim)
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	case rhs.Call != nil:
		c := rhs.Call
		ki := kernelir.NewCall(id, blockID, dst, true, c.Callee, b.operands(c.Args), c.InlineAsm)
		ki.SetPos(pos.Line, pos.Column)
		b.fn.AddInst(bb, ki)
	default:
		return fmt.Errorf("unrecognized assignment at line %d", pos.Line)
	}
	return nil
}

func addrSpace(s string) contract.AddressSpace {
	switch s {
	case "global":
		return contract.AddressSpaceGlobal
	case "shared":
		return contract.AddressSpaceShared
	case "constant":
		return contract.AddressSpaceConstant
	case "local":
		return contract.AddressSpaceLocal
	default:
		return contract.AddressSpaceGeneric
	}
}

func binOp(s string) (kernelir.BinaryOp, error) {
	switch s {
	case "add":
		return kernelir.BinAdd, nil
	case "sub":
		return kernelir.BinSub, nil
	case "mul":
		return kernelir.BinMul, nil
	case "sdiv":
		return kernelir.BinSDiv, nil
	case "udiv":
		return kernelir.BinUDiv, nil
	case "urem":
		return kernelir.BinURem, nil
	case "srem":
		return kernelir.BinSRem, nil
	case "shl":
		return kernelir.BinShl, nil
	case "lshr":
		return kernelir.BinLShr, nil
	case "ashr":
		return kernelir.BinAShr, nil
	case "and":
		return kernelir.BinAnd, nil
	case "or":
		return kernelir.BinOr, nil
	case "xor":
		return kernelir.BinXor, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %q", s)
	}
}

func cmpPred(s string) (kernelir.CmpPred, error) {
	switch s {
	case "icmp.eq":
		return kernelir.CmpEQ, nil
	case "icmp.ne":
		return kernelir.CmpNE, nil
	case "icmp.slt":
		return kernelir.CmpSLT, nil
	case "icmp.sle":
		return kernelir.CmpSLE, nil
	case "icmp.sgt":
		return kernelir.CmpSGT, nil
	case "icmp.sge":
		return kernelir.CmpSGE, nil
	default:
		return 0, fmt.Errorf("unknown comparison predicate %q", s)
	}
}

var specialRegDim = map[string]int{"x": 0, "y": 1, "z": 2}

func specialReg(s string) (contract.Opcode, int, error) {
	switch {
	case strings.HasPrefix(s, "tid."):
		return contract.OpThreadIdx, specialRegDim[s[len("tid."):]], nil
	case strings.HasPrefix(s, "bid."):
		return contract.OpBlockIdx, specialRegDim[s[len("bid."):]], nil
	case strings.HasPrefix(s, "bdim."):
		return contract.OpBlockDim, specialRegDim[s[len("bdim."):]], nil
	case strings.HasPrefix(s, "gdim."):
		return contract.OpGridDim, specialRegDim[s[len("gdim."):]], nil
	default:
		return 0, 0, fmt.Errorf("unknown special register %q", s)
	}
}
