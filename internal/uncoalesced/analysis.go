// Package uncoalesced implements the Multiplier-lattice transfer functions
// that detect uncoalesced global-memory accesses: loads/stores whose
// address depends non-trivially on the thread index, under a
// thread-independent execution predicate.
package uncoalesced

import (
	"warplint/internal/absstate"
	"warplint/internal/contract"
	"warplint/internal/engine"
	"warplint/internal/lattice"
)

// State is the abstract state threaded through one run of the analysis.
type State = *absstate.State[contract.ValueID, lattice.Multiplier]

// NewState returns an empty state.
func NewState() State { return absstate.New[contract.ValueID, lattice.Multiplier]() }

// Analysis is a long-lived transfer-function instance: it accumulates
// interprocedural argument-value summaries across every function it is run
// on (via RecordCallArguments, driven by internal/interproc), mirroring
// UncoalescedAnalysis's FunctionArgumentValues_ map.
type Analysis struct {
	argumentValues map[string]map[contract.ValueID]lattice.Multiplier

	flagged          map[contract.ValueID]bool
	elementSizeCache map[contract.ValueID]int
	lastEngine       *engine.Engine[State]
}

// NewAnalysis returns an Analysis with empty interprocedural summaries.
func NewAnalysis() *Analysis {
	return &Analysis{argumentValues: make(map[string]map[contract.ValueID]lattice.Multiplier)}
}

// BuildInitialState constructs the entry state for fn: each parameter
// value is taken from any previously recorded interprocedural call-site
// argument value, defaulting to Zero, and pointer-typed parameters are
// marked address-type. The entry numThreads predicate starts at Top (no
// divergent branch has narrowed it yet); executeCondBr ANDs it down at
// each conditional.
func (a *Analysis) BuildInitialState(fn contract.Function, paramIsPointer func(contract.ValueID) bool) State {
	st := NewState()
	st.SetNumThreads(lattice.MultiplierTop())
	argMap := a.argumentValues[fn.Name()]
	for _, p := range fn.Params() {
		v := lattice.MultiplierZero()
		if recorded, ok := argMap[p]; ok {
			v = recorded
		}
		if paramIsPointer(p) {
			v = v.WithAddressType(true)
		}
		st.SetValue(p, v)
	}
	return st
}

// RecordCallArguments joins the abstract values flowing into callee's
// parameters (paramIDs, aligned with argVals) into the cross-call summary
// for callee, consumed by a later BuildInitialState(callee, ...) call.
func (a *Analysis) RecordCallArguments(callee string, paramIDs []contract.ValueID, argVals []lattice.Multiplier) {
	argMap, ok := a.argumentValues[callee]
	if !ok {
		argMap = make(map[contract.ValueID]lattice.Multiplier)
		a.argumentValues[callee] = argMap
	}
	for i, p := range paramIDs {
		if i >= len(argVals) {
			break
		}
		if existing, ok := argMap[p]; ok {
			argMap[p] = argVals[i].Join(existing)
		} else {
			argMap[p] = argVals[i]
		}
	}
}

// FlaggedAccesses returns the flagged-instruction set from the most recent
// Run.
func (a *Analysis) FlaggedAccesses() map[contract.ValueID]bool { return a.flagged }

// Run executes the analysis once over fn (uncoalesced classification does
// not depend on which thread axis is "the" varying one, unlike the
// block-size analysis, so there is exactly one run per function) and
// returns the set of instruction IDs flagged as uncoalesced accesses.
func (a *Analysis) Run(fn contract.Function, initial State) map[contract.ValueID]bool {
	a.flagged = make(map[contract.ValueID]bool)
	a.elementSizeCache = make(map[contract.ValueID]int)
	eng := engine.New[State](fn, a)
	eng.Execute(initial)
	a.lastEngine = eng
	return a.flagged
}

// StateBeforeInstruction returns the abstract state recorded just before
// the instruction with the given ID executed in the most recent Run, used
// by the interprocedural driver to read a call site's argument values.
func (a *Analysis) StateBeforeInstruction(inst contract.ValueID) (State, bool) {
	if a.lastEngine == nil {
		return nil, false
	}
	return a.lastEngine.StateBeforeInstruction(inst)
}

// elementSize returns the cached pointee size for ptr if one was recorded
// by a prior GEP, else fallback (the size the instruction itself carries).
func (a *Analysis) elementSize(ptr contract.ValueID, fallback int) int {
	if sz, ok := a.elementSizeCache[ptr]; ok && sz != 0 {
		return sz
	}
	return fallback
}

// pointerValue reads the pointer operand's abstract value, substituting
// the address-space-derived override that the original's
// constant-expression-pointer handling applied to direct references to
// shared/constant module-level buffers.
func pointerValue(st State, inst contract.Instruction, ptr contract.ValueID) lattice.Multiplier {
	switch inst.AddressSpace() {
	case contract.AddressSpaceShared:
		return lattice.MultiplierBot()
	case contract.AddressSpaceConstant:
		return lattice.MultiplierZero()
	default:
		return st.GetValue(ptr)
	}
}

// isUncoalesced implements the flagging rule shared by Load and Store: an
// address-type value that is entirely unknown (Top) in the thread index, or
// linear in it (One/NegOne) with an access wider than 4 bytes, while the
// active-thread-count predicate is Top.
func isUncoalesced(v lattice.Multiplier, numThreads lattice.Multiplier, size int) bool {
	if !v.IsAddressType() || !numThreads.IsTop() {
		return false
	}
	if size > 4 && (v.IsOne() || v.IsNegOne()) {
		return true
	}
	return v.IsTop()
}

func specialRegValue(name string) lattice.Multiplier {
	switch name {
	case "llvm.nvvm.read.ptx.sreg.tid.x":
		return lattice.MultiplierOne()
	case "llvm.nvvm.read.ptx.sreg.tid.y",
		"llvm.nvvm.read.ptx.sreg.tid.z",
		"llvm.nvvm.read.ptx.sreg.ntid.x",
		"llvm.nvvm.read.ptx.sreg.ntid.y",
		"llvm.nvvm.read.ptx.sreg.ntid.z",
		"llvm.nvvm.read.ptx.sreg.ctaid.x",
		"llvm.nvvm.read.ptx.sreg.ctaid.y",
		"llvm.nvvm.read.ptx.sreg.ctaid.z",
		"llvm.nvvm.read.ptx.sreg.nctaid.x",
		"llvm.nvvm.read.ptx.sreg.nctaid.y",
		"llvm.nvvm.read.ptx.sreg.nctaid.z":
		return lattice.MultiplierZero()
	default:
		return lattice.MultiplierTop()
	}
}

// ExecuteInstruction implements engine.Transfer.
func (a *Analysis) ExecuteInstruction(inst contract.Instruction, st State, eng *engine.Engine[State]) State {
	if bo, ok := inst.(contract.HasBinOp); ok {
		a.executeBinary(inst, bo, st)
		return st
	}

	switch inst.Op() {
	case contract.OpCast:
		ops := inst.Operands()
		dst, _ := inst.Result()
		st.SetValue(dst, st.GetValue(ops[0]))

	case contract.OpCall:
		a.executeCall(inst, st)

	case contract.OpAlloca:
		dst, _ := inst.Result()
		if inst.IsPointerResult() {
			st.SetValue(dst, lattice.MultiplierZero())
		}

	case contract.OpLoad:
		a.executeLoad(inst, st)

	case contract.OpStore:
		a.executeStore(inst, st)

	case contract.OpGEP:
		a.executeGEP(inst, st)

	case contract.OpPhi:
		a.executePhi(inst, st, eng)

	case contract.OpICmpEQ:
		ops := inst.Operands()
		dst, _ := inst.Result()
		st.SetValue(dst, lattice.MultiplierEq(st.GetValue(ops[0]), st.GetValue(ops[1])))

	case contract.OpICmpNE:
		ops := inst.Operands()
		dst, _ := inst.Result()
		st.SetValue(dst, lattice.MultiplierNeq(st.GetValue(ops[0]), st.GetValue(ops[1])))

	case contract.OpICmpSLT, contract.OpICmpSLE, contract.OpICmpSGT, contract.OpICmpSGE:
		dst, _ := inst.Result()
		st.SetValue(dst, lattice.MultiplierTop())

	case contract.OpCondBr:
		a.executeCondBr(inst, st, eng)

	case contract.OpThreadIdx, contract.OpBlockIdx, contract.OpBlockDim, contract.OpGridDim:
		dst, _ := inst.Result()
		st.SetValue(dst, specialRegValue(inst.CalleeName()))

	default:
		if inst.IsTerminator() {
			for _, succ := range eng.CurrentBlock().Successors() {
				eng.AddBlockToExecute(succ, st.Clone())
			}
		}
	}
	return st
}

func (a *Analysis) executeBinary(inst contract.Instruction, bo contract.HasBinOp, st State) {
	ops := inst.Operands()
	v1, v2 := st.GetValue(ops[0]), st.GetValue(ops[1])
	var v lattice.Multiplier
	switch bo.BinOp() {
	case contract.BinURem, contract.BinSRem, contract.BinAShr, contract.BinLShr:
		v = v1
	case contract.BinAdd:
		v = lattice.MultiplierSum(v1, v2)
	case contract.BinSub:
		v = lattice.MultiplierSum(v1, lattice.MultiplierNeg(v2))
	case contract.BinShl, contract.BinMul, contract.BinUDiv, contract.BinSDiv:
		v = lattice.MultiplierProd(v1, v2)
	case contract.BinOr:
		v = lattice.MultiplierOr(v1, v2)
	case contract.BinAnd:
		v = lattice.MultiplierAnd(v1, v2)
	case contract.BinXor:
		v = lattice.MultiplierOr(
			lattice.MultiplierAnd(v1, lattice.MultiplierNeg(v2)),
			lattice.MultiplierAnd(v2, lattice.MultiplierNeg(v1)),
		)
	default:
		v = lattice.MultiplierTop()
	}
	dst, _ := inst.Result()
	st.SetValue(dst, v)
}

func (a *Analysis) executeCall(inst contract.Instruction, st State) {
	dst, hasResult := inst.Result()
	if inst.IsInlineAsm() {
		if hasResult {
			st.SetValue(dst, lattice.MultiplierTop())
		}
		return
	}
	name := inst.CalleeName()
	if name == "" {
		if hasResult {
			st.SetValue(dst, lattice.MultiplierTop())
		}
		return
	}
	if hasResult {
		st.SetValue(dst, specialRegValue(name))
	}
}

func (a *Analysis) executeLoad(inst contract.Instruction, st State) {
	ops := inst.Operands()
	ptr := ops[0]
	v := pointerValue(st, inst, ptr)

	size := a.elementSize(ptr, inst.ElementSize())
	if isUncoalesced(v, st.NumThreads(), size) {
		a.flagged[inst.ID()] = true
	}
	if v.IsAddressType() {
		v = lattice.MultiplierProd(v, lattice.MultiplierZero())
	}
	if inst.IsPointerResult() {
		v = v.WithAddressType(true)
	}
	dst, _ := inst.Result()
	st.SetValue(dst, v)
}

func (a *Analysis) executeStore(inst contract.Instruction, st State) {
	ops := inst.Operands() // [addr, val]
	ptr, val := ops[0], ops[1]
	v := pointerValue(st, inst, ptr)

	size := a.elementSize(ptr, inst.ElementSize())
	if isUncoalesced(v, st.NumThreads(), size) {
		a.flagged[inst.ID()] = true
	}
	if !v.IsAddressType() {
		stored := st.GetValue(val).WithAddressType(false)
		st.SetValue(ptr, stored)
	}
}

func (a *Analysis) executeGEP(inst contract.Instruction, st State) {
	ops := inst.Operands() // [base, idx...]
	base := ops[0]
	indices := ops[1:]

	v := st.GetValue(base)
	for _, idx := range indices {
		v = lattice.MultiplierSum(v, st.GetValue(idx))
	}

	switch inst.AddressSpace() {
	case contract.AddressSpaceShared:
		v = lattice.MultiplierBot()
	case contract.AddressSpaceConstant:
		v = lattice.MultiplierZero()
	}

	size := a.elementSize(base, inst.ElementSize())
	dst, _ := inst.Result()
	a.elementSizeCache[dst] = size

	if st.GetValue(base).IsAddressType() {
		v = v.WithAddressType(true)
	}
	st.SetValue(dst, v)
}

// executePhi mirrors the original's dominator-gated join: the PHI's value
// is the join of all incoming values only if the node's immediate
// dominator ends in a conditional branch whose condition is
// thread-independent (Zero); otherwise the value is unknown (Top).
func (a *Analysis) executePhi(inst contract.Instruction, st State, eng *engine.Engine[State]) {
	dst, _ := inst.Result()

	idom, ok := eng.Function().IDom(inst.Block())
	if !ok {
		st.SetValue(dst, lattice.MultiplierTop())
		return
	}
	domInsts := eng.Function().Block(idom).Instructions()
	term := domInsts[len(domInsts)-1]
	if term.Op() != contract.OpCondBr {
		st.SetValue(dst, lattice.MultiplierTop())
		return
	}
	cond := st.GetValue(term.Operands()[0])
	if !cond.IsZero() {
		st.SetValue(dst, lattice.MultiplierTop())
		return
	}

	v := st.GetValue(dst)
	for _, in := range inst.Operands() {
		v = v.Join(st.GetValue(in))
	}
	st.SetValue(dst, v)
}

func (a *Analysis) executeCondBr(inst contract.Instruction, st State, eng *engine.Engine[State]) {
	cond := st.GetValue(inst.Operands()[0])
	succs := eng.CurrentBlock().Successors()

	st1 := st.Clone()
	st1.SetNumThreads(lattice.MultiplierAnd(cond, st.NumThreads()))
	eng.AddBlockToExecute(succs[0], st1)

	st2 := st.Clone()
	st2.SetNumThreads(lattice.MultiplierAnd(lattice.MultiplierNeg(cond), st.NumThreads()))
	eng.AddBlockToExecute(succs[1], st2)
}
