// Package bsize implements the BSizeDependence-lattice transfer functions
// that detect block-size-dependent accesses: shared/global memory accesses
// (or function calls) whose behavior changes when the kernel is launched
// with a different block size, under a fixed thread-dimension axis.
package bsize

import (
	"strings"

	"warplint/internal/absstate"
	"warplint/internal/contract"
	"warplint/internal/engine"
	"warplint/internal/lattice"
)

// Val is the BSizeDependence lattice instantiated with the core's opaque
// value-handle type.
type Val = lattice.BSize[contract.ValueID]

// State is the abstract state threaded through one run of the analysis.
type State = *absstate.State[contract.ValueID, Val]

// NewState returns an empty state.
func NewState() State { return absstate.New[contract.ValueID, Val]() }

// accessEntry tracks a shared-memory pointer's root variable and the
// sequence of index values applied to reach the value carrying this entry.
type accessEntry struct {
	root    contract.ValueID
	pattern []Val
}

// Analysis is a long-lived transfer-function instance bound to one thread
// axis; internal/interproc creates one per axis and runs it once over every
// function. It accumulates cross-function summaries
// (FunctionBSIMap_/FunctionReturnValueMap_ in the original) across every
// function it is run on.
type Analysis struct {
	threadDim int

	functionBSI   map[string]bool
	returnValue   map[string]Val

	flagged     map[contract.ValueID]bool
	syncThreads map[contract.ValueID]bool

	currentAccess map[contract.ValueID]accessEntry
	sharedPattern map[contract.ValueID][]Val
}

// NewAnalysis returns an Analysis for the given thread axis (0=x, 1=y,
// 2=z), with empty cross-function summaries.
func NewAnalysis(threadDim int) *Analysis {
	return &Analysis{
		threadDim:   threadDim,
		functionBSI: make(map[string]bool),
		returnValue: make(map[string]Val),
	}
}

// RecordFunctionSummary records whether callee was found block-size
// dependent in a prior run, consumed by calls to callee from other
// functions analyzed afterward (the interprocedural driver runs callees
// before callers, per SCC order).
func (a *Analysis) RecordFunctionSummary(callee string, isBSI bool) {
	a.functionBSI[callee] = isBSI
}

// ReturnValue returns the summarized return value for fn, if fn has been
// run and returned a value.
func (a *Analysis) ReturnValue(fn string) (Val, bool) {
	v, ok := a.returnValue[fn]
	return v, ok
}

// BuildInitialState constructs the entry state for fn: every parameter
// starts as a constant carrying its own value as multiplier key (mirroring
// BSizeDependenceValue(CONST, false, arg)), with pointer-typed parameters
// additionally marked address-type. The entry numThreads predicate starts
// as Const (every thread active, no divergence yet).
func (a *Analysis) BuildInitialState(fn contract.Function, paramIsPointer func(contract.ValueID) bool) State {
	st := NewState()
	st.SetNumThreads(lattice.BSizeConst[contract.ValueID]())
	for _, p := range fn.Params() {
		v := lattice.BSizeConstWithKey[contract.ValueID](p)
		if paramIsPointer(p) {
			v = v.WithAddressType(true)
		}
		st.SetValue(p, v)
	}
	return st
}

// FlaggedAccesses returns the block-size-dependent instruction IDs found by
// the most recent Run.
func (a *Analysis) FlaggedAccesses() map[contract.ValueID]bool { return a.flagged }

// SyncThreads returns the __syncthreads() call sites found by the most
// recent Run.
func (a *Analysis) SyncThreads() map[contract.ValueID]bool { return a.syncThreads }

// Run executes the analysis once over fn along the configured thread axis.
func (a *Analysis) Run(fn contract.Function, initial State) map[contract.ValueID]bool {
	a.flagged = make(map[contract.ValueID]bool)
	a.syncThreads = make(map[contract.ValueID]bool)
	a.currentAccess = make(map[contract.ValueID]accessEntry)
	a.sharedPattern = make(map[contract.ValueID][]Val)

	eng := engine.New[State](fn, a)
	eng.Execute(initial)
	return a.flagged
}

// isBSILibraryCall whitelists calls that never themselves introduce a
// block-size dependence: debug/intrinsic/math helpers, malloc, the
// syncthreads barrier, and the special-register reads, plus any inlined
// wrapper function (named with a "_wrapper" suffix by the frontend).
func isBSILibraryCall(name string) bool {
	switch name {
	case "llvm.dbg.declare",
		"llvm.ctlz.i32",
		"llvm.trap",
		"malloc",
		"llvm.memcpy.p0i8.p0i8.i64",
		"llvm.nvvm.barrier0",
		"llvm.nvvm.read.ptx.sreg.tid.x",
		"llvm.nvvm.read.ptx.sreg.tid.y",
		"llvm.nvvm.read.ptx.sreg.tid.z",
		"llvm.nvvm.read.ptx.sreg.ntid.x",
		"llvm.nvvm.read.ptx.sreg.ntid.y",
		"llvm.nvvm.read.ptx.sreg.ntid.z",
		"llvm.nvvm.read.ptx.sreg.ctaid.x",
		"llvm.nvvm.read.ptx.sreg.ctaid.y",
		"llvm.nvvm.read.ptx.sreg.ctaid.z",
		"llvm.nvvm.read.ptx.sreg.nctaid.x",
		"llvm.nvvm.read.ptx.sreg.nctaid.y",
		// Verbatim upstream name: missing the "i" in "nctaid". Preserved
		// as-is rather than corrected, since a fix here would silently
		// change which calls are treated as library calls.
		"llvm.nvvm.read.ptx.sreg.nctad.z",
		"llvm.nvvm.sqrt.f",
		"llvm.nvvm.saturate.f",
		"llvm.nvvm.log.f",
		"llvm.nvvm.lg2.approx.f",
		"llvm.nvvm.fmax.f",
		"llvm.nvvm.fmin.f",
		"llvm.nvvm.mul24.ui",
		"llvm.umul.with.overflow.i64",
		"llvm.nvvm.sin.f",
		"llvm.nvvm.cos.f":
		return true
	}
	return strings.Contains(name, "_wrapper")
}

// AreFunctionCallArgsBSI reports whether every argument to a call is
// block-size independent (CONST or B_CONST).
func AreFunctionCallArgsBSI(inst contract.Instruction, st State) bool {
	for _, arg := range inst.Operands() {
		v := st.GetValue(arg)
		if !v.IsConst() && !v.IsBConst() {
			return false
		}
	}
	return true
}

// dimensionalSpecialReg reports the BSize element a thread/block special
// register contributes along the named axis, and which axis (0/1/2) it
// reads.
func dimensionalSpecialReg(name string) (Val, int, bool) {
	switch name {
	case "llvm.nvvm.read.ptx.sreg.tid.x":
		return lattice.BSizeTid[contract.ValueID](), 0, true
	case "llvm.nvvm.read.ptx.sreg.tid.y":
		return lattice.BSizeTid[contract.ValueID](), 1, true
	case "llvm.nvvm.read.ptx.sreg.tid.z":
		return lattice.BSizeTid[contract.ValueID](), 2, true
	case "llvm.nvvm.read.ptx.sreg.ntid.x":
		return lattice.BSizeBsize[contract.ValueID](), 0, true
	case "llvm.nvvm.read.ptx.sreg.ntid.y":
		return lattice.BSizeBsize[contract.ValueID](), 1, true
	case "llvm.nvvm.read.ptx.sreg.ntid.z":
		return lattice.BSizeBsize[contract.ValueID](), 2, true
	case "llvm.nvvm.read.ptx.sreg.ctaid.x":
		return lattice.BSizeBid[contract.ValueID](), 0, true
	case "llvm.nvvm.read.ptx.sreg.ctaid.y":
		return lattice.BSizeBid[contract.ValueID](), 1, true
	case "llvm.nvvm.read.ptx.sreg.ctaid.z":
		return lattice.BSizeBid[contract.ValueID](), 2, true
	case "llvm.nvvm.read.ptx.sreg.nctaid.x":
		return lattice.BSizeGsize[contract.ValueID](), 0, true
	case "llvm.nvvm.read.ptx.sreg.nctaid.y":
		return lattice.BSizeGsize[contract.ValueID](), 1, true
	case "llvm.nvvm.read.ptx.sreg.nctaid.z":
		return lattice.BSizeGsize[contract.ValueID](), 2, true
	default:
		return Val{}, -1, false
	}
}

// ExecuteInstruction implements engine.Transfer.
func (a *Analysis) ExecuteInstruction(inst contract.Instruction, st State, eng *engine.Engine[State]) State {
	if bo, ok := inst.(contract.HasBinOp); ok {
		a.executeBinary(inst, bo, st)
		return st
	}

	switch inst.Op() {
	case contract.OpCast, contract.OpExtractValue:
		ops := inst.Operands()
		dst, _ := inst.Result()
		st.SetValue(dst, st.GetValue(ops[0]))

	case contract.OpCall:
		a.executeCall(inst, st, eng)

	case contract.OpThreadIdx, contract.OpBlockIdx, contract.OpBlockDim, contract.OpGridDim:
		dst, _ := inst.Result()
		v, dim, _ := dimensionalSpecialReg(inst.CalleeName())
		if dim != a.threadDim {
			v = lattice.BSizeConstWithKey(dst)
		}
		st.SetValue(dst, v)

	case contract.OpSyncThreads:
		a.syncThreads[inst.ID()] = true

	case contract.OpAlloca:
		dst, _ := inst.Result()
		if inst.IsPointerResult() {
			st.SetValue(dst, lattice.BSizeConst[contract.ValueID]())
		}
		if inst.IsAggregate() {
			st.SetValue(dst, lattice.BSizeConst[contract.ValueID]().WithAddressType(true))
		}

	case contract.OpLoad:
		a.executeLoad(inst, st)

	case contract.OpStore:
		a.executeStore(inst, st)

	case contract.OpGEP:
		a.executeGEP(inst, st)

	case contract.OpSelect:
		ops := inst.Operands() // cond, true, false
		dst, _ := inst.Result()
		v := st.GetValue(ops[1]).Join(st.GetValue(ops[2]))
		cond := st.GetValue(ops[0])
		if cond.IsBConst() || cond.IsConst() {
			st.SetValue(dst, v)
		} else {
			st.SetValue(dst, lattice.BSizeTop[contract.ValueID]())
		}

	case contract.OpPhi:
		dst, _ := inst.Result()
		v := st.GetValue(dst)
		for _, in := range inst.Operands() {
			v = v.Join(st.GetValue(in))
		}
		st.SetValue(dst, v)

	case contract.OpICmpEQ, contract.OpICmpNE, contract.OpICmpSLT,
		contract.OpICmpSLE, contract.OpICmpSGT, contract.OpICmpSGE:
		ops := inst.Operands()
		dst, _ := inst.Result()
		st.SetValue(dst, lattice.BSizeRel(st.GetValue(ops[0]), st.GetValue(ops[1])))

	case contract.OpBr:
		for _, succ := range eng.CurrentBlock().Successors() {
			eng.AddBlockToExecute(succ, st.Clone())
		}

	case contract.OpCondBr:
		a.executeCondBr(inst, st, eng)

	case contract.OpRet:
		a.executeReturn(inst, st, eng)

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
	dst, _ := inst.Result()

	var v Val
	switch bo.BinOp() {
	case contract.BinAdd:
		v = lattice.BSizeSum(v1, v2, dst)
	case contract.BinSub:
		v = lattice.BSizeSum(v1, lattice.BSizeNeg(v2, 0), dst)
	case contract.BinMul:
		v = lattice.BSizeProd(v1, v2, dst)
	case contract.BinOr:
		v = lattice.BSizeOr(v1, v2)
	case contract.BinAnd:
		v = lattice.BSizeAnd(v1, v2)
	case contract.BinXor:
		v = lattice.BSizeOr(
			lattice.BSizeAnd(v1, lattice.BSizeNeg(v2, 0)),
			lattice.BSizeAnd(lattice.BSizeNeg(v1, 0), v2),
		)
	default:
		switch {
		case v1.IsBot() || v2.IsBot():
			v = lattice.BSizeBot[contract.ValueID]()
		case v1.IsConst() && v2.IsConst():
			v = lattice.BSizeConstWithKey(dst)
		case v1.IsBConst() && v2.IsBConst():
			v = lattice.BSizeBConst[contract.ValueID]()
		default:
			v = lattice.BSizeTop[contract.ValueID]()
		}
	}
	st.SetValue(dst, v)
}

func (a *Analysis) executeCall(inst contract.Instruction, st State, eng *engine.Engine[State]) {
	dst, hasResult := inst.Result()
	if inst.IsInlineAsm() {
		if hasResult {
			st.SetValue(dst, lattice.BSizeTop[contract.ValueID]())
		}
		return
	}
	name := inst.CalleeName()

	if isBSI, known := a.functionBSI[name]; known {
		if !isBSI && !isBSILibraryCall(name) {
			a.flagged[inst.ID()] = true
		}
	} else if name == "" || !isBSILibraryCall(name) {
		a.flagged[inst.ID()] = true
	}

	if !hasResult {
		return
	}

	if name != "" && name != eng.Function().Name() && !isBSILibraryCall(name) {
		if retV, ok := a.returnValue[name]; ok {
			if AreFunctionCallArgsBSI(inst, st) && (retV.IsConst() || retV.IsBConst()) {
				st.SetValue(dst, lattice.BSizeConstWithKey(dst))
			} else {
				st.SetValue(dst, lattice.BSizeTop[contract.ValueID]())
			}
			return
		}
	}

	if name == "" {
		st.SetValue(dst, lattice.BSizeTop[contract.ValueID]())
		return
	}

	if isBSILibraryCall(name) && AreFunctionCallArgsBSI(inst, st) {
		st.SetValue(dst, lattice.BSizeConstWithKey(dst))
		return
	}
	st.SetValue(dst, lattice.BSizeTop[contract.ValueID]())
}

// ensureAccessRoot marks p as the root of a tracked shared-memory access
// pattern, the first time a shared-address-space GEP derives from it.
func (a *Analysis) ensureAccessRoot(p contract.ValueID) {
	if _, ok := a.currentAccess[p]; !ok {
		a.currentAccess[p] = accessEntry{root: p}
	}
}

func (a *Analysis) updateAccessPattern(initp, finalp contract.ValueID, idx Val) {
	entry := a.currentAccess[initp]
	pattern := append(append([]Val{}, entry.pattern...), idx)
	a.currentAccess[finalp] = accessEntry{root: entry.root, pattern: pattern}
}

// handleSharedMemoryAccess mirrors HandleSharedMemoryAccess: it checks the
// current access pattern for p against the pattern previously recorded for
// its root, reporting CONST if consistent (and remembering the longer of
// the two patterns), else TOP.
func (a *Analysis) handleSharedMemoryAccess(p, instID contract.ValueID) Val {
	entry := a.currentAccess[p]
	a.currentAccess[instID] = entry

	root := entry.root
	curr := entry.pattern
	acc := a.sharedPattern[root]
	if len(acc) < len(curr) {
		a.sharedPattern[root] = curr
	}

	consistent := true
	n := len(acc)
	if len(curr) < n {
		n = len(curr)
	}
	for i := 0; i < n; i++ {
		if !acc[i].Equal(curr[i]) {
			consistent = false
			break
		}
	}
	if consistent {
		for i := len(acc); i < len(curr); i++ {
			if !curr[i].IsConst() && !curr[i].IsTid() {
				consistent = false
				break
			}
		}
	}

	var v Val
	if consistent {
		v = lattice.BSizeConst[contract.ValueID]()
	} else {
		v = lattice.BSizeTop[contract.ValueID]()
	}
	return v.WithAddressType(true)
}

func (a *Analysis) executeLoad(inst contract.Instruction, st State) {
	ops := inst.Operands()
	p := ops[0]

	var v Val
	if _, tracked := a.currentAccess[p]; tracked {
		v = a.handleSharedMemoryAccess(p, inst.ID())
	} else {
		v = st.GetValue(p)
	}

	if v.IsAddressType() {
		if v.IsConst() {
			v = lattice.BSizeConst[contract.ValueID]()
		} else {
			v = lattice.BSizeTop[contract.ValueID]()
		}
	}
	if inst.IsPointerResult() {
		v = v.WithAddressType(true)
	}
	dst, _ := inst.Result()
	st.SetValue(dst, v)
}

func (a *Analysis) executeStore(inst contract.Instruction, st State) {
	ops := inst.Operands() // [addr, val]
	p, val := ops[0], ops[1]

	var v Val
	if _, tracked := a.currentAccess[p]; tracked {
		v = a.handleSharedMemoryAccess(p, inst.ID())
	} else {
		v = st.GetValue(p)
	}

	vVal := st.GetValue(val)
	numThreads := st.NumThreads()
	if v.IsAddressType() &&
		(!v.IsConst() || !vVal.IsConst() || (!numThreads.IsBConst() && !numThreads.IsConst())) {
		a.flagged[inst.ID()] = true
	}
	if !v.IsAddressType() {
		vVal = vVal.WithAddressType(false)
		if !numThreads.IsBConst() && !numThreads.IsConst() {
			vVal = lattice.BSizeTop[contract.ValueID]()
		}
		st.SetValue(p, vVal)
	}
}

func (a *Analysis) executeGEP(inst contract.Instruction, st State) {
	ops := inst.Operands() // [base, idx...]
	base := ops[0]
	indices := ops[1:]
	dst, _ := inst.Result()

	if inst.AddressSpace() == contract.AddressSpaceShared {
		a.ensureAccessRoot(base)
	}

	vIdx := st.GetValue(indices[0])
	for _, idx := range indices[1:] {
		vIdx = lattice.BSizeSum(vIdx, st.GetValue(idx), 0)
	}

	var v Val
	if _, tracked := a.currentAccess[base]; tracked {
		a.updateAccessPattern(base, dst, vIdx)
		v = lattice.BSizeBot[contract.ValueID]()
	} else {
		v = lattice.BSizeSum(st.GetValue(base), vIdx, 0)
	}
	if st.GetValue(base).IsAddressType() {
		v = v.WithAddressType(true)
	}
	st.SetValue(dst, v)
}

func (a *Analysis) executeCondBr(inst contract.Instruction, st State, eng *engine.Engine[State]) {
	cond := st.GetValue(inst.Operands()[0])
	succs := eng.CurrentBlock().Successors()

	st1 := st.Clone()
	st1.SetNumThreads(lattice.BSizeAnd(st.NumThreads(), cond))
	eng.AddBlockToExecute(succs[0], st1)

	st2 := st.Clone()
	st2.SetNumThreads(lattice.BSizeAnd(st.NumThreads(), lattice.BSizeNeg(cond, 0)))
	eng.AddBlockToExecute(succs[1], st2)
}

func (a *Analysis) executeReturn(inst contract.Instruction, st State, eng *engine.Engine[State]) {
	name := eng.Function().Name()
	ops := inst.Operands()
	if len(ops) == 0 {
		a.returnValue[name] = lattice.BSizeConstWithKey[contract.ValueID](0)
		return
	}
	v := st.GetValue(ops[0])
	if existing, ok := a.returnValue[name]; ok {
		v = v.Join(existing)
	}
	a.returnValue[name] = v
}
