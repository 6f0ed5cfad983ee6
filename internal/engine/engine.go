// Package engine implements a generic worklist-based abstract execution
// engine: given a function (viewed through internal/contract), an initial
// state, and a transfer function, it iterates basic blocks to a fixpoint.
package engine

import "warplint/internal/contract"

// numRecentBlocks bounds the loop-priority recency list. Blocks within a
// loop are revisited ahead of blocks after the loop, so the loop reaches a
// fixpoint before anything downstream of it is executed.
const numRecentBlocks = 16

// Mergeable is the minimal operation the engine needs from an abstract
// state: merge with another state of the same type (for control-flow
// confluence) and equality (to detect a reached fixpoint).
type Mergeable[S any] interface {
	Merge(other S) S
	Equal(other S) bool
}

// Transfer executes one instruction on a state and returns the state after
// execution. Implementations needing to fork divergent states to different
// successors (a conditional branch computing per-successor predicates, for
// instance) call eng.AddBlockToExecute directly rather than relying on the
// engine's own successor-forwarding.
type Transfer[S any] interface {
	ExecuteInstruction(inst contract.Instruction, st S, eng *Engine[S]) S
}

type workItem[S any] struct {
	block int
	state S
}

// Engine drives one function to a fixpoint using a caller-supplied
// Transfer.
type Engine[S Mergeable[S]] struct {
	fn       contract.Function
	transfer Transfer[S]

	recent          []int
	stateBeforeInst map[int]S
	buffer          []workItem[S]
	currentBlock    int
}

// Function returns the function the engine is executing, for transfer
// functions that need to query parameters, dominance, or other blocks.
func (e *Engine[S]) Function() contract.Function { return e.fn }

// CurrentBlock returns the block currently being executed, for transfer
// functions handling terminators that need its successor list.
func (e *Engine[S]) CurrentBlock() contract.Block { return e.fn.Block(e.currentBlock) }

// New constructs an engine for fn, using transfer to execute instructions.
func New[S Mergeable[S]](fn contract.Function, transfer Transfer[S]) *Engine[S] {
	return &Engine[S]{fn: fn, transfer: transfer, stateBeforeInst: make(map[int]S)}
}

// StateBeforeInstruction returns the most recently recorded pre-state of
// the instruction with the given ID, if the engine has executed it.
func (e *Engine[S]) StateBeforeInstruction(id int) (S, bool) {
	st, ok := e.stateBeforeInst[id]
	return st, ok
}

// AddBlockToExecute schedules block to run with st once the current block
// finishes executing. Multiple calls for the same block within one
// execution accumulate into a single buffered entry by the caller merging
// states itself if needed; the engine only merges against what is already
// queued in the worklist.
func (e *Engine[S]) AddBlockToExecute(block int, st S) {
	e.buffer = append(e.buffer, workItem[S]{block: block, state: st})
}

// addRecentBlock records block as most recently executed, evicting the
// oldest entry once the list reaches capacity.
func (e *Engine[S]) addRecentBlock(block int) {
	for i, b := range e.recent {
		if b == block {
			e.recent = append(e.recent[:i], e.recent[i+1:]...)
			break
		}
	}
	if len(e.recent) >= numRecentBlocks {
		e.recent = e.recent[:len(e.recent)-1]
	}
	e.recent = append([]int{block}, e.recent...)
}

// nextExecutionUnit returns a work item from e.recent if one of those
// blocks is still pending in worklist, else the head of worklist.
func (e *Engine[S]) nextExecutionUnit(worklist []workItem[S]) (workItem[S], []workItem[S]) {
	for _, block := range e.recent {
		for i, item := range worklist {
			if item.block == block {
				unit := item
				worklist = append(worklist[:i], worklist[i+1:]...)
				e.addRecentBlock(unit.block)
				return unit, worklist
			}
		}
	}
	unit := worklist[0]
	worklist = worklist[1:]
	e.addRecentBlock(unit.block)
	return unit, worklist
}

// Execute runs the engine to a fixpoint, starting at the function's entry
// block with the given initial state.
func (e *Engine[S]) Execute(initial S) {
	e.stateBeforeInst = make(map[int]S)
	e.recent = nil
	worklist := []workItem[S]{{block: e.fn.EntryBlock(), state: initial}}

	for len(worklist) > 0 {
		var unit workItem[S]
		unit, worklist = e.nextExecutionUnit(worklist)
		block := e.fn.Block(unit.block)
		e.currentBlock = unit.block
		st := unit.state

		e.buffer = nil
		insts := block.Instructions()
		for idx, inst := range insts {
			id := inst.ID()
			if idx == 0 {
				if old, ok := e.stateBeforeInst[id]; ok {
					merged := old.Merge(st)
					if old.Equal(merged) {
						// State before block unchanged; no need to
						// re-execute it.
						break
					}
					e.stateBeforeInst[id] = merged
				} else {
					e.stateBeforeInst[id] = st
				}
			} else {
				e.stateBeforeInst[id] = st
			}
			st = e.transfer.ExecuteInstruction(inst, st, e)
		}

		for _, item := range e.buffer {
			merged := false
			for i, w := range worklist {
				if w.block == item.block {
					worklist[i].state = w.state.Merge(item.state)
					merged = true
					break
				}
			}
			if !merged {
				worklist = append(worklist, item)
			}
		}
	}
}
