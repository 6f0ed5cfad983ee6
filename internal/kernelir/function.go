package kernelir

import "warplint/internal/contract"

// BasicBlock is a straight-line sequence of instructions ending in a
// terminator.
type BasicBlock struct {
	id           int
	insts        []Instruction
	successors   []int
	predecessors []int
}

func (b *BasicBlock) ID() int                       { return b.id }
func (b *BasicBlock) Successors() []int             { return b.successors }
func (b *BasicBlock) Predecessors() []int           { return b.predecessors }
func (b *BasicBlock) Instructions() []contract.Instruction {
	out := make([]contract.Instruction, len(b.insts))
	for i, inst := range b.insts {
		out[i] = inst
	}
	return out
}

// Function is a kernel or device function: a name, parameters, and a set of
// basic blocks reachable from Entry.
type Function struct {
	FnName        string
	Params_       []int
	ParamPointer_ map[int]bool
	Entry         int
	Blocks_       map[int]*BasicBlock
	order         []int // block IDs in declaration order, entry first

	dom *domTree
}

func (f *Function) Name() string    { return f.FnName }
func (f *Function) EntryBlock() int { return f.Entry }
func (f *Function) Params() []int   { return f.Params_ }
func (f *Function) IsParamPointer(v int) bool { return f.ParamPointer_[v] }
func (f *Function) Blocks() []int           { return f.order }
func (f *Function) Block(id int) contract.Block { return f.Blocks_[id] }

// Dom reports whether a dominates b, per the function's dominator tree
// (computed lazily and cached on first use).
func (f *Function) Dom(a, b int) bool {
	if f.dom == nil {
		f.dom = buildDomTree(f)
	}
	return f.dom.dominates(a, b)
}

// IDom returns the immediate dominator of b, or (0, false) for the entry
// block, which has none.
func (f *Function) IDom(b int) (int, bool) {
	if f.dom == nil {
		f.dom = buildDomTree(f)
	}
	idom, ok := f.dom.idom[b]
	return idom, ok
}

// NewFunction constructs an (initially empty) function builder.
func NewFunction(name string) *Function {
	return &Function{FnName: name, Blocks_: make(map[int]*BasicBlock)}
}

// AddBlock appends a new basic block with the given ID (caller-assigned,
// must be unique within the function) and returns it for population.
func (f *Function) AddBlock(id int) *BasicBlock {
	b := &BasicBlock{id: id}
	f.Blocks_[id] = b
	f.order = append(f.order, id)
	if len(f.order) == 1 {
		f.Entry = id
	}
	return b
}

// AddInst appends inst to b and wires up successor/predecessor edges for
// terminators.
func (f *Function) AddInst(b *BasicBlock, inst Instruction) {
	b.insts = append(b.insts, inst)
	switch t := inst.(type) {
	case *BranchInst:
		b.successors = append(b.successors, t.Target)
		f.linkPred(t.Target, b.id)
	case *CondBranchInst:
		b.successors = append(b.successors, t.TrueBlk, t.FalseBlk)
		f.linkPred(t.TrueBlk, b.id)
		f.linkPred(t.FalseBlk, b.id)
	}
}

func (f *Function) linkPred(succ, pred int) {
	if sb, ok := f.Blocks_[succ]; ok {
		sb.predecessors = append(sb.predecessors, pred)
	}
}
