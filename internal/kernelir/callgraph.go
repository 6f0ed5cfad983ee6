package kernelir

import "warplint/internal/contract"

// Module is a collection of functions forming one compilation unit; it
// implements contract.CallGraph.
type Module struct {
	Fns   map[string]*Function
	order []string
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{Fns: make(map[string]*Function)}
}

// AddFunction registers fn with the module, in declaration order.
func (m *Module) AddFunction(fn *Function) {
	if _, exists := m.Fns[fn.FnName]; !exists {
		m.order = append(m.order, fn.FnName)
	}
	m.Fns[fn.FnName] = fn
}

func (m *Module) Functions() []contract.Function {
	out := make([]contract.Function, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.Fns[name])
	}
	return out
}

// CallSites scans caller's instructions for OpCall targets resolvable within
// the module (external/library calls are omitted: their callee is "").
func (m *Module) CallSites(caller string) []contract.CallSite {
	fn, ok := m.Fns[caller]
	if !ok {
		return nil
	}
	var sites []contract.CallSite
	for _, bid := range fn.order {
		for _, inst := range fn.Blocks_[bid].insts {
			call, ok := inst.(*CallInst)
			if !ok {
				continue
			}
			if _, isLocal := m.Fns[call.Callee]; !isLocal {
				continue
			}
			sites = append(sites, contract.CallSite{
				Caller:  caller,
				Callee:  call.Callee,
				Inst:    call.ID(),
				ArgVals: append([]int(nil), call.Args...),
			})
		}
	}
	return sites
}

// IsEntryPoint mirrors isEntryPoint from the original interprocedural
// driver: a function with zero incoming references, or whose only
// reference originates outside the module (a function this module never
// calls itself), is an entrypoint.
func (m *Module) IsEntryPoint(f string) bool {
	refs := m.incomingRefCount(f)
	return refs == 0
}

func (m *Module) incomingRefCount(f string) int {
	count := 0
	for _, name := range m.order {
		for _, site := range m.CallSites(name) {
			if site.Callee == f {
				count++
			}
		}
	}
	return count
}

// SCCs returns the module's call graph's strongly connected components, in
// reverse topological order (callees before callers), via Tarjan's
// algorithm — matching llvm::scc_iterator's traversal order used by the
// original interprocedural passes.
func (m *Module) SCCs() [][]string {
	t := &tarjan{
		graph:   m.adjacency(),
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, name := range m.order {
		if _, visited := t.index[name]; !visited {
			t.strongConnect(name)
		}
	}
	// Tarjan naturally emits SCCs in reverse topological order (each SCC
	// popped once its subtree is exhausted, which happens after its
	// callees), matching the callees-before-callers order we need.
	return t.result
}

func (m *Module) adjacency() map[string][]string {
	adj := make(map[string][]string, len(m.order))
	for _, name := range m.order {
		for _, site := range m.CallSites(name) {
			adj[name] = append(adj[name], site.Callee)
		}
	}
	return adj
}

type tarjan struct {
	graph   map[string][]string
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	result  [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph[v] {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, scc)
	}
}
