package kernelir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCallChain builds three functions: entry -> mid -> leaf, leaf -> mid
// (a cycle between mid and leaf) so SCCs has something nontrivial to find.
func buildCallChain() *Module {
	m := NewModule()

	entry := NewFunction("entry")
	eb := entry.AddBlock(0)
	entry.AddInst(eb, NewCall(0, 0, -1, false, "mid", nil, false))
	entry.AddInst(eb, NewReturn(1, 0, false, 0))
	m.AddFunction(entry)

	mid := NewFunction("mid")
	mb := mid.AddBlock(0)
	mid.AddInst(mb, NewCall(0, 0, -1, false, "leaf", nil, false))
	mid.AddInst(mb, NewReturn(1, 0, false, 0))
	m.AddFunction(mid)

	leaf := NewFunction("leaf")
	lb := leaf.AddBlock(0)
	leaf.AddInst(lb, NewCall(0, 0, -1, false, "mid", nil, false))
	leaf.AddInst(lb, NewReturn(1, 0, false, 0))
	m.AddFunction(leaf)

	return m
}

func TestCallSitesResolveLocalCallees(t *testing.T) {
	m := buildCallChain()
	sites := m.CallSites("entry")
	require.Len(t, sites, 1)
	assert.Equal(t, "mid", sites[0].Callee)
	assert.Equal(t, "entry", sites[0].Caller)
}

func TestCallSitesOmitExternalCalls(t *testing.T) {
	m := NewModule()
	f := NewFunction("f")
	b := f.AddBlock(0)
	f.AddInst(b, NewCall(0, 0, -1, false, "malloc", nil, false))
	f.AddInst(b, NewReturn(1, 0, false, 0))
	m.AddFunction(f)

	assert.Empty(t, m.CallSites("f"))
}

func TestIsEntryPoint(t *testing.T) {
	m := buildCallChain()
	assert.True(t, m.IsEntryPoint("entry"))
	assert.False(t, m.IsEntryPoint("mid"))
}

func TestSCCsOrderCalleesBeforeCallers(t *testing.T) {
	m := buildCallChain()
	sccs := m.SCCs()
	require.NotEmpty(t, sccs)

	index := make(map[string]int)
	for i, scc := range sccs {
		for _, name := range scc {
			index[name] = i
		}
	}

	assert.Less(t, index["mid"], index["entry"])
	assert.Equal(t, index["mid"], index["leaf"], "mid and leaf form one cycle")
}
