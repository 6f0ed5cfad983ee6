package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const coalescedKernel = `
module vecadd {
fn saxpy(%0: ptr, %1: ptr) {
block 0:
%2 = tid.x
%3 = bid.x
%4 = bdim.x
%5 = mul %3, %4
%6 = add %5, %2
%7 = gep %0, %6 space(global) size(4)
%8 = load %7 space(global) size(4)
%9 = gep %1, %6 space(global) size(4)
store %9, %8 space(global) size(4)
ret
}
}
`

const uncoalescedKernel = `
module strided {
fn scatter(%0: ptr) {
block 0:
%1 = tid.x
%2 = tid.y
%3 = mul %1, %2
%4 = gep %0, %3 space(global) size(4)
%5 = load %4 space(global) size(4)
ret
}
}
`

func writeTempKernel(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.wk")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestAnalyzeCleanKernelHasNoFindings(t *testing.T) {
	path := writeTempKernel(t, coalescedKernel)
	h := NewHandler()

	diags, err := h.analyze("file://" + path)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestAnalyzeFlagsUncoalescedAccess(t *testing.T) {
	path := writeTempKernel(t, uncoalescedKernel)
	h := NewHandler()

	diags, err := h.analyze("file://" + path)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "W0101")
}

func TestAnalyzeReportsSyntaxError(t *testing.T) {
	path := writeTempKernel(t, "module { garbage")
	h := NewHandler()

	diags, err := h.analyze("file://" + path)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "warplint-parser", *diags[0].Source)
}

func TestTextDocumentDidCloseClearsState(t *testing.T) {
	path := writeTempKernel(t, coalescedKernel)
	h := NewHandler()

	uri := "file://" + path
	_, err := h.analyze(uri)
	require.NoError(t, err)

	resolved, err := uriToPath(uri)
	require.NoError(t, err)

	h.mu.Lock()
	h.content[resolved] = "stale"
	h.mu.Unlock()

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	h.mu.RLock()
	_, ok := h.content[resolved]
	h.mu.RUnlock()
	assert.False(t, ok)
}

func TestURIToPathRoundTrips(t *testing.T) {
	path, err := uriToPath("file:///tmp/example.wk")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/tmp/example.wk"), path)
}
