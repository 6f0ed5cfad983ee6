package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warplint/internal/diagnostics"
)

func TestFormatFindingWithSourceIncludesCaret(t *testing.T) {
	source := "fn kernel() {\n  load %0, %1\n  ret\n}\n"
	r := diagnostics.NewReporter("kernel.wk", source)

	out := r.FormatFinding(diagnostics.Finding{
		Severity: diagnostics.Warning,
		Code:     diagnostics.CodeUncoalescedAccess,
		Function: "kernel",
		Message:  diagnostics.Describe(diagnostics.CodeUncoalescedAccess),
		Line:     2,
		Column:   3,
	})

	assert.Contains(t, out, "W0101")
	assert.Contains(t, out, "kernel.wk:2:3")
	assert.Contains(t, out, "load %0, %1")
}

func TestFormatFindingWithoutPositionFallsBackToPlainForm(t *testing.T) {
	r := diagnostics.NewReporter("kernel.wk", "")

	out := r.FormatFinding(diagnostics.Finding{
		Severity: diagnostics.Warning,
		Code:     diagnostics.CodeBlockSizeDependentAccess,
		Function: "kernel",
		Message:  diagnostics.Describe(diagnostics.CodeBlockSizeDependentAccess),
	})

	assert.Contains(t, out, "W0201")
	assert.Contains(t, out, "function kernel")
}

func TestDescribeUnknownCode(t *testing.T) {
	assert.Equal(t, "unknown diagnostic", diagnostics.Describe("W9999"))
}

func TestCategoryGroupsByPrefix(t *testing.T) {
	assert.Equal(t, "uncoalesced access", diagnostics.Category(diagnostics.CodeUncoalescedAccess))
	assert.Equal(t, "block-size dependence", diagnostics.Category(diagnostics.CodeBlockSizeDependentAccess))
}
