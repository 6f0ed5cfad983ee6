// Package diagnostics renders the findings produced by internal/uncoalesced,
// internal/bsize, and internal/interproc as structured, source-located
// reports, in the style of a compiler's diagnostic output.
package diagnostics

// Diagnostic codes.
//
// Code ranges:
// W01xx: uncoalesced-access findings
// W02xx: block-size-dependence findings
// W03xx: driver/summary findings
const (
	// W0101: a load/store whose address is unknown (Top) in the thread
	// index, or linear in it (One/NegOne) with an access wider than 4 bytes,
	// while the active-thread-count predicate is Top.
	CodeUncoalescedAccess = "W0101"

	// W0201: a memory access (or shared-memory access-pattern mismatch)
	// whose abstract value depends on the configured block-size axis.
	CodeBlockSizeDependentAccess = "W0201"

	// W0202: a call whose callee summary (or whose own arguments) are
	// block-size dependent.
	CodeBlockSizeDependentCall = "W0202"

	// W0203: a __syncthreads() barrier. Every barrier the block-size
	// analysis reaches is reported; the active-thread-count predicate at the
	// barrier is not examined.
	CodeDivergentSyncThreads = "W0203"
)

// Describe returns a human-readable description of a diagnostic code.
func Describe(code string) string {
	switch code {
	case CodeUncoalescedAccess:
		return "memory access is not coalesced across the thread index"
	case CodeBlockSizeDependentAccess:
		return "memory access depends on the kernel's block-size configuration"
	case CodeBlockSizeDependentCall:
		return "call depends on a block-size-dependent function or argument"
	case CodeDivergentSyncThreads:
		return "__syncthreads() barrier occurrence"
	default:
		return "unknown diagnostic"
	}
}

// Category groups a code by its prefix for summary reporting.
func Category(code string) string {
	switch {
	case len(code) >= 3 && code[:3] == "W01":
		return "uncoalesced access"
	case len(code) >= 3 && code[:3] == "W02":
		return "block-size dependence"
	case len(code) >= 3 && code[:3] == "W03":
		return "driver"
	default:
		return "unknown"
	}
}
