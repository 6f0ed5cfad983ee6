package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"warplint/internal/diagnostics"
)

// ConvertFindings transforms analysis findings into LSP diagnostics for IDE
// display. A Finding with no recorded position (Line <= 0) is placed at the
// start of the document rather than dropped, since the client still needs
// to know about it.
func ConvertFindings(findings []diagnostics.Finding) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(findings))
	for _, f := range findings {
		line := f.Line - 1
		if line < 0 {
			line = 0
		}
		col := f.Column - 1
		if col < 0 {
			col = 0
		}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
			},
			Severity: ptrSeverity(convertSeverity(f.Severity)),
			Source:   ptrString("warplint"),
			Message:  fmt.Sprintf("[%s] %s", f.Code, f.Message),
		})
	}
	return out
}

// ConvertParseError transforms a grammar/participle syntax error into a
// single LSP diagnostic at the document start; the participle error's
// line/column is not carried over (grammar.ParseString already prints a
// caret-style diagnostic to stdout for CLI use).
func ConvertParseError(err error) []protocol.Diagnostic {
	if err == nil {
		return nil
	}
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("warplint-parser"),
		Message:  err.Error(),
	}}
}

func convertSeverity(sev diagnostics.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diagnostics.Error:
		return protocol.DiagnosticSeverityError
	case diagnostics.Warning:
		return protocol.DiagnosticSeverityWarning
	case diagnostics.Note:
		return protocol.DiagnosticSeverityInformation
	case diagnostics.Help:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
