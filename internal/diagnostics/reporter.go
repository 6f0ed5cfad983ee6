package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"warplint/internal/contract"
)

// Severity is the level at which a Finding is reported.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
	Note    Severity = "note"
	Help    Severity = "help"
)

// Finding is one reportable result from an analysis: an uncoalesced
// access, a block-size-dependent access or call, or a __syncthreads()
// barrier, located at the flagged instruction.
type Finding struct {
	Severity Severity
	Code     string
	Function string
	Message  string
	Line     int
	Column   int
	HelpText string
}

// FindingFor builds a Finding at inst's source location with code's stock
// description as the message.
func FindingFor(code string, sev Severity, function string, inst contract.Instruction) Finding {
	return Finding{
		Severity: sev,
		Code:     code,
		Function: function,
		Message:  Describe(code),
		Line:     inst.Line(),
		Column:   inst.Column(),
	}
}

// Reporter formats Findings against a named source, in a Rust-style
// caret-and-color layout, falling back to a plain one-liner when no
// source text (or no recorded position) is available.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter returns a Reporter over source's lines, for findings located
// in filename. An empty source is valid: FormatFinding then falls back to
// the plain one-liner form for every finding.
func NewReporter(filename, source string) *Reporter {
	var lines []string
	if source != "" {
		lines = strings.Split(source, "\n")
	}
	return &Reporter{filename: filename, lines: lines}
}

// FormatFinding renders f as a single diagnostic block.
func (r *Reporter) FormatFinding(f Finding) string {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	levelColor := r.severityColor(f.Severity)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(f.Severity)), f.Code, f.Message))

	if f.Line <= 0 || f.Line > len(r.lines) {
		result.WriteString(fmt.Sprintf("  %s %s, function %s\n", dim("-->"), r.filename, f.Function))
		if f.HelpText != "" {
			result.WriteString(fmt.Sprintf("  %s %s\n", color.New(color.FgGreen).Sprint("help:"), f.HelpText))
		}
		result.WriteString("\n")
		return result.String()
	}

	width := lineNumberWidth(f.Line)
	indent := strings.Repeat(" ", width)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, f.Line, f.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	lineContent := r.lines[f.Line-1]
	result.WriteString(fmt.Sprintf("%s %s %s\n", bold(fmt.Sprintf("%*d", width, f.Line)), dim("│"), lineContent))

	col := f.Column
	if col <= 0 {
		col = 1
	}
	marker := strings.Repeat(" ", col-1) + levelColor("^")
	result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))

	if f.HelpText != "" {
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), color.New(color.FgGreen).Sprint("help:"), f.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

// FormatAll renders every finding in order, concatenated.
func (r *Reporter) FormatAll(findings []Finding) string {
	var result strings.Builder
	for _, f := range findings {
		result.WriteString(r.FormatFinding(f))
	}
	return result.String()
}

func (r *Reporter) severityColor(sev Severity) func(...interface{}) string {
	switch sev {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}
