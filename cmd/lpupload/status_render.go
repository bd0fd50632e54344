package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"lpupload/internal/upload"
)

// statusKind drives both the bracketed label and the colour of a line.
// statusNote lines are never coloured.
type statusKind int

const (
	statusNote statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// renderStatusLine formats one doctor check as "  Label:   [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	status := "[" + statusKindLabel(kind) + "]"
	if message != "" {
		status += " " + message
	}
	return paint(fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status), kind, colorize)
}

func paint(line string, kind statusKind, colorize bool) string {
	color := statusKindColor(kind)
	if !colorize || color == "" {
		return line
	}
	return color + line + ansiReset
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ""
	}
}

// outcomeKind maps a per-file upload outcome onto the line colour used by the
// progress output.
func outcomeKind(outcome upload.Outcome) statusKind {
	switch outcome {
	case upload.OutcomeUploaded, upload.OutcomeUploadedWithSignature:
		return statusOK
	case upload.OutcomeFailed:
		return statusError
	default:
		return statusNote
	}
}

// runSummaryLine is the closing line of an upload run. interrupted marks a
// run whose context ended before every file was handled.
func runSummaryLine(report *upload.Report, interrupted bool) (string, statusKind) {
	switch {
	case interrupted:
		return fmt.Sprintf("Interrupted after %d file(s): %s", len(report.Results), report.Summary()), statusWarn
	case report.DryRun:
		return "Dry run complete: " + report.Summary(), statusNote
	case report.HasFailures():
		return "Done with failures: " + report.Summary(), statusWarn
	default:
		return "Done! All files uploaded (or attempted) successfully. " + report.Summary(), statusNote
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := strings.TrimSpace(title)
	rule := strings.Repeat("=", len(line))
	if colorize {
		line = ansiBold + line + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
