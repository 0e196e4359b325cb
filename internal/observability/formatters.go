// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-synth/internal/assembler"
	"github.com/jonathan/cv-synth/internal/batch"
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTimeline outputs the periods in order with their kind and span
func (p *Printer) PrintTimeline(periods []types.Period, today dates.YearMonth) {
	if len(periods) == 0 {
		return
	}

	var sb strings.Builder
	for _, period := range periods {
		end := "today"
		if period.End != nil {
			end = period.End.String()
		}
		months := period.DurationMonths(today)
		sb.WriteString(fmt.Sprintf("%s – %-7s %-9s %3dm", period.Start, end, period.Kind, months))
		switch {
		case period.Job != nil:
			sb.WriteString(fmt.Sprintf("  %s", period.Job.Level))
			if period.Job.Employer != "" {
				sb.WriteString(" @ " + period.Job.Employer)
			}
		case period.GapKind != "":
			sb.WriteString(fmt.Sprintf("  %s", period.GapKind))
		case period.Label != "":
			sb.WriteString("  " + period.Label)
		}
		sb.WriteString("\n")
	}

	p.printBox("TIMELINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTimelineIssues outputs timeline findings, or a clean bill of health
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintTimelineIssues(issues []types.TimelineIssue) {
	if len(issues) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad("✅ NO TIMELINE ISSUES", boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(issues)))
	for i, issue := range issues {
		sb.WriteString(fmt.Sprintf("%s %s\n", severityMark(issue.Severity), issue.Category))
		sb.WriteString(fmt.Sprintf("  %s\n", issue.Message))
		if issue.SuggestedFix != "" {
			sb.WriteString(fmt.Sprintf("  fix: %s\n", issue.SuggestedFix))
		}
		if i < len(issues)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TIMELINE ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the quality scores and the costliest issues
func (p *Printer) PrintReport(report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	verdict := "REJECTED"
	if report.Passed {
		verdict = "PASSED"
	}
	sb.WriteString(fmt.Sprintf("Overall:      %5.1f / threshold %.1f  %s\n", report.Score.Overall, report.Threshold, verdict))
	sb.WriteString(fmt.Sprintf("Completeness: %5.1f\n", report.Score.Completeness))
	sb.WriteString(fmt.Sprintf("Realism:      %5.1f\n", report.Score.Realism))
	sb.WriteString(fmt.Sprintf("Language:     %5.1f\n", report.Score.Language))
	sb.WriteString(fmt.Sprintf("Achievement:  %5.1f\n", report.Score.Achievement))

	if len(report.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		count := min(len(report.Issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := report.Issues[i]
			sb.WriteString(fmt.Sprintf("  %s %s -%.0f: %s\n", severityMark(issue.Severity), issue.Dimension, issue.Penalty, issue.Message))
		}
		if len(report.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Issues)-maxItemsToShow))
		}
	}

	p.printBox("QUALITY REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRejections outputs why each assembly attempt was discarded
func (p *Printer) PrintRejections(rejections []assembler.Rejection) {
	if len(rejections) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range rejections {
		sb.WriteString(fmt.Sprintf("Attempt %d: %s\n", r.Attempt, r.Stage))
		count := min(len(r.Reasons), 3)
		for j := 0; j < count; j++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", r.Reasons[j]))
		}
		if len(r.Reasons) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Reasons)-3))
		}
		if i < len(rejections)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("REJECTED ATTEMPTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchSummary outputs the counts of a finished batch run
func (p *Printer) PrintBatchSummary(s batch.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:    %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("Accepted: %d\n", s.Accepted))
	sb.WriteString(fmt.Sprintf("Rejected: %d\n", s.Rejected))
	sb.WriteString(fmt.Sprintf("Skipped:  %d\n", s.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:   %d", s.Failed))
	if done := s.Total - s.Skipped; done > 0 {
		sb.WriteString(fmt.Sprintf("\n\nAcceptance rate: %.0f%%", 100*float64(s.Accepted)/float64(done)))
	}

	p.printBox("BATCH SUMMARY", sb.String())
}

func severityMark(s types.Severity) string {
	switch s {
	case types.SeverityError:
		return "✗"
	case types.SeverityWarning:
		return "⚠"
	default:
		return "•"
	}
}

// truncate shortens s to width runes, marking the cut with "..."
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// pad right-pads s with spaces to width runes
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
