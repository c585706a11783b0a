package observability

import (
	"fmt"
	"io"
	"strings"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// OutreachSummary is the printable view of one finished outreach batch.
type OutreachSummary struct {
	BatchID       string
	JobTitle      string
	CompanyName   string
	Success       bool
	ContactsFound int
	EmailsDrafted int
	ErrorMessage  string
	Drafts        []DraftLine
}

// DraftLine is one contact row in an OutreachSummary.
type DraftLine struct {
	Name    string
	Title   string
	Email   string // already masked
	Subject string // empty when drafting was skipped
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintOutreachSummary outputs the result of an outreach run.
func (p *Printer) PrintOutreachSummary(summary *OutreachSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	if summary.JobTitle != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", summary.JobTitle))
	}
	if summary.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", summary.CompanyName))
	}
	if summary.BatchID != "" {
		sb.WriteString(fmt.Sprintf("Batch:    %s\n", summary.BatchID))
	}

	if !summary.Success {
		sb.WriteString("Status:   FAILED\n")
		sb.WriteString(fmt.Sprintf("Error:    %s\n", summary.ErrorMessage))
		p.printBox("OUTREACH RESULT", strings.TrimSuffix(sb.String(), "\n"))
		return
	}

	sb.WriteString("Status:   completed\n")
	sb.WriteString(fmt.Sprintf("Contacts: %d   Emails drafted: %d\n", summary.ContactsFound, summary.EmailsDrafted))

	if len(summary.Drafts) > 0 {
		sb.WriteString("\n")
		count := min(len(summary.Drafts), maxItemsToShow)
		for i := 0; i < count; i++ {
			d := summary.Drafts[i]
			sb.WriteString(fmt.Sprintf("#%d  %s", i+1, d.Name))
			if d.Title != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", d.Title))
			}
			sb.WriteString("\n")
			if d.Email != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", d.Email))
			}
			if d.Subject != "" {
				sb.WriteString(fmt.Sprintf("    Subject: %s\n", d.Subject))
			} else {
				sb.WriteString("    (no draft)\n")
			}
		}
		if len(summary.Drafts) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.Drafts)-maxItemsToShow))
		}
	}

	p.printBox("OUTREACH RESULT", strings.TrimSuffix(sb.String(), "\n"))
}
