package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer renders run progress and the final report for the operator.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Rejections lists entries that need manual handling. Shown before any
// automated action so corrections can happen in parallel.
func (p *Printer) Rejections(rejected []domain.RejectedEntry) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintln(p.out, headingStyle.Render(fmt.Sprintf("%d numbers require manual processing:", len(rejected))))
	for _, rej := range rejected {
		fmt.Fprintf(p.out, "  %s row %d: %q (%s)\n",
			badStyle.Render("!"), rej.Entry.Row, rej.Entry.Raw, reasonText(rej.Reason))
	}
	fmt.Fprintln(p.out, dimStyle.Render("Add these manually after the automated run completes."))
}

// BatchStart announces the batch about to be confirmed and processed.
func (p *Printer) BatchStart(batch domain.Batch, totalBatches int) {
	fmt.Fprintln(p.out, headingStyle.Render(fmt.Sprintf("Batch %d/%d (%d numbers)", batch.Seq, totalBatches, len(batch.Numbers))))
	for _, num := range batch.Numbers {
		fmt.Fprintf(p.out, "  %s\n", num)
	}
}

// Summary renders the completed report, including every number's fate.
func (p *Printer) Summary(report *domain.RunReport) {
	fmt.Fprintln(p.out, headingStyle.Render("Run summary"))
	fmt.Fprintf(p.out, "  run id:   %s\n", dimStyle.Render(report.RunID))
	fmt.Fprintf(p.out, "  entries:  %d (%d valid, %d rejected)\n",
		report.TotalEntries, report.ValidCount(), len(report.Rejected))
	fmt.Fprintf(p.out, "  batches:  %d\n", report.BatchCount)
	fmt.Fprintf(p.out, "  %s %d   %s %d   %s %d\n",
		okStyle.Render("added"), report.CountOutcome(domain.OutcomeAdded),
		badStyle.Render("failed"), report.CountOutcome(domain.OutcomeFailed),
		warnStyle.Render("skipped"), report.CountOutcome(domain.OutcomeSkipped))

	if report.Halted {
		fmt.Fprintln(p.out, badStyle.Render("Run halted: "+report.HaltReason))
	}

	for _, res := range report.Results {
		if res.Outcome == domain.OutcomeFailed {
			fmt.Fprintf(p.out, "  %s %s (batch %d): %s\n",
				badStyle.Render("failed"), res.Number, res.BatchSeq, res.FailReason)
		}
	}

	if len(report.Rewritten) > 0 {
		fmt.Fprintln(p.out, dimStyle.Render(fmt.Sprintf("%d numbers were rewritten to international format:", len(report.Rewritten))))
		for _, rw := range report.Rewritten {
			fmt.Fprintf(p.out, "  row %d: %q -> %s\n", rw.Entry.Row, rw.Entry.Raw, rw.Canonical)
		}
	}

	if len(report.Rejected) > 0 {
		fmt.Fprintln(p.out, warnStyle.Render("Reminder: process the rejected numbers manually."))
	}
}

func reasonText(reason domain.RejectionReason) string {
	switch reason {
	case domain.ReasonContainsNonDigitCharacters:
		return "contains letters or other non-digit characters"
	case domain.ReasonMissingCountryCode:
		return "no country code and no recognizable local prefix"
	case domain.ReasonMalformedLength:
		return "implausible number of digits"
	case domain.ReasonAmbiguousLocalFormat:
		return "ambiguous local format, refusing to guess"
	default:
		return string(reason)
	}
}
