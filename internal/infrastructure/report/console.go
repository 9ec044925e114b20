package report

import (
	"fmt"
	"io"
	"strings"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
)

// ConsoleReporter prints the end-of-run processing summary. The summary is
// operator output, not diagnostics, so it goes to stdout where it can be
// piped or captured.
type ConsoleReporter struct {
	out io.Writer
}

var _ ports.SummaryReporter = (*ConsoleReporter)(nil)

// NewConsoleReporter writes summaries to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Report renders the fixed summary block.
func (r *ConsoleReporter) Report(summary domain.RunSummary) error {
	var b strings.Builder

	b.WriteString("\n========== PROCESSING SUMMARY ==========\n")
	fmt.Fprintf(&b, "Total products in sitemap(s): %d\n", summary.TotalDiscovered)
	fmt.Fprintf(&b, "Products matching criteria: %d\n", summary.TotalMatching)
	fmt.Fprintf(&b, "Products processed: %d/%d\n", summary.Processed, summary.Planned)
	fmt.Fprintf(&b, "Successfully processed: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", summary.Failed)

	if summary.Failed > 0 {
		b.WriteString("\nFailed products:\n")
		for _, failed := range summary.FailedProducts {
			fmt.Fprintf(&b, "  - %s\n", failed)
		}
	}

	fmt.Fprintf(&b, "\nProduct data written to %s\n", summary.OutputPath)
	b.WriteString("=======================================\n")

	_, err := io.WriteString(r.out, b.String())
	return err
}
