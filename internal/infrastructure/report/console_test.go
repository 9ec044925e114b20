package report

import (
	"strings"
	"testing"

	"CatalogLocalizer/internal/domain"
)

func TestReportWithFailures(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	r := NewConsoleReporter(&out)

	err := r.Report(domain.RunSummary{
		TotalDiscovered: 120,
		TotalMatching:   3,
		Planned:         3,
		Processed:       3,
		Succeeded:       2,
		Failed:          1,
		FailedProducts:  []string{"W40100 - Hex Set (fetch error)"},
		OutputPath:      "products.csv",
	})
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}

	want := "\n========== PROCESSING SUMMARY ==========\n" +
		"Total products in sitemap(s): 120\n" +
		"Products matching criteria: 3\n" +
		"Products processed: 3/3\n" +
		"Successfully processed: 2\n" +
		"Failed: 1\n" +
		"\nFailed products:\n" +
		"  - W40100 - Hex Set (fetch error)\n" +
		"\nProduct data written to products.csv\n" +
		"=======================================\n"
	if out.String() != want {
		t.Fatalf("unexpected summary:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestReportWithoutFailuresOmitsFailedBlock(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	r := NewConsoleReporter(&out)

	err := r.Report(domain.RunSummary{
		TotalDiscovered: 10,
		TotalMatching:   1,
		Planned:         1,
		Processed:       1,
		Succeeded:       1,
		OutputPath:      "products.csv",
	})
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}

	if strings.Contains(out.String(), "Failed products:") {
		t.Fatalf("failed block should be omitted:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Failed: 0\n") {
		t.Fatalf("failed count missing:\n%s", out.String())
	}
}
