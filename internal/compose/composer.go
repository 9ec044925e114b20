package compose

import (
	"fmt"
	"regexp"
	"strings"

	"CatalogLocalizer/internal/domain"
)

// excludedSpecKeys are identifier rows that repeat the product code; a
// Features list gains nothing from them.
var excludedSpecKeys = map[string]bool{
	"product code": true,
	"sku":          true,
	"upc":          true,
}

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// Composer renders the English marketing description fed to the
// localization step. Output is deterministic for identical inputs.
type Composer struct {
	brand string
}

// NewComposer fixes the brand name used throughout the template.
func NewComposer(brand string) *Composer {
	return &Composer{brand: brand}
}

// Compose builds one product's description from its sitemap record and the
// details scraped off its page. Sections with no content are omitted and
// the result never contains more than one consecutive blank line.
func (c *Composer) Compose(product domain.ProductRecord, detail domain.ExtractedPageInfo) string {
	title := fmt.Sprintf("%s %s - %s", c.brand, product.Code, product.Name)

	intro := fmt.Sprintf("The %s %s %s is a premium quality tool designed for professional use and demanding applications. ",
		c.brand, product.Code, product.Name)
	if detail.Description != "" {
		intro += detail.Description
	} else {
		intro += fmt.Sprintf("Crafted with %s's renowned German engineering, this tool offers exceptional durability, precision, and ergonomic design to ensure comfort during extended use.", c.brand)
	}

	features := []string{"Features:"}
	for _, pair := range detail.Specifications.Pairs() {
		if excludedSpecKeys[strings.ToLower(pair.Key)] {
			continue
		}
		features = append(features, fmt.Sprintf("- %s: %s", pair.Key, pair.Value))
	}
	if len(features) == 1 {
		features = append(features,
			"- Premium German engineering and construction",
			"- Ergonomic design for comfortable use",
			"- Made from high-quality materials for durability",
			fmt.Sprintf("- Part of %s's professional-grade tool lineup", c.brand),
		)
	}

	var applications []string
	if len(detail.Applications) > 0 {
		applications = append(applications, "\nApplications:")
		for _, app := range detail.Applications {
			applications = append(applications, "- "+app)
		}
	}

	var setItems []string
	if len(detail.ItemsInSet) > 0 {
		setItems = append(setItems, "\nThis set includes:")
		for _, item := range detail.ItemsInSet {
			setItems = append(setItems, "- "+item)
		}
	}

	additional := []string{
		"\nAdditional Information:",
		"- Brand: " + c.brand,
		"- Model: " + product.Code,
		"- Made in Germany",
		"- Professional-grade quality",
	}

	closing := fmt.Sprintf("\nWith %s's commitment to excellence and innovation, the %s delivers the reliability and performance that professionals demand. Elevate your work with tools engineered to meet the highest standards.",
		c.brand, product.Name)

	sections := []string{
		title,
		"",
		intro,
		"",
		strings.Join(features, "\n"),
		strings.Join(applications, "\n"),
		strings.Join(setItems, "\n"),
		strings.Join(additional, "\n"),
		"",
		closing,
	}

	return extraBlankLines.ReplaceAllString(strings.Join(sections, "\n"), "\n\n")
}
