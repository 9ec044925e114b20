package page

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
)

// Selector chains are ordered most-specific first; the first match wins.
// They cover the storefront themes seen in the wild.
var (
	descriptionSelectors = []string{
		".product-single__description",
		".product__description",
		".product-description",
		".description",
		`[itemprop="description"]`,
		".product-detail",
	}

	specSelectors = []string{
		".product-single__specs-table",
		".specs-table",
		".product-specs",
		".specifications",
		"table.specs",
		`[itemprop="additionalProperty"]`,
	}

	setItemSelectors = []string{
		".product-single__set-items",
		".set-items",
		".product-set",
		".package-contents",
		".included-items",
	}

	generalInfoSelector = ".product-info, .product-details, .product-information, .product-data"
)

// Extractor pulls structured product details out of product page HTML.
type Extractor struct {
	intentKeywords []string
	appKeywords    []string
	logger         *slog.Logger
}

var _ ports.PageExtractor = (*Extractor)(nil)

// NewExtractor wires the heuristic keyword lists used to spot application
// notes in descriptions and specification rows.
func NewExtractor(intentKeywords, applicationKeywords []string, logger *slog.Logger) *Extractor {
	return &Extractor{
		intentKeywords: intentKeywords,
		appKeywords:    applicationKeywords,
		logger:         logger,
	}
}

// Extract parses one product page. Empty or unparseable input degrades to
// all-empty fields; extraction never fails the product.
func (e *Extractor) Extract(html string) domain.ExtractedPageInfo {
	info := domain.EmptyPageInfo()
	if strings.TrimSpace(html) == "" {
		return info
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.debug("cannot parse product page", "error", err)
		return info
	}

	e.extractDescription(doc, &info)
	e.extractSpecifications(doc, &info)
	e.extractSetItems(doc, &info)
	e.applyGeneralFallback(doc, &info)

	e.debug("page parsed",
		"has_description", info.Description != "",
		"specs", info.Specifications.Len(),
		"set_items", len(info.ItemsInSet),
		"applications", len(info.Applications))

	return info
}

func (e *Extractor) extractDescription(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	for _, selector := range descriptionSelectors {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}

		text := node.Text()
		info.Description = strings.TrimSpace(text)
		e.debug("description matched", "selector", selector)

		if containsAny(strings.ToLower(text), e.intentKeywords) {
			info.Applications = append(info.Applications, text)
		}
		return
	}
}

func (e *Extractor) extractSpecifications(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	for _, selector := range specSelectors {
		tables := doc.Find(selector)
		if tables.Length() == 0 {
			continue
		}

		e.debug("specifications matched", "selector", selector)
		tables.Each(func(_ int, table *goquery.Selection) {
			table.Find("tr").Each(func(_ int, row *goquery.Selection) {
				cells := row.Find("td")
				if cells.Length() < 2 {
					return
				}

				key := strings.TrimSpace(cells.Eq(0).Text())
				value := strings.TrimSpace(cells.Eq(1).Text())
				info.Specifications.Set(key, value)

				if containsAny(strings.ToLower(key), e.appKeywords) {
					info.Applications = append(info.Applications, key+": "+value)
				}
			})
		})
		break
	}

	if info.Specifications.Len() == 0 {
		e.extractDefinitionLists(doc, info)
	}

	if info.Specifications.Len() == 0 {
		e.extractStructuredData(doc, info)
	}
}

// extractDefinitionLists pairs each <dt> with its positional <dd>; specs are
// often published as definition lists instead of tables.
func (e *Extractor) extractDefinitionLists(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")

		n := terms.Length()
		if defs.Length() < n {
			n = defs.Length()
		}
		for i := 0; i < n; i++ {
			key := strings.TrimSpace(terms.Eq(i).Text())
			value := strings.TrimSpace(defs.Eq(i).Text())
			info.Specifications.Set(key, value)
		}
	})
}

// extractStructuredData reads JSON-LD blocks as a last resort. Malformed
// blocks are skipped, not fatal.
func (e *Extractor) extractStructuredData(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		var payload map[string]any
		if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
			e.debug("skipping malformed JSON-LD block", "error", err)
			return
		}

		if desc, ok := payload["description"].(string); ok && info.Description == "" {
			info.Description = desc
		}

		props, ok := payload["additionalProperty"].([]any)
		if !ok {
			return
		}
		for _, raw := range props {
			prop, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := prop["name"].(string)
			if name == "" {
				continue
			}
			value, ok := prop["value"]
			if !ok {
				continue
			}
			info.Specifications.Set(name, fmt.Sprint(value))
		}
	})
}

func (e *Extractor) extractSetItems(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	for _, selector := range setItemSelectors {
		containers := doc.Find(selector)
		if containers.Length() == 0 {
			continue
		}

		e.debug("set items matched", "selector", selector)
		containers.First().Find(".set-item, .item").Each(func(_ int, item *goquery.Selection) {
			name := item.Find(".set-item__name, .item-name, .name").First()
			if name.Length() == 0 {
				return
			}
			info.ItemsInSet = append(info.ItemsInSet, strings.TrimSpace(name.Text()))
		})
		return
	}
}

// applyGeneralFallback grabs whatever text a generic product-information
// section holds when the targeted probes all came up empty.
func (e *Extractor) applyGeneralFallback(doc *goquery.Document, info *domain.ExtractedPageInfo) {
	if info.Description != "" || info.Specifications.Len() > 0 {
		return
	}

	doc.Find(generalInfoSelector).EachWithBreak(func(_ int, section *goquery.Selection) bool {
		text := strings.TrimSpace(section.Text())
		if text == "" {
			return true
		}
		info.Description = text
		return false
	})
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
