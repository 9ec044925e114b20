package sitemap

import (
	"encoding/xml"
	"regexp"
	"strings"

	"CatalogLocalizer/internal/domain"
)

const (
	productSitemapMarker = "sitemap_products"
	productPathMarker    = "/products/"
	unknownProductName   = "Unknown Product Name"
)

var (
	trailingDigits = regexp.MustCompile(`\d+$`)
	embeddedDigits = regexp.MustCompile(`-(\d+)(?:-|$)`)
	nameDigits     = regexp.MustCompile(`[-(](\d+)[)-]`)
)

// sitemapIndex models the root <sitemapindex> document.
type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

// urlSet models a product <urlset> document, including the image sitemap
// extension entries that carry product captions.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc    string       `xml:"loc"`
	Images []imageEntry `xml:"http://www.google.com/schemas/sitemap-image/1.1 image"`
	Inner  string       `xml:",innerxml"`
}

type imageEntry struct {
	Loc     string `xml:"loc"`
	Caption string `xml:"caption"`
}

// parseSitemapIndex returns the referenced product sitemap URLs in document
// order.
func parseSitemapIndex(content string) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal([]byte(content), &index); err != nil {
		return nil, err
	}

	var products []string
	for _, ref := range index.Sitemaps {
		loc := strings.TrimSpace(ref.Loc)
		if strings.Contains(loc, productSitemapMarker) {
			products = append(products, loc)
		}
	}
	return products, nil
}

// parseProductSitemap extracts one ProductRecord per qualifying <url> entry.
// Entries yielding no product code are skipped and reported for diagnostics.
func parseProductSitemap(content, brand string) ([]domain.ProductRecord, []string, error) {
	var set urlSet
	if err := xml.Unmarshal([]byte(content), &set); err != nil {
		return nil, nil, err
	}

	var (
		records []domain.ProductRecord
		skipped []string
	)

	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if !strings.Contains(loc, productPathMarker) {
			continue
		}

		var imageURL, caption string
		if len(entry.Images) > 0 {
			imageURL = strings.TrimSpace(entry.Images[0].Loc)
			caption = entry.Images[0].Caption
		}

		code, name := deriveCodeAndName(loc, caption, innerText(entry.Inner), brand)
		if code == "" {
			skipped = append(skipped, loc)
			continue
		}
		if name == "" {
			name = unknownProductName
		}

		records = append(records, domain.ProductRecord{
			Code:       code,
			Name:       name,
			ImageURL:   imageURL,
			ProductURL: loc,
		})
	}

	return records, skipped, nil
}

// deriveCodeAndName tries the extraction methods in fixed order: brand split
// of the image caption, brand split of the entry's full text, digits in the
// URL slug, digits embedded in an already-found name.
func deriveCodeAndName(productURL, caption, fullText, brand string) (string, string) {
	token := brand + " "

	code, name := "", ""
	if caption != "" && strings.Contains(caption, token) {
		code, name = splitBrandText(caption, token)
	}

	if code == "" && strings.Contains(fullText, token) {
		code, name = splitBrandText(fullText, token)
	}

	if code == "" {
		code = codeFromURL(productURL)
	}

	if code == "" && name != "" {
		code = codeFromName(name)
	}

	return code, name
}

// splitBrandText pulls "<code> <name>" out of the segment following the
// first brand token.
func splitBrandText(text, token string) (string, string) {
	parts := strings.Split(text, token)
	if len(parts) < 2 {
		return "", ""
	}

	rest := strings.TrimSpace(parts[1])
	fields := strings.SplitN(rest, " ", 2)

	code := strings.TrimSpace(fields[0])
	name := ""
	if len(fields) > 1 {
		name = strings.TrimSpace(fields[1])
	}
	if code == "" {
		return "", ""
	}
	return code, name
}

func codeFromURL(productURL string) string {
	trimmed := strings.TrimRight(productURL, "/")
	slug := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		slug = trimmed[i+1:]
	}

	if match := trailingDigits.FindString(slug); match != "" {
		return match
	}
	if m := embeddedDigits.FindStringSubmatch(slug); m != nil {
		return m[1]
	}
	return ""
}

func codeFromName(name string) string {
	if m := nameDigits.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// innerText concatenates every character-data node in the fragment, the
// same text an element-tree walk of the entry would produce.
func innerText(raw string) string {
	if raw == "" {
		return ""
	}

	dec := xml.NewDecoder(strings.NewReader("<r>" + raw + "</r>"))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return b.String()
}
