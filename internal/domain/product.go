package domain

import (
	"encoding/json"
	"errors"
)

// FailureSentinel prefixes localization cells of failed products in the
// output file. Downstream consumers grep for it, so the prefix is fixed.
const FailureSentinel = "NOT FOUND"

// ErrPageUnavailable marks a product page that could not be retrieved
// (404 or exhausted retries). The pipeline turns it into an error record
// instead of aborting the run.
var ErrPageUnavailable = errors.New("product page unavailable")

// ErrNoCodeList marks an absent input code-list file.
var ErrNoCodeList = errors.New("product code list file not found")

// ProductRecord is a core entity describing one product discovered in a
// sitemap. Code is the unique key; Name may be a placeholder.
type ProductRecord struct {
	Code       string
	Name       string
	ImageURL   string
	ProductURL string
}

// SpecPair is a single specification row.
type SpecPair struct {
	Key   string
	Value string
}

// SpecList is a specification table keyed by row label. Insertion order is
// document order; setting an existing key overwrites the value but keeps
// the original position.
type SpecList struct {
	order []string
	items map[string]string
}

// NewSpecList builds an empty specification list.
func NewSpecList() *SpecList {
	return &SpecList{items: map[string]string{}}
}

// Set inserts or overwrites a specification pair.
func (l *SpecList) Set(key, value string) {
	if l.items == nil {
		l.items = map[string]string{}
	}
	if _, ok := l.items[key]; !ok {
		l.order = append(l.order, key)
	}
	l.items[key] = value
}

// Get returns the value stored for key.
func (l *SpecList) Get(key string) (string, bool) {
	if l == nil {
		return "", false
	}
	value, ok := l.items[key]
	return value, ok
}

// Len reports the number of stored pairs.
func (l *SpecList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Pairs returns the pairs in insertion order.
func (l *SpecList) Pairs() []SpecPair {
	if l == nil {
		return nil
	}
	pairs := make([]SpecPair, 0, len(l.order))
	for _, key := range l.order {
		pairs = append(pairs, SpecPair{Key: key, Value: l.items[key]})
	}
	return pairs
}

// MarshalJSON renders the list as a JSON object in insertion order.
func (l *SpecList) MarshalJSON() ([]byte, error) {
	if l == nil || len(l.order) == 0 {
		return []byte("{}"), nil
	}

	out := []byte{'{'}
	for i, key := range l.order {
		if i > 0 {
			out = append(out, ',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(l.items[key])
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}

// ExtractedPageInfo holds everything pulled out of one product detail page.
// A missing or unparseable page yields all-empty fields, never an error.
type ExtractedPageInfo struct {
	Description    string
	Specifications *SpecList
	ItemsInSet     []string
	Applications   []string
}

// EmptyPageInfo returns the all-empty default used for unavailable pages.
func EmptyPageInfo() ExtractedPageInfo {
	return ExtractedPageInfo{Specifications: NewSpecList()}
}

// LocalizationStatus classifies the outcome of one localization attempt.
type LocalizationStatus string

const (
	LocalizationOK      LocalizationStatus = "ok"
	LocalizationSkipped LocalizationStatus = "skipped"
	LocalizationFailed  LocalizationStatus = "failed"
)

// LocalizationOutcome is the internal result of the localization step.
// Failed outcomes carry Detail; the FailureSentinel prefix is applied only
// when the record is serialized.
type LocalizationOutcome struct {
	Status LocalizationStatus
	Text   string
	Detail string
}

// Render returns the output-file form of the outcome. Failed outcomes are
// rendered as the FailureSentinel followed by the failure detail.
func (o LocalizationOutcome) Render() string {
	if o.Status == LocalizationFailed {
		return FailureSentinel + " - " + o.Detail
	}
	return o.Text
}

// EnhancedProductRecord is the terminal record written to the output file.
// Exactly one is produced per product entering the pipeline, success or
// failure.
type EnhancedProductRecord struct {
	ProductRecord
	EnglishDescription string
	Localization       LocalizationOutcome
	Detail             ExtractedPageInfo
}

// RunSummary aggregates per-product outcomes for the final report.
type RunSummary struct {
	TotalDiscovered int
	TotalMatching   int
	Planned         int
	Processed       int
	Succeeded       int
	Failed          int
	FailedProducts  []string
	OutputPath      string
}
