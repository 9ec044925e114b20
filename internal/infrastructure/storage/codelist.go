package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
)

const codeListTemplate = "ProductCode\n# Add your product codes below, one per line\n"

// CodeListFile reads the operator's allow-list of product codes from a
// line-oriented file. Blank lines and #-prefixed lines are skipped.
type CodeListFile struct {
	path   string
	logger *slog.Logger
}

var _ ports.CodeListSource = (*CodeListFile)(nil)

// NewCodeListFile points the source at path.
func NewCodeListFile(path string, logger *slog.Logger) *CodeListFile {
	return &CodeListFile{path: path, logger: logger}
}

// Load returns the codes in file order. A missing file yields
// domain.ErrNoCodeList so the caller can create a template instead.
func (f *CodeListFile) Load() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", f.path, domain.ErrNoCodeList)
		}
		return nil, fmt.Errorf("open code list: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var codes []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read code list: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}

	f.info("loaded product codes", "path", f.path, "count", len(codes))

	return codes, nil
}

// WriteTemplate creates the starter file the operator fills in.
func (f *CodeListFile) WriteTemplate() error {
	if err := os.WriteFile(f.path, []byte(codeListTemplate), 0o644); err != nil {
		return fmt.Errorf("write code list template: %w", err)
	}
	f.info("created empty code list, add product codes and rerun", "path", f.path)
	return nil
}

func (f *CodeListFile) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}
