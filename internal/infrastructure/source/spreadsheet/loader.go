package spreadsheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

// Expected column headers. Matching is case-insensitive and order-independent;
// only content and file_name are required.
const (
	colContent     = "content"
	colFilename    = "file_name"
	colMetadata    = "meta_data"
	colLastUpdated = "last_updated"
)

// Loader reads the ingestion corpus from a tabular file. Supported formats
// are .xlsx (first sheet) and .csv.
type Loader struct {
	path string
	now  func() time.Time
}

func NewLoader(path string) *Loader {
	return &Loader{path: path, now: time.Now}
}

func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx":
		rows, err = readWorkbook(l.path)
	case ".csv":
		rows, err = readCSV(l.path)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "spreadsheet.load",
			fmt.Errorf("unsupported corpus format: %s", filepath.Ext(l.path)))
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", l.path, err)
	}

	return l.rowsToDocuments(rows)
}

func (l *Loader) rowsToDocuments(rows [][]string) ([]domain.Document, error) {
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "spreadsheet.load",
			fmt.Errorf("corpus file is empty"))
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	defaultDate := l.now().UTC().Format("2006-01-02")

	docs := make([]domain.Document, 0, len(rows)-1)
	for _, row := range rows[1:] {
		text := cell(row, cols[colContent])
		filename := cell(row, cols[colFilename])
		if filename == "" {
			continue
		}

		lastUpdated := cell(row, cols[colLastUpdated])
		if lastUpdated == "" {
			lastUpdated = defaultDate
		}

		docs = append(docs, domain.Document{
			ID:          uuid.NewString(),
			Filename:    filename,
			Text:        text,
			Metadata:    ParseAttributes(cell(row, cols[colMetadata])),
			LastUpdated: lastUpdated,
		})
	}
	return docs, nil
}

func readWorkbook(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return wb.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func mapColumns(header []string) (map[string]int, error) {
	cols := map[string]int{
		colContent:     -1,
		colFilename:    -1,
		colMetadata:    -1,
		colLastUpdated: -1,
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, known := cols[key]; known {
			cols[key] = i
		}
	}
	if cols[colContent] < 0 || cols[colFilename] < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "spreadsheet.load",
			fmt.Errorf("corpus header must include %q and %q columns", colContent, colFilename))
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseAttributes decodes the meta_data cell format: "key: value" pairs
// separated by ";". A literal ";" or "\" inside a value is escaped as "\;"
// or "\\", so URLs and prose survive round-trips. Pairs without a colon and
// pairs with an empty key are dropped.
func ParseAttributes(raw string) []domain.Attribute {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var attrs []domain.Attribute
	for _, pair := range splitEscaped(raw, ';') {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		attrs = append(attrs, domain.Attribute{
			Key:   key,
			Value: strings.TrimSpace(value),
		})
	}
	return attrs
}

func splitEscaped(s string, sep byte) []string {
	var (
		parts []string
		b     strings.Builder
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next == sep || next == '\\' {
				b.WriteByte(next)
				i++
				continue
			}
		}
		if c == sep {
			parts = append(parts, b.String())
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	parts = append(parts, b.String())
	return parts
}
