package dirsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

// Loader reads corpus documents from a local directory. PDF files are text-
// extracted; .txt and .md files are read verbatim. Other files are skipped.
// Extraction is best-effort: an unreadable file is logged and skipped, never
// failing the whole load.
type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", l.dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []domain.Document
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))

		var (
			text       string
			extractErr error
		)
		switch ext {
		case ".pdf":
			text, extractErr = extractPDF(path)
		case ".txt", ".md":
			text, extractErr = readPlainText(path)
		default:
			continue
		}
		if extractErr != nil {
			l.logger.Warn("corpus_file_skipped",
				slog.String("path", path),
				slog.String("error", extractErr.Error()))
			continue
		}

		info, err := entry.Info()
		lastUpdated := ""
		if err == nil {
			lastUpdated = info.ModTime().UTC().Format("2006-01-02")
		}

		docs = append(docs, domain.Document{
			ID:          uuid.NewString(),
			Filename:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Text:        strings.TrimSpace(text),
			Metadata:    []domain.Attribute{{Key: "format", Value: strings.TrimPrefix(ext, ".")}},
			LastUpdated: lastUpdated,
		})
	}
	return docs, nil
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func readPlainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file is not valid utf-8")
	}
	return string(raw), nil
}
