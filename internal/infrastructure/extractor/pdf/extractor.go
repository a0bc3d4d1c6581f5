// Package pdf implements tiered text extraction: the native PDF text
// layer first, then an ocrmypdf fallback that rewrites the source file
// in place with an embedded, searchable text layer.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

type Config struct {
	// OCRBinary is the ocrmypdf executable. Empty disables the fallback.
	OCRBinary string
	// OCRLanguages is the tesseract language pack hint, e.g. "deu+eng+rus".
	OCRLanguages string
	// MinNativeChars is the meaningful-content threshold below which the
	// native pass is considered empty.
	MinNativeChars int
	// OCRTimeout bounds a single ocrmypdf run. Zero means no limit.
	OCRTimeout time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
}

func NewExtractor(cfg Config, runner Runner) *Extractor {
	if cfg.MinNativeChars <= 0 {
		cfg.MinNativeChars = 1
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// Extract runs the tiered extraction. The OCR fallback is an
// at-most-once, non-idempotent side effect on the source file; a failure
// partway through is surfaced and never retried here.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtraction, "stat source", err)
	}

	text, pages, err := readNative(path)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrExtraction, "native extraction", err)
	}

	result := domain.Extraction{
		Text:      text,
		Origin:    domain.OriginNative,
		Pages:     pages,
		SizeBytes: info.Size(),
	}
	if e.meaningful(text) {
		slog.Info("extracted native text layer", "path", path, "pages", pages, "chars", len(text))
		return result, nil
	}

	if e.cfg.OCRBinary == "" || e.cfg.OCRLanguages == "" {
		return domain.Extraction{}, domain.WrapError(domain.ErrOCR, "ocr fallback",
			fmt.Errorf("%s has no text layer and ocr is disabled", path))
	}

	if err := e.runOCR(ctx, path); err != nil {
		return domain.Extraction{}, err
	}

	text, pages, err = readNative(path)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrOCR, "read rewritten file", err)
	}
	info, err = os.Stat(path)
	if err != nil {
		return domain.Extraction{}, domain.WrapError(domain.ErrOCR, "stat rewritten file", err)
	}

	slog.Info("extracted via ocr fallback", "path", path, "pages", pages, "chars", len(text))
	return domain.Extraction{
		Text:      text,
		Origin:    domain.OriginOptical,
		Pages:     pages,
		SizeBytes: info.Size(),
	}, nil
}

func (e *Extractor) meaningful(text string) bool {
	return len(strings.TrimSpace(text)) >= e.cfg.MinNativeChars
}

// readNative pulls the already-encoded text layer without OCR.
func readNative(path string) (text string, pages int, err error) {
	defer func() {
		// the pdf parser panics on some malformed files
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages = reader.NumPage()
	var parts []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, content)
	}
	return strings.Trim(strings.Join(parts, "\n"), "\n"), pages, nil
}
