package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

// runOCR rewrites the source file in place with an embedded text layer.
// Non-idempotent: the original scan-only file is gone afterwards, so a
// retry of this step is never issued automatically.
func (e *Extractor) runOCR(ctx context.Context, path string) error {
	slog.Info("ocr fallback start", "path", path, "languages", e.cfg.OCRLanguages)

	if e.cfg.OCRTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.OCRTimeout)
		defer cancel()
	}

	args := []string{
		"--force-ocr",
		"--language", e.cfg.OCRLanguages,
		"--output-type", "pdf",
		path, path,
	}
	_, stderr, err := e.runner.Run(ctx, e.cfg.OCRBinary, args...)
	if err != nil {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			return domain.WrapError(domain.ErrOCR, "run ocrmypdf", err)
		}
		return domain.WrapError(domain.ErrOCR, "run ocrmypdf", fmt.Errorf("%w: %s", err, detail))
	}
	return nil
}
