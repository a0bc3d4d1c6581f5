package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
)

// Service produces XLSX audit sheets of routed documents for operators.
type Service struct {
	repo   ports.DocumentRepository
	logger *slog.Logger
}

func NewService(repo ports.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportRoutedXLSX returns an XLSX workbook (as bytes) listing routed
// documents, newest first, capped at limit.
func (s *Service) ExportRoutedXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	docs, err := s.repo.ListByStatus(ctx, domain.StatusRouted, limit)
	if err != nil {
		return nil, fmt.Errorf("query routed documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Routed"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Routed Date",
		"Original Name",
		"Archived Path",
		"Language",
		"Pages",
		"Size (bytes)",
		"Used OCR",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, doc := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !doc.UpdatedAt.IsZero() {
			write(1, doc.UpdatedAt.UTC().Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, doc.OriginalName)
		write(3, doc.ArchivedPath)
		write(4, doc.DetectedLang)
		write(5, doc.Pages)
		write(6, doc.SizeBytes)
		write(7, doc.TextOrigin == domain.OriginOptical)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 36)
	_ = f.SetColWidth(sheet, "C", "C", 60)
	_ = f.SetColWidth(sheet, "D", "D", 10)
	_ = f.SetColWidth(sheet, "E", "F", 14)
	_ = f.SetColWidth(sheet, "G", "G", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("exported routed documents",
		"count", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
