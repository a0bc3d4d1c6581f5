package usecase

import (
	"github.com/ykudinov/docrouter/internal/core/domain"
)

// AssembleReport combines the run results into the canonical report
// shape. Pure aggregation; missing inputs are a programming error, not a
// runtime condition.
func AssembleReport(
	doc *domain.Document,
	ext domain.Extraction,
	decision domain.RoutingDecision,
	summaries domain.Summaries,
) domain.Report {
	ruPreview, dePreview := "", ""
	switch doc.DetectedLang {
	case "de":
		dePreview = domain.ShortPreview(ext.Text, domain.PreviewLimit)
	default:
		ruPreview = domain.ShortPreview(ext.Text, domain.PreviewLimit)
	}

	return domain.Report{
		Status: "routed",
		File: domain.ReportFile{
			OriginalName: doc.OriginalName,
			Pages:        ext.Pages,
			SizeBytes:    ext.SizeBytes,
			DetectedLang: doc.DetectedLang,
			UsedOCR:      ext.Origin == domain.OriginOptical,
		},
		Routing: domain.ReportRouting{
			Matched:        decision.Matched,
			SelectedPath:   decision.DestinationLeaf(),
			Confidence:     decision.Confidence,
			NeedsNewFolder: decision.NeedsNewFolder,
			Reason:         decision.Reason,
		},
		Summaries:      summaries,
		ContentPreview: domain.ContentPreview{RUShort: ruPreview, DEShort: dePreview},
	}
}
