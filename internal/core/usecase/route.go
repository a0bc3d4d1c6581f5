package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
)

// RouteDocumentUseCase runs the whole routing pipeline for one document:
// extract, detect language, decide destination (escalating to a human
// when the automated decision is not authoritative), move the file, and
// assemble the report. One document per run; no state is shared between
// concurrent runs except the read-only archive index snapshot.
type RouteDocumentUseCase struct {
	repo        ports.DocumentRepository
	extractor   ports.TextExtractor
	detector    ports.LanguageDetector
	index       ports.ArchiveIndex
	engine      *RoutingEngine
	escalations *EscalationCoordinator
	mover       ports.FileMover
	summarizer  ports.Summarizer
}

func NewRouteDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	detector ports.LanguageDetector,
	index ports.ArchiveIndex,
	engine *RoutingEngine,
	escalations *EscalationCoordinator,
	mover ports.FileMover,
	summarizer ports.Summarizer,
) *RouteDocumentUseCase {
	return &RouteDocumentUseCase{
		repo:        repo,
		extractor:   extractor,
		detector:    detector,
		index:       index,
		engine:      engine,
		escalations: escalations,
		mover:       mover,
		summarizer:  summarizer,
	}
}

func (uc *RouteDocumentUseCase) RouteByID(ctx context.Context, documentID string) (domain.Report, error) {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, "", ""); err != nil {
		return domain.Report{}, fmt.Errorf("set status=processing: %w", err)
	}

	report, err := uc.routePipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return domain.Report{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.Report{}, err
	}

	slog.Info("document routed",
		"document_id", documentID,
		"selected_path", report.Routing.SelectedPath,
		"matched", report.Routing.Matched,
		"used_ocr", report.File.UsedOCR,
	)
	return report, nil
}

func (uc *RouteDocumentUseCase) routePipeline(ctx context.Context, documentID string) (domain.Report, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("fetch document by id: %w", err)
	}

	// extraction, index enumeration and detector warm-up are independent
	// read-only steps and may overlap
	var (
		ext    domain.Extraction
		leaves []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		ext, err = uc.extractor.Extract(groupCtx, doc.SourcePath)
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		leaves, err = uc.index.Leaves(groupCtx)
		if err != nil {
			return fmt.Errorf("enumerate archive leaves: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := uc.detector.Warmup(groupCtx); err != nil {
			return fmt.Errorf("warm up language detector: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return domain.Report{}, err
	}

	lang, confidence := uc.detector.Detect(ext.Text)
	if err := uc.repo.SaveExtraction(ctx, doc.ID, ext, lang, confidence); err != nil {
		return domain.Report{}, fmt.Errorf("save extraction: %w", err)
	}
	doc.DetectedLang = lang
	doc.LangConfidence = confidence

	decision, autoApply, err := uc.engine.Decide(ctx, ext.Text, leaves)
	if err != nil {
		return domain.Report{}, err
	}

	if !autoApply {
		decision, err = uc.escalate(ctx, doc, ext, leaves, decision)
		if err != nil {
			return domain.Report{}, err
		}
	}

	destDir, err := uc.prepareDestination(ctx, decision)
	if err != nil {
		return domain.Report{}, err
	}

	destPath, err := uc.mover.Move(ctx, domain.MoveOperation{
		SourcePath: doc.SourcePath,
		DestDir:    destDir,
		DestName:   destName(time.Now().UTC(), doc.OriginalName),
	})
	if err != nil {
		return domain.Report{}, fmt.Errorf("move document: %w", err)
	}

	// the move has committed; the report must reflect the new location
	// even if the run is cancelled from here on
	persistCtx := context.WithoutCancel(ctx)

	summaries := uc.summarize(persistCtx, ext.Text)
	report := AssembleReport(doc, ext, decision, summaries)

	if err := uc.repo.SaveReport(persistCtx, doc.ID, destPath, report); err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}
	if err := uc.repo.UpdateStatus(persistCtx, doc.ID, domain.StatusRouted, "", ""); err != nil {
		return domain.Report{}, fmt.Errorf("set status=routed: %w", err)
	}
	return report, nil
}

// escalate suspends the run for a human decision and folds the operator
// outcome back into a routing decision.
func (uc *RouteDocumentUseCase) escalate(
	ctx context.Context,
	doc *domain.Document,
	ext domain.Extraction,
	leaves []string,
	decision domain.RoutingDecision,
) (domain.RoutingDecision, error) {
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusAwaitingDecision, "", ""); err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("set status=awaiting_decision: %w", err)
	}

	outcome, err := uc.escalations.Await(ctx, domain.EscalationRequest{
		RequestID:     uuid.NewString(),
		DocumentID:    doc.ID,
		DocumentKey:   doc.SourcePath,
		Candidates:    leaves,
		SuggestedPath: decision.SuggestedPath,
		PreviewText:   domain.ShortPreview(ext.Text, domain.PreviewLimit),
	})
	if err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("await operator decision: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, "", ""); err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("set status=processing: %w", err)
	}

	if outcome.Create {
		decision.Matched = false
		decision.SelectedPath = ""
		decision.NeedsNewFolder = true
		decision.SuggestedPath = outcome.SuggestedPath
	} else {
		decision.Matched = true
		decision.SelectedPath = outcome.SelectedPath
		decision.NeedsNewFolder = false
		decision.SuggestedPath = ""
	}
	return decision, nil
}

func (uc *RouteDocumentUseCase) prepareDestination(ctx context.Context, decision domain.RoutingDecision) (string, error) {
	if decision.NeedsNewFolder {
		destDir, err := uc.mover.EnsureDir(ctx, decision.SuggestedPath)
		if err != nil {
			return "", fmt.Errorf("create new leaf: %w", err)
		}
		return destDir, nil
	}
	destDir, err := uc.mover.LeafDir(decision.SelectedPath)
	if err != nil {
		return "", fmt.Errorf("resolve leaf: %w", err)
	}
	return destDir, nil
}

// summarize is best effort: a failed summary degrades the report, it
// never un-routes a moved document.
func (uc *RouteDocumentUseCase) summarize(ctx context.Context, text string) domain.Summaries {
	if uc.summarizer == nil || text == "" {
		return domain.Summaries{}
	}

	var summaries domain.Summaries
	for _, lang := range []string{"ru", "de"} {
		summary, err := uc.summarizer.Summarize(ctx, text, lang)
		if err != nil {
			slog.Warn("summary failed", "lang", lang, "error", err)
			continue
		}
		if lang == "ru" {
			summaries.RU = summary
		} else {
			summaries.DE = summary
		}
	}
	return summaries
}

func (uc *RouteDocumentUseCase) markFailed(ctx context.Context, documentID string, routeErr error) error {
	if routeErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(context.WithoutCancel(ctx), documentID, domain.StatusFailed, domain.ErrorKind(routeErr), routeErr.Error())
}

func destName(now time.Time, originalName string) string {
	base := sanitizeFilename(originalName)
	return now.Format("2006-01-02") + "__" + base
}
