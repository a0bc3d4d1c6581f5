package ports

import (
	"context"
	"io"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errKind, errMessage string) error
	SaveExtraction(ctx context.Context, id string, ext domain.Extraction, lang string, confidence float64) error
	SaveReport(ctx context.Context, id string, archivedPath string, report domain.Report) error
	ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]*domain.Document, error)
}

// InboxStorage persists uploaded documents into the inbox and reports the
// absolute path the pipeline will later move from.
type InboxStorage interface {
	Save(ctx context.Context, name string, data io.Reader) (string, error)
}

type MessageQueue interface {
	PublishDocumentReceived(ctx context.Context, documentID string) error
	SubscribeDocumentReceived(ctx context.Context, handler func(context.Context, string) error) error
	PublishEscalationResolved(ctx context.Context, outcome domain.EscalationOutcome) error
	SubscribeEscalationResolved(ctx context.Context, handler func(context.Context, domain.EscalationOutcome) error) error
}

// EscalationNotifier pushes a pending decision onto the operator channel.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, req domain.EscalationRequest) error
}

type TextExtractor interface {
	Extract(ctx context.Context, path string) (domain.Extraction, error)
}

type LanguageDetector interface {
	Warmup(ctx context.Context) error
	Detect(text string) (lang string, confidence float64)
}

type ArchiveIndex interface {
	Leaves(ctx context.Context) ([]string, error)
	Tree(ctx context.Context) (domain.FolderNode, error)
}

// RoutingAdvisor is the narrow seam to the external reasoning
// collaborator. Its answer is never trusted as-is; the engine validates
// it against the decision invariants.
type RoutingAdvisor interface {
	Advise(ctx context.Context, text string, candidates []string) (domain.RoutingDecision, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text, lang string) (string, error)
}

// FileMover performs directory creation and file relocation strictly
// confined to the archive root.
type FileMover interface {
	// LeafDir validates rel against containment rules and returns the
	// absolute directory without creating anything.
	LeafDir(rel string) (string, error)
	// EnsureDir is idempotent: an already-existing tree is not an error.
	EnsureDir(ctx context.Context, rel string) (string, error)
	// Move relocates exactly once; a second call with the same source
	// fails with ErrNotFound. Returns the final destination path.
	Move(ctx context.Context, op domain.MoveOperation) (string, error)
}
