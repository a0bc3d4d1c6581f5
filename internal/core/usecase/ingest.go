package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo  ports.DocumentRepository
	inbox ports.InboxStorage
	queue ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	inbox ports.InboxStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:  repo,
		inbox: inbox,
		queue: queue,
	}
}

// Upload accepts one PDF into the inbox and queues it for routing.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("only .pdf accepted, got %q", filename))
	}

	id := uuid.NewString()
	inboxName := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	sourcePath, err := uc.inbox.Save(ctx, inboxName, body)
	if err != nil {
		return nil, fmt.Errorf("save to inbox: %w", err)
	}

	doc := &domain.Document{
		ID:           id,
		OriginalName: filename,
		SourcePath:   sourcePath,
		Status:       domain.StatusReceived,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentReceived(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.pdf"
	}
	return base
}
