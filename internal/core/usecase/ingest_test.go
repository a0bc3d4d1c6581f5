package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

func TestUpload_AcceptsPDF(t *testing.T) {
	repo := newRepoFake()
	inbox := newInboxFake()
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, inbox, queue)

	doc, err := uc.Upload(context.Background(), "Счёт за март.PDF", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.ID == "" {
		t.Fatal("document must get an id")
	}
	if doc.Status != domain.StatusReceived {
		t.Fatalf("status = %s, want received", doc.Status)
	}
	if doc.OriginalName != "Счёт за март.PDF" {
		t.Fatalf("original name must be preserved verbatim, got %q", doc.OriginalName)
	}
	if !strings.HasPrefix(doc.SourcePath, "/inbox/"+doc.ID+"_") {
		t.Fatalf("source path %q must embed the id", doc.SourcePath)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected one ingestion event for %s, got %v", doc.ID, queue.published)
	}
	if len(inbox.saved) != 1 {
		t.Fatalf("expected one saved file, got %d", len(inbox.saved))
	}
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	uc := NewIngestDocumentUseCase(newRepoFake(), newInboxFake(), &queueFake{})

	for _, name := range []string{"notes.txt", "archive.zip", "scan.jpeg", "noextension"} {
		if _, err := uc.Upload(context.Background(), name, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple.pdf", "simple.pdf"},
		{"with space.pdf", "with_space.pdf"},
		{"Счёт.pdf", "____.pdf"},
		{"../../etc/passwd.pdf", "passwd.pdf"},
		{"", "document.pdf"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
