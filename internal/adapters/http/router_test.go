package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ykudinov/docrouter/internal/config"
	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/usecase"
	"github.com/ykudinov/docrouter/internal/export"
)

type fakeDocumentRepo struct {
	awaiting []*domain.Document
}

func (f *fakeDocumentRepo) Create(context.Context, *domain.Document) error { return nil }
func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if id != "doc-1" {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return &domain.Document{
		ID:           "doc-1",
		OriginalName: "invoice.pdf",
		SourcePath:   "/inbox/doc-1_invoice.pdf",
		Status:       domain.StatusReceived,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}
func (f *fakeDocumentRepo) UpdateStatus(context.Context, string, domain.DocumentStatus, string, string) error {
	return nil
}
func (f *fakeDocumentRepo) SaveExtraction(context.Context, string, domain.Extraction, string, float64) error {
	return nil
}
func (f *fakeDocumentRepo) SaveReport(context.Context, string, string, domain.Report) error {
	return nil
}
func (f *fakeDocumentRepo) ListByStatus(context.Context, domain.DocumentStatus, int) ([]*domain.Document, error) {
	return f.awaiting, nil
}

type fakeInbox struct{}

func (f fakeInbox) Save(_ context.Context, name string, data io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, data)
	return "/inbox/" + name, nil
}

type fakeArchiveIndex struct{}

func (f fakeArchiveIndex) Leaves(context.Context) ([]string, error) {
	return []string{"finanzen/2026/rechnungen/offen"}, nil
}
func (f fakeArchiveIndex) Tree(context.Context) (domain.FolderNode, error) {
	return domain.FolderNode{Name: "archive", Children: []domain.FolderNode{{Name: "finanzen", PathRel: "finanzen"}}}, nil
}

type fakeQueue struct {
	published []string
	outcomes  []domain.EscalationOutcome
}

func (f *fakeQueue) PublishDocumentReceived(_ context.Context, documentID string) error {
	f.published = append(f.published, documentID)
	return nil
}
func (f *fakeQueue) SubscribeDocumentReceived(context.Context, func(context.Context, string) error) error {
	return nil
}
func (f *fakeQueue) PublishEscalationResolved(_ context.Context, outcome domain.EscalationOutcome) error {
	f.outcomes = append(f.outcomes, outcome)
	return nil
}
func (f *fakeQueue) SubscribeEscalationResolved(context.Context, func(context.Context, domain.EscalationOutcome) error) error {
	return nil
}

func newTestHandler(cfg config.Config) (http.Handler, *fakeQueue) {
	repo := &fakeDocumentRepo{}
	queue := &fakeQueue{}
	ingestUC := usecase.NewIngestDocumentUseCase(repo, fakeInbox{}, queue)
	router := NewRouter(ingestUC, repo, fakeArchiveIndex{}, queue, export.NewService(repo, nil), nil, cfg)
	return router.Handler(), queue
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadDocumentAccepted(t *testing.T) {
	handler, queue := newTestHandler(config.Config{})

	body, contentType := multipartBody(t, "invoice.pdf", "%PDF-1.7")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var doc domain.Document
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.Status != domain.StatusReceived || doc.OriginalName != "invoice.pdf" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(queue.published))
	}
}

func TestUploadDocumentRejectsNonPDF(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	body, contentType := multipartBody(t, "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-pdf upload, got %d", res.Code)
	}
}

func TestGetDocumentByID(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", res.Code)
	}
}

func TestListArchiveLeaves(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/archive/leaves", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		Leaves []string `json:"leaves"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Leaves) != 1 || payload.Leaves[0] != "finanzen/2026/rechnungen/offen" {
		t.Fatalf("unexpected leaves %v", payload.Leaves)
	}
}

func TestResolveEscalationPublishesOutcome(t *testing.T) {
	handler, queue := newTestHandler(config.Config{})

	payload := strings.NewReader(`{"selected_path":"finanzen/2026/rechnungen/offen"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/escalations/req-1/resolve", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if len(queue.outcomes) != 1 {
		t.Fatalf("expected one published outcome, got %d", len(queue.outcomes))
	}
	outcome := queue.outcomes[0]
	if outcome.RequestID != "req-1" || outcome.SelectedPath != "finanzen/2026/rechnungen/offen" || outcome.Create {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestResolveEscalationRejectsIncoherentBody(t *testing.T) {
	handler, queue := newTestHandler(config.Config{})

	tests := []struct {
		name string
		body string
	}{
		{"both paths", `{"selected_path":"a/b/c/d","suggested_path":"e/f/g/h"}`},
		{"create without suggestion", `{"create":true}`},
		{"neither path", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/escalations/req-1/resolve", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", res.Code)
			}
		})
	}
	if len(queue.outcomes) != 0 {
		t.Fatalf("invalid outcomes must not be published, got %d", len(queue.outcomes))
	}
}

func TestExportRoutedReturnsWorkbook(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/export/routed", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", got)
	}
	if res.Body.Len() == 0 {
		t.Fatal("expected workbook bytes")
	}
}
