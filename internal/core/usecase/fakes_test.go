package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

type statusChange struct {
	id     string
	status domain.DocumentStatus
	kind   string
}

type repoFake struct {
	mu       sync.Mutex
	docs     map[string]*domain.Document
	statuses []statusChange

	savedExtraction *domain.Extraction
	savedLang       string
	savedReport     *domain.Report
	savedDestPath   string

	createErr error
	updateErr error
}

func newRepoFake(docs ...*domain.Document) *repoFake {
	f := &repoFake{docs: make(map[string]*domain.Document)}
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return f
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return doc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errKind, _ string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusChange{id: id, status: status, kind: errKind})
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
	}
	return nil
}

func (f *repoFake) SaveExtraction(_ context.Context, id string, ext domain.Extraction, lang string, confidence float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedExtraction = &ext
	f.savedLang = lang
	if doc, ok := f.docs[id]; ok {
		doc.DetectedLang = lang
		doc.LangConfidence = confidence
	}
	return nil
}

func (f *repoFake) SaveReport(_ context.Context, id string, archivedPath string, report domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedReport = &report
	f.savedDestPath = archivedPath
	if doc, ok := f.docs[id]; ok {
		doc.ArchivedPath = archivedPath
	}
	return nil
}

func (f *repoFake) ListByStatus(_ context.Context, status domain.DocumentStatus, _ int) ([]*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Document
	for _, doc := range f.docs {
		if doc.Status == status {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *repoFake) lastStatus() statusChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return statusChange{}
	}
	return f.statuses[len(f.statuses)-1]
}

func (f *repoFake) sawStatus(status domain.DocumentStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, change := range f.statuses {
		if change.status == status {
			return true
		}
	}
	return false
}

type extractorFake struct {
	ext domain.Extraction
	err error
}

func (f *extractorFake) Extract(context.Context, string) (domain.Extraction, error) {
	return f.ext, f.err
}

type detectorFake struct {
	lang       string
	confidence float64
	warmupErr  error
	warmups    int
}

func (f *detectorFake) Warmup(context.Context) error {
	f.warmups++
	return f.warmupErr
}

func (f *detectorFake) Detect(string) (string, float64) {
	return f.lang, f.confidence
}

type indexFake struct {
	leaves []string
	err    error
}

func (f *indexFake) Leaves(context.Context) ([]string, error) {
	return f.leaves, f.err
}

func (f *indexFake) Tree(context.Context) (domain.FolderNode, error) {
	return domain.FolderNode{}, f.err
}

type advisorFake struct {
	decision domain.RoutingDecision
	err      error
	calls    int
}

func (f *advisorFake) Advise(context.Context, string, []string) (domain.RoutingDecision, error) {
	f.calls++
	return f.decision, f.err
}

type moverFake struct {
	mu       sync.Mutex
	ensured  []string
	moves    []domain.MoveOperation
	moveErr  error
	ensErr   error
	leafErr  error
	moveDest string
}

func (f *moverFake) LeafDir(rel string) (string, error) {
	if f.leafErr != nil {
		return "", f.leafErr
	}
	return path.Join("/archive", rel), nil
}

func (f *moverFake) EnsureDir(_ context.Context, rel string) (string, error) {
	if f.ensErr != nil {
		return "", f.ensErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, rel)
	return path.Join("/archive", rel), nil
}

func (f *moverFake) Move(_ context.Context, op domain.MoveOperation) (string, error) {
	if f.moveErr != nil {
		return "", f.moveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, op)
	if f.moveDest != "" {
		return f.moveDest, nil
	}
	return path.Join(op.DestDir, op.DestName), nil
}

func (f *moverFake) moveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.moves)
}

type notifierFake struct {
	mu       sync.Mutex
	requests []domain.EscalationRequest
	err      error
	onNotify func(domain.EscalationRequest)
}

func (f *notifierFake) NotifyEscalation(_ context.Context, req domain.EscalationRequest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.onNotify != nil {
		f.onNotify(req)
	}
	return nil
}

type summarizerFake struct {
	byLang map[string]string
	err    error
}

func (f *summarizerFake) Summarize(_ context.Context, _ string, lang string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.byLang[lang], nil
}

type inboxFake struct {
	saved map[string][]byte
	err   error
}

func newInboxFake() *inboxFake {
	return &inboxFake{saved: make(map[string][]byte)}
}

func (f *inboxFake) Save(_ context.Context, name string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.saved[name] = body
	return path.Join("/inbox", name), nil
}

type queueFake struct {
	published  []string
	outcomes   []domain.EscalationOutcome
	publishErr error
}

func (f *queueFake) PublishDocumentReceived(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentReceived(context.Context, func(context.Context, string) error) error {
	return nil
}

func (f *queueFake) PublishEscalationResolved(_ context.Context, outcome domain.EscalationOutcome) error {
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *queueFake) SubscribeEscalationResolved(context.Context, func(context.Context, domain.EscalationOutcome) error) error {
	return nil
}
