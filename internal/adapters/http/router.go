package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ykudinov/docrouter/internal/config"
	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
	"github.com/ykudinov/docrouter/internal/core/usecase"
	"github.com/ykudinov/docrouter/internal/export"
	"github.com/ykudinov/docrouter/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingestUC *usecase.IngestDocumentUseCase
	repo     ports.DocumentRepository
	index    ports.ArchiveIndex
	queue    ports.MessageQueue
	exporter *export.Service
	metrics  *metrics.HTTPServerMetrics
	cfg      config.Config
}

func NewRouter(
	ingestUC *usecase.IngestDocumentUseCase,
	repo ports.DocumentRepository,
	index ports.ArchiveIndex,
	queue ports.MessageQueue,
	exporter *export.Service,
	m *metrics.HTTPServerMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		ingestUC: ingestUC,
		repo:     repo,
		index:    index,
		queue:    queue,
		exporter: exporter,
		metrics:  m,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/archive/leaves", rt.listLeaves)
	mux.HandleFunc("/v1/archive/tree", rt.archiveTree)
	mux.HandleFunc("/v1/escalations", rt.listEscalations)
	mux.HandleFunc("/v1/escalations/", rt.resolveEscalation)
	mux.HandleFunc("/v1/export/routed", rt.exportRouted)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, time.Duration(rt.cfg.APIQueueWaitMillis)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(r.Context(), fileHeader.Filename, file)
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listLeaves(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	leaves, err := rt.index.Leaves(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaves": leaves})
}

func (rt *Router) archiveTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	tree, err := rt.index.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// listEscalations returns documents parked in awaiting_decision. The
// waiting pipeline state lives in the worker; the database status is the
// cross-process source of truth for the operator console.
func (rt *Router) listEscalations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	docs, err := rt.repo.ListByStatus(r.Context(), domain.StatusAwaitingDecision, 100)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"escalations": docs})
}

func (rt *Router) resolveEscalation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/escalations/")
	requestID, action, found := strings.Cut(rest, "/")
	if !found || action != "resolve" || requestID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown path"})
		return
	}

	var body struct {
		SelectedPath  string `json:"selected_path"`
		SuggestedPath string `json:"suggested_path"`
		Create        bool   `json:"create"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	outcome := domain.EscalationOutcome{
		RequestID:     requestID,
		SelectedPath:  strings.TrimSpace(body.SelectedPath),
		SuggestedPath: strings.TrimSpace(body.SuggestedPath),
		Create:        body.Create,
	}
	if err := outcome.Validate(); err != nil {
		writeError(w, err)
		return
	}

	// the waiting run lives in the worker process; the outcome travels
	// over the queue and is matched there by request id
	if err := rt.queue.PublishEscalationResolved(r.Context(), outcome); err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		kind := "select"
		if outcome.Create {
			kind = "create"
		}
		rt.metrics.RecordResolution(serviceName, kind)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "request_id": requestID})
}

func (rt *Router) exportRouted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	data, err := rt.exporter.ExportRoutedXLSX(r.Context(), 1000)
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="routed-documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
