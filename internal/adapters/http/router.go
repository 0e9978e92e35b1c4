package httpadapter

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
	"github.com/crelogic/lease-abstractor/internal/observability/metrics"
)

const (
	maxUploadBytes = int64(256 << 20)
	xlsxMimeType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	service  string
	tenants  ports.TenantStore
	docs     ports.DocumentStore
	ingestor ports.LeaseIngestor
	reader   ports.AbstractReader
	exporter ports.AbstractExporter
	queue    ports.WorkQueue
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewRouter(
	service string,
	tenants ports.TenantStore,
	docs ports.DocumentStore,
	ingestor ports.LeaseIngestor,
	reader ports.AbstractReader,
	exporter ports.AbstractExporter,
	queue ports.WorkQueue,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		service:  service,
		tenants:  tenants,
		docs:     docs,
		ingestor: ingestor,
		reader:   reader,
		exporter: exporter,
		queue:    queue,
		metrics:  httpMetrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/tenants", rt.tenantsCollection)
	mux.HandleFunc("/v1/tenants/", rt.tenantSubresource)
	mux.HandleFunc("/v1/documents/", rt.documentSubresource)
	mux.HandleFunc("/v1/export/abstract/", rt.exportAbstract)
	mux.HandleFunc("/v1/export/rent-roll/", rt.exportRentRoll)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) tenantsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createTenant(w, r)
	case http.MethodGet:
		rt.listTenants(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) createTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		SuiteNumber  string `json:"suiteNumber"`
		PropertyName string `json:"propertyName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	now := rt.now()
	tenant := &domain.Tenant{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		SuiteNumber:  strings.TrimSpace(req.SuiteNumber),
		PropertyName: strings.TrimSpace(req.PropertyName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := rt.tenants.CreateTenant(r.Context(), tenant); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (rt *Router) listTenants(w http.ResponseWriter, r *http.Request) {
	property := strings.TrimSpace(r.URL.Query().Get("property"))

	var (
		tenants []domain.Tenant
		err     error
	)
	if property != "" {
		tenants, err = rt.tenants.ListTenantsByProperty(r.Context(), property)
	} else {
		tenants, err = rt.tenants.ListTenants(r.Context())
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// tenantSubresource dispatches /v1/tenants/{id} and its nested resources.
func (rt *Router) tenantSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/tenants/")
	tenantID, sub, _ := strings.Cut(rest, "/")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant id is required"})
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		rt.getTenant(w, r, tenantID)
	case sub == "documents" && r.Method == http.MethodPost:
		rt.uploadDocuments(w, r, tenantID)
	case sub == "documents" && r.Method == http.MethodGet:
		rt.listDocuments(w, r, tenantID)
	case sub == "abstract" && r.Method == http.MethodGet:
		rt.getAbstractView(w, r, tenantID)
	case sub == "process" && r.Method == http.MethodPost:
		rt.triggerProcessing(w, r, tenantID)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getTenant(w http.ResponseWriter, r *http.Request, tenantID string) {
	tenant, err := rt.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// uploadDocuments accepts one original lease or a batch of amendments under
// the multipart field "files". Files are ordered as sent; order determines
// the amendment sequence.
func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request, tenantID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]ports.DocumentUpload, 0, len(fileHeaders))
	closers := make([]func() error, 0, len(fileHeaders))
	defer func() {
		for _, close := range closers {
			_ = close()
		}
	}()
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file"})
			return
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, ports.DocumentUpload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Body:     file,
		})
	}

	docs, err := rt.ingestor.Upload(r.Context(), tenantID, uploads)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUploadedDocuments(rt.service, len(docs))
	}
	writeJSON(w, http.StatusAccepted, docs)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request, tenantID string) {
	docs, err := rt.docs.ListDocuments(r.Context(), tenantID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) getAbstractView(w http.ResponseWriter, r *http.Request, tenantID string) {
	view, err := rt.reader.GetAbstractView(r.Context(), tenantID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) triggerProcessing(w http.ResponseWriter, r *http.Request, tenantID string) {
	if _, err := rt.tenants.GetTenant(r.Context(), tenantID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.queue.PublishTenantQueued(r.Context(), tenantID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "tenant_id": tenantID})
}

// documentSubresource dispatches /v1/documents/{id} and {id}/reset.
func (rt *Router) documentSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	documentID, sub, _ := strings.Cut(rest, "/")
	if documentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		rt.getDocument(w, r, documentID)
	case sub == "reset" && r.Method == http.MethodPost:
		rt.resetDocument(w, r, documentID)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := rt.docs.GetDocument(r.Context(), documentID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// resetDocument is the operator retry: an errored document returns to pending
// and the tenant is re-queued so the chain resumes from it.
func (rt *Router) resetDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := rt.docs.GetDocument(r.Context(), documentID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.docs.ResetDocument(r.Context(), documentID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.queue.PublishTenantQueued(r.Context(), doc.TenantID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "document_id": documentID})
}

func (rt *Router) exportAbstract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	tenantID := strings.TrimPrefix(r.URL.Path, "/v1/export/abstract/")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant id is required"})
		return
	}

	data, filename, err := rt.exporter.ExportAbstract(r.Context(), tenantID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.service, "abstract")
	}
	writeWorkbook(w, data, filename)
}

func (rt *Router) exportRentRoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	property, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/v1/export/rent-roll/"))
	if err != nil || property == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "property name is required"})
		return
	}

	data, filename, err := rt.exporter.ExportRentRoll(r.Context(), property)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.service, "rent_roll")
	}
	writeWorkbook(w, data, filename)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeWorkbook(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
