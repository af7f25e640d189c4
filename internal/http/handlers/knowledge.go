package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/chatbot-decision-core/internal/knowledge"
	"github.com/wolfman30/chatbot-decision-core/internal/observability/metrics"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// KnowledgeHandler exposes the ingestion path.
type KnowledgeHandler struct {
	classifier *knowledge.Classifier
	ingestor   *knowledge.Ingestor
	source     knowledge.DocumentSource
	metrics    *metrics.DecisionMetrics
	logger     *logging.Logger
}

func NewKnowledgeHandler(classifier *knowledge.Classifier, ingestor *knowledge.Ingestor, m *metrics.DecisionMetrics, logger *logging.Logger) *KnowledgeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &KnowledgeHandler{classifier: classifier, ingestor: ingestor, metrics: m, logger: logger}
}

// WithSource enables Import against a document store.
func (h *KnowledgeHandler) WithSource(src knowledge.DocumentSource) *KnowledgeHandler {
	h.source = src
	return h
}

// CanImport reports whether a document source is configured.
func (h *KnowledgeHandler) CanImport() bool {
	return h != nil && h.source != nil
}

type categorizeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Categorize handles POST /v1/knowledge/categorize.
func (h *KnowledgeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.classifier.Classify(r.Context(), req.Content, req.Title)
	if err != nil {
		var catErr *knowledge.CategorizationError
		if errors.As(err, &catErr) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("categorization failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveCategorization(string(result.Category), string(result.Source))
	writeJSON(w, http.StatusOK, result)
}

// Ingest handles POST /v1/knowledge/chunk. A document without a category is
// classified first.
func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var doc knowledge.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if doc.Category != "" {
		category, ok := knowledge.ParseCategory(string(doc.Category))
		if !ok {
			jsonError(w, "unknown category "+string(doc.Category), http.StatusBadRequest)
			return
		}
		doc.Category = category
	}

	result, err := h.ingestor.Ingest(r.Context(), doc)
	h.writeIngest(w, doc.ID, result, err)
}

type importRequest struct {
	Key string `json:"key"`
}

// Import handles POST /v1/knowledge/import by fetching the keyed document
// from the configured source and ingesting it.
func (h *KnowledgeHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		jsonError(w, "document source not configured", http.StatusServiceUnavailable)
		return
	}
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		jsonError(w, "key is required", http.StatusBadRequest)
		return
	}

	result, err := h.ingestor.IngestFrom(r.Context(), h.source, req.Key)
	h.writeIngest(w, req.Key, result, err)
}

func (h *KnowledgeHandler) writeIngest(w http.ResponseWriter, docID string, result *knowledge.IngestResult, err error) {
	if err != nil {
		var catErr *knowledge.CategorizationError
		if errors.As(err, &catErr) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("knowledge ingestion failed", "document_id", docID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveCategorization(string(result.Category.Category), string(result.Category.Source))
	h.metrics.ObserveChunks(string(result.Category.Category), len(result.Chunks))
	writeJSON(w, http.StatusOK, result)
}
