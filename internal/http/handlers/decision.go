package handlers

import (
	"errors"
	"net/http"

	"github.com/wolfman30/chatbot-decision-core/internal/decision"
	"github.com/wolfman30/chatbot-decision-core/internal/tokenbudget"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// DecisionHandler exposes the live conversation flows.
type DecisionHandler struct {
	engine *decision.Engine
	logger *logging.Logger
}

func NewDecisionHandler(engine *decision.Engine, logger *logging.Logger) *DecisionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DecisionHandler{engine: engine, logger: logger}
}

// EvaluateMessage handles POST /v1/messages/evaluate.
func (h *DecisionHandler) EvaluateMessage(w http.ResponseWriter, r *http.Request) {
	var in decision.MessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.SessionID == "" {
		in.SessionID = r.Header.Get("X-Session-ID")
	}

	out, err := h.engine.Evaluate(r.Context(), in)
	if err != nil {
		if errors.Is(err, decision.ErrEmptyMessage) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("message evaluation failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Fallback handles POST /v1/fallback.
func (h *DecisionHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	var in decision.FailureInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.SessionID == "" {
		in.SessionID = r.Header.Get("X-Session-ID")
	}
	writeJSON(w, http.StatusOK, h.engine.Fallback(r.Context(), in))
}

// AnalyzePrompt handles POST /v1/prompts/analyze.
func (h *DecisionHandler) AnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	var usage tokenbudget.Usage
	if err := decodeJSON(w, r, &usage); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AnalyzePrompt(r.Context(), usage))
}

// Health handles GET /health.
func (h *DecisionHandler) Health(w http.ResponseWriter, r *http.Request) {
	p := h.engine.Profile()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                   "ok",
		"model":                    p.Model(),
		"available_context_tokens": p.AvailableContextTokens(),
		"profile_usable":           p.Usable(),
	})
}
