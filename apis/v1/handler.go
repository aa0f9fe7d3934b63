// Package v1 serves the conversation loop over HTTP.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/va6996/aifns/agents"
	appcontext "github.com/va6996/aifns/context"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/orm"
	"github.com/va6996/aifns/tools"
	"golang.org/x/sync/semaphore"
)

// CallLister reads the audit log
type CallLister interface {
	ListToolCalls(ctx context.Context, conversationID string) ([]orm.ToolCall, error)
}

type Handler struct {
	conversation agents.Conversation
	registry     *tools.Registry
	audit        CallLister
	sem          *semaphore.Weighted
}

// NewHandler builds the API. audit may be nil; maxConversations bounds
// concurrent chat requests.
func NewHandler(conversation agents.Conversation, registry *tools.Registry, audit CallLister, maxConversations int64) *Handler {
	if maxConversations <= 0 {
		maxConversations = 1
	}
	return &Handler{
		conversation: conversation,
		registry:     registry,
		audit:        audit,
		sem:          semaphore.NewWeighted(maxConversations),
	}
}

// Routes returns the router for every endpoint
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(Logging)

	r.Get("/healthz", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/tools", h.Tools)
		r.Get("/conversations/{id}/calls", h.ToolCalls)
	})
	return r
}

type ChatRequest struct {
	Messages       []llm.Message `json:"messages"`
	ConversationID string        `json:"conversation_id,omitempty"`
}

type ChatResponse struct {
	ConversationID string        `json:"conversation_id"`
	Message        llm.Message   `json:"message"`
	Transcript     []llm.Message `json:"transcript"`
	Turns          int           `json:"turns"`
	Usage          *llm.Usage    `json:"usage,omitempty"`
}

type ChatErrorResponse struct {
	ErrorResponse
	Reason         string        `json:"reason"`
	ConversationID string        `json:"conversation_id"`
	Transcript     []llm.Message `json:"transcript"`
	Turns          int           `json:"turns"`
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		WriteError(w, http.StatusBadRequest, "messages are required")
		return
	}

	if !h.sem.TryAcquire(1) {
		WriteError(w, http.StatusServiceUnavailable, "too many conversations in progress")
		return
	}
	defer h.sem.Release(1)

	ctx := r.Context()
	if req.ConversationID != "" {
		ctx = appcontext.WithConversationID(ctx, req.ConversationID)
	}

	res, err := h.conversation.Run(ctx, req.Messages)
	if err != nil {
		h.writeRunError(w, r, res, err)
		return
	}

	WriteJSON(w, http.StatusOK, ChatResponse{
		ConversationID: res.ConversationID,
		Message:        res.Completion.Message,
		Transcript:     res.Transcript,
		Turns:          res.Turns,
		Usage:          &res.Completion.Usage,
	})
}

func (h *Handler) writeRunError(w http.ResponseWriter, r *http.Request, res *agents.Result, err error) {
	status := http.StatusUnprocessableEntity
	reason := "internal"

	var convErr *agents.Error
	switch {
	case errors.As(err, &convErr) && errors.Is(err, agents.ErrModel):
		status = http.StatusBadGateway
		reason = convErr.Code()
	case errors.As(err, &convErr):
		reason = convErr.Code()
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
		reason = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		reason = "timeout"
	default:
		status = http.StatusInternalServerError
	}
	log.Warnf(r.Context(), "Conversation failed (%s): %v", reason, err)

	body := ChatErrorResponse{
		ErrorResponse: ErrorResponse{Status: "error", Message: err.Error(), Code: status},
		Reason:        reason,
	}
	if res != nil {
		body.ConversationID = res.ConversationID
		body.Transcript = res.Transcript
		body.Turns = res.Turns
	}
	WriteJSON(w, status, body)
}

// Tools handles GET /v1/tools
func (h *Handler) Tools(w http.ResponseWriter, r *http.Request) {
	schemas := h.registry.Schemas()
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"tools":  schemas,
		"count":  len(schemas),
	})
}

// ToolCalls handles GET /v1/conversations/{id}/calls
func (h *Handler) ToolCalls(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		WriteError(w, http.StatusNotFound, "audit log is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	calls, err := h.audit.ListToolCalls(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list tool calls: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"conversation_id": id,
		"calls":           calls,
		"count":           len(calls),
	})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"tools":  h.registry.Len(),
	})
}
