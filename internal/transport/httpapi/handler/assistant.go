package handler

import (
	"context"
	"net/http"

	"github.com/budgetly/backend/internal/module/assistant"
)

// AssistantService answers free-form questions about the owner's debts
type AssistantService interface {
	Ask(ctx context.Context, ownerID int64, question string) (*assistant.Answer, error)
}

// AssistantHandler handles assistant HTTP requests
type AssistantHandler struct {
	assistant AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(svc AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: svc}
}

// AskRequest is the body of POST /assistant/ask
type AskRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /assistant/ask
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := h.assistant.Ask(r.Context(), ownerID, req.Question)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, answer)
}
