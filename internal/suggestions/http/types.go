package http

import (
	"context"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

// Suggester is the part of the suggestion service the handlers use.
type Suggester interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) (*domain.SuggestionResult, error)
}

// Handler bundles the dependencies for suggestion HTTP endpoints.
type Handler struct {
	svc Suggester
}

func New(svc Suggester) *Handler {
	return &Handler{svc: svc}
}

type suggestReq struct {
	PromptText string   `json:"promptText"`
	Tags       []string `json:"tags"`
}
