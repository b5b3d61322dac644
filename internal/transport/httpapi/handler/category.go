package handler

import (
	"context"
	"net/http"

	"github.com/budgetly/backend/internal/platform/category"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
)

// CategoryService lists the categories visible to an owner
type CategoryService interface {
	List(ctx context.Context, ownerID int64, categoryType *category.Type) ([]*category.Category, error)
}

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categories CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CategoryResponse represents a category
type CategoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Global bool   `json:"global"`
}

// CategoriesListResponse represents the response for listing categories
type CategoriesListResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// ListCategories handles GET /categories?type=income|expense
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var filter *category.Type
	if v := r.URL.Query().Get("type"); v != "" {
		t := category.Type(v)
		if !t.IsValid() {
			respondWithAppError(w, apperrors.Validation("type must be income or expense"))
			return
		}
		filter = &t
	}

	categories, err := h.categories.List(r.Context(), ownerID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	resp := CategoriesListResponse{Categories: make([]CategoryResponse, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, CategoryResponse{
			ID:     c.ID,
			Name:   c.Name,
			Type:   string(c.Type),
			Global: c.OwnerID == nil,
		})
	}
	respondWithJSON(w, http.StatusOK, resp)
}
