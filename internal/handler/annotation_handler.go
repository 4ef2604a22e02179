package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperdrive/internal/domain"
	"paperdrive/internal/service"
)

type AnnotationHandler struct {
	annotations *service.AnnotationService
}

func NewAnnotationHandler(annotations *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations}
}

type createAnnotationRequest struct {
	PaperID     int64           `json:"paper_id"`
	ParagraphID *string         `json:"paragraph_id,omitempty"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Content     string          `json:"content"`
}

type annotationResponse struct {
	Status     string             `json:"status"`
	Annotation *domain.Annotation `json:"annotation"`
}

// Create сохраняет аннотацию к документу.
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a := &domain.Annotation{
		PaperID:     req.PaperID,
		ParagraphID: req.ParagraphID,
		Coordinates: req.Coordinates,
		Content:     req.Content,
	}
	created, err := h.annotations.Create(r.Context(), caller, a)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, annotationResponse{Status: "success", Annotation: created})
}

// ListByPaper возвращает аннотации документа.
func (h *AnnotationHandler) ListByPaper(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	paperID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}

	items, err := h.annotations.ListByPaper(r.Context(), caller, paperID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Annotation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paper_id":    paperID,
		"annotations": items,
	})
}
