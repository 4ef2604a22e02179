package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperdrive/internal/domain"
	"paperdrive/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type documentResponse struct {
	Status   string           `json:"status"`
	Document *domain.Document `json:"document"`
}

// Upload принимает вложение из multipart-формы.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	filename, contentType, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}
	if filename == "" || contentType == "" {
		http.Error(w, "Filename and content type are required", http.StatusBadRequest)
		return
	}

	doc, err := h.documents.Upload(r.Context(), filename, contentType, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentResponse{Status: "success", Document: doc})
}

// Download отдаёт содержимое вложения.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid document ID", http.StatusBadRequest)
		return
	}

	doc, err := h.documents.Download(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Write(doc.Content)
}
