package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperdrive/internal/domain"
	"paperdrive/internal/service"
)

// Лимит разбора multipart-формы чуть выше потолка артефакта,
// чтобы превышение размера отвечало 400, а не ошибкой разбора.
const multipartMemory = 110 << 20

type PaperHandler struct {
	papers *service.PaperService
}

func NewPaperHandler(papers *service.PaperService) *PaperHandler {
	return &PaperHandler{papers: papers}
}

type uploadPaperResponse struct {
	Status  string        `json:"status"`
	Paper   *domain.Paper `json:"paper"`
	Message string        `json:"message"`
}

type versionResponse struct {
	Status  string               `json:"status"`
	Version *domain.PaperVersion `json:"version"`
}

type versionListResponse struct {
	PaperID  int64                 `json:"paper_id"`
	Versions []domain.PaperVersion `json:"versions"`
}

type statusRequest struct {
	Status string `json:"status"`
	Size   *int64 `json:"size,omitempty"`
}

func paperIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// readUpload извлекает файл из multipart-формы.
func readUpload(r *http.Request, field string) (string, string, []byte, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", "", nil, err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", "", nil, err
	}
	return header.Filename, header.Header.Get("Content-Type"), content, nil
}

// UploadPaper обрабатывает загрузку нового документа.
func (h *PaperHandler) UploadPaper(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	filename, _, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	paper, err := h.papers.UploadPaper(r.Context(), caller, filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadPaperResponse{
		Status:  "success",
		Paper:   paper,
		Message: "paper uploaded",
	})
}

// UpdatePaper добавляет новую версию документа.
func (h *PaperHandler) UpdatePaper(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	paperID, err := paperIDFromURL(r)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}

	filename, _, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}
	versionTag := r.FormValue("version")

	version, err := h.papers.UpdatePaper(r.Context(), paperID, caller, filename, content, versionTag)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{Status: "success", Version: version})
}

// DeletePaper удаляет документ со всеми версиями.
func (h *PaperHandler) DeletePaper(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	paperID, err := paperIDFromURL(r)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}

	if err := h.papers.DeletePaper(r.Context(), paperID, caller); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "paper deleted"})
}

// ListVersions возвращает историю версий документа.
func (h *PaperHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	paperID, err := paperIDFromURL(r)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}

	versions, err := h.papers.ListVersions(r.Context(), paperID, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if versions == nil {
		versions = []domain.PaperVersion{}
	}

	writeJSON(w, http.StatusOK, versionListResponse{PaperID: paperID, Versions: versions})
}

// CreateStatus регистрирует статус версии документа.
func (h *PaperHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	paperID, err := paperIDFromURL(r)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}
	versionTag := chi.URLParam(r, "version")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	version, err := h.papers.CreateStatus(r.Context(), paperID, versionTag, req.Status, req.Size, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, versionResponse{Status: "success", Version: version})
}

// UpdateStatus меняет статус существующей версии.
func (h *PaperHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	paperID, err := paperIDFromURL(r)
	if err != nil {
		http.Error(w, "Invalid paper ID", http.StatusBadRequest)
		return
	}
	versionTag := chi.URLParam(r, "version")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	version, err := h.papers.UpdateStatus(r.Context(), paperID, versionTag, req.Status, req.Size)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{Status: "success", Version: version})
}
