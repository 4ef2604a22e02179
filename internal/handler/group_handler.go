package handler

import (
	"net/http"
	"time"

	"paperdrive/internal/service"
)

type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type importResponse struct {
	Status     string    `json:"status"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	Format     string    `json:"format"`
	OperatedBy string    `json:"operated_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// ImportRoster принимает табличный файл со списком групп.
func (h *GroupHandler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	filename, _, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	result, err := h.groups.ImportRoster(r.Context(), caller, filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Status:     "success",
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		Format:     result.Format,
		OperatedBy: result.OperatedBy,
		Timestamp:  time.Now(),
	})
}
