package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"paperdrive/internal/domain"
	"paperdrive/internal/service"
)

type AdminHandler struct {
	templates *service.TemplateService
	admin     *service.AdminService
	log       *zap.Logger
}

func NewAdminHandler(templates *service.TemplateService, admin *service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{templates: templates, admin: admin, log: log}
}

type templateResponse struct {
	Status   string           `json:"status"`
	Template *domain.Template `json:"template"`
}

type countResponse struct {
	Total int `json:"total"`
}

// UploadTemplate сохраняет новый шаблон.
func (h *AdminHandler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	filename, contentType, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}
	templateID := r.FormValue("template_id")

	t, err := h.templates.Upload(r.Context(), caller, templateID, filename, contentType, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, templateResponse{Status: "success", Template: t})
}

// ReplaceTemplate заменяет артефакт существующего шаблона.
func (h *AdminHandler) ReplaceTemplate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	filename, contentType, content, err := readUpload(r, "file")
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	t, err := h.templates.Replace(r.Context(), caller, templateID, filename, contentType, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, templateResponse{Status: "success", Template: t})
}

// DeleteTemplate удаляет шаблон.
func (h *AdminHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	if err := h.templates.Remove(r.Context(), caller, templateID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "template deleted"})
}

// DownloadTemplate отдаёт артефакт шаблона потоком.
func (h *AdminHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	t, rc, err := h.templates.Download(r.Context(), templateID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	contentType := t.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Filename))

	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("failed to stream template",
			zap.String("template_id", templateID),
			zap.Error(err))
	}
}

// DashboardStats возвращает сводку для панели администратора.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	stats, err := h.admin.Dashboard(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// AuditLogs возвращает страницу журнала операций.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	logs, err := h.admin.AuditLogs(r.Context(), caller, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// Count обслуживает все счётчики /admin/stats/...
func (h *AdminHandler) Count(kind service.CountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		total, err := h.admin.Count(r.Context(), caller, kind)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, countResponse{Total: total})
	}
}
