package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/service"
)

// AuditMiddleware пишет мутирующие запросы в журнал операций после
// обработки. Чтение в журнал не попадает.
func AuditMiddleware(admin *service.AdminService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := "success"
			if ww.Status() >= http.StatusBadRequest {
				status = "failure"
			}

			entry := &domain.AuditLog{
				OperationType: r.Method,
				OperationPath: r.URL.Path,
				Status:        status,
			}
			if id, ok := auth.FromContext(r.Context()); ok {
				entry.UserID = strconv.FormatInt(id.ID, 10)
				entry.Username = id.Username
			}
			if r.RemoteAddr != "" {
				addr := r.RemoteAddr
				entry.IPAddress = &addr
			}

			admin.RecordOperation(r.Context(), entry)
		})
	}
}
