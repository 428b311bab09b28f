// services/report-svc/internal/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"assethub/pkg/apperror"
	"assethub/pkg/audit"
	"assethub/pkg/logger"
	"assethub/pkg/metrics"
	"assethub/pkg/passhash"
	"assethub/pkg/ratelimit"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/service"
)

// Handler HTTP-обработчики сервиса отчётов
type Handler struct {
	svc         *service.ReportService
	audit       audit.Logger
	exportLimit ratelimit.Limiter
	serviceName string
}

// Options зависимости обработчиков
type Options struct {
	Audit       audit.Logger
	ExportLimit ratelimit.Limiter
	ServiceName string
}

// NewHandler создаёт обработчики
func NewHandler(svc *service.ReportService, opts Options) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "report-svc"
	}
	return &Handler{
		svc:         svc,
		audit:       opts.Audit,
		exportLimit: opts.ExportLimit,
		serviceName: opts.ServiceName,
	}
}

// Router собирает маршруты сервиса
func (h *Handler) Router(jwt *passhash.JWTManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(access.Middleware(jwt))

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Post("/", h.handleCreateReport)
		r.Get("/", h.handleListReports)
		r.Post("/export", h.handleExport)
		r.Get("/stats", h.handleStats)

		r.Route("/{reportID}", func(r chi.Router) {
			r.Get("/", h.handleGetReport)
			r.Put("/", h.handleUpdateReport)
			r.Delete("/", h.handleDeleteReport)
			r.Get("/status", h.handleStatus)
			r.Get("/download", h.handleDownload)
		})
	})

	return r
}

// metricsMiddleware записывает HTTP метрики по шаблону маршрута,
// а не по сырому пути, чтобы не раздувать кардинальность label
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := metrics.Get()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.RecordHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(started))
	})
}

// errorResponse тело ошибки API
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Warn("failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(err, apperror.CodeInternal, "internal error")
	}

	resp := errorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Field:   appErr.Field,
	}
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}
	writeJSON(w, appErr.HTTPStatus(), resp)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid request body")
	}
	return nil
}

// auditLog пишет аудит-событие, ошибки записи только логируются
func (h *Handler) auditLog(r *http.Request, action audit.Action, outcome audit.Outcome, reportID string, opErr error) {
	if h.audit == nil {
		return
	}

	identity := access.FromContext(r.Context())
	entry := audit.NewEntry().
		Service(h.serviceName).
		Method(r.Method + " " + r.URL.Path).
		Action(action).
		Outcome(outcome).
		Resource("report", reportID).
		Client(clientIP(r), r.UserAgent()).
		RequestID(chimw.GetReqID(r.Context()))
	if identity != nil {
		entry = entry.User(identity.UserID, identity.Username)
	}
	if opErr != nil {
		entry = entry.Error(string(apperror.Code(opErr)), opErr.Error())
	}

	if err := h.audit.Log(r.Context(), entry.Build()); err != nil {
		logger.Warn("failed to write audit entry", "error", err)
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.svc.Health(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           info.Version,
		"uptime":            info.Uptime.String(),
		"reports_generated": info.ReportsGenerated,
		"queue_depth":       info.QueueDepth,
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	info := h.svc.Health(r.Context())
	if !info.DatabaseOK {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func reportIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "reportID"))
}
