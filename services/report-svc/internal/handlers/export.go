// services/report-svc/internal/handlers/export.go
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"assethub/pkg/apperror"
	"assethub/pkg/audit"
	"assethub/pkg/logger"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/service"
)

// exportRequest запрос на экспорт: report_id существующего отчёта
// либо inline-определение нового. queue=false выполняет генерацию
// синхронно на запросе, ответ блокируется до готовности файла
type exportRequest struct {
	ReportID   string               `json:"report_id,omitempty"`
	Definition *createReportRequest `json:"definition,omitempty"`
	Queue      *bool                `json:"queue,omitempty"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	identity := access.FromContext(r.Context())

	if h.exportLimit != nil && !identity.Anonymous() {
		allowed, err := h.exportLimit.Allow(r.Context(), "export:"+identity.UserID)
		if err != nil {
			logger.Warn("export rate limit check failed", "error", err)
		} else if !allowed {
			writeError(w, apperror.New(apperror.CodeRateLimited, "export rate limit exceeded"))
			return
		}
	}

	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	svcReq := service.ExportRequest{
		ReportID: req.ReportID,
		Inline:   req.Queue != nil && !*req.Queue,
	}
	if req.Definition != nil {
		params := req.Definition.toParams()
		svcReq.Definition = &params
	}

	result, err := h.svc.Export(r.Context(), identity, svcReq)
	if err != nil {
		h.auditLog(r, audit.ActionExport, audit.OutcomeFailure, req.ReportID, err)
		writeError(w, err)
		return
	}

	h.auditLog(r, audit.ActionExport, audit.OutcomeSuccess, result.ReportID, nil)

	status := http.StatusAccepted
	if result.Status.Terminal() || result.Deduplicated {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	identity := access.FromContext(r.Context())
	status, err := h.svc.GetStatus(r.Context(), identity, reportIDParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	reportID := reportIDParam(r)
	identity := access.FromContext(r.Context())

	dl, err := h.svc.Download(r.Context(), identity, reportID)
	if err != nil {
		h.auditLog(r, audit.ActionDownload, audit.OutcomeFailure, reportID, err)
		writeError(w, err)
		return
	}
	defer dl.Content.Close()

	h.auditLog(r, audit.ActionDownload, audit.OutcomeSuccess, reportID, nil)

	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))

	if _, err := io.Copy(w, dl.Content); err != nil {
		logger.Warn("download interrupted", "report_id", reportID, "error", err)
	}
}
