// services/report-svc/internal/handlers/reports.go
package handlers

import (
	"net/http"
	"strconv"

	"assethub/pkg/apperror"
	"assethub/pkg/audit"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/repository"
)

// createReportRequest тело запроса на создание отчёта
type createReportRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        string              `json:"type"`
	Format      string              `json:"format"`
	Columns     []domain.ColumnSpec `json:"columns"`
	Filters     []domain.Filter     `json:"filters,omitempty"`
	Sorting     *domain.Sorting     `json:"sorting,omitempty"`
	Grouping    string              `json:"grouping,omitempty"`
	IsPublic    bool                `json:"is_public,omitempty"`
}

func (req *createReportRequest) toParams() repository.CreateParams {
	return repository.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Type:        domain.ReportType(req.Type),
		Format:      domain.Format(req.Format),
		Columns:     req.Columns,
		Filters:     req.Filters,
		Sorting:     req.Sorting,
		Grouping:    req.Grouping,
		IsPublic:    req.IsPublic,
	}
}

func (h *Handler) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity := access.FromContext(r.Context())
	report, err := h.svc.CreateReport(r.Context(), identity, req.toParams())
	if err != nil {
		h.auditLog(r, audit.ActionCreate, audit.OutcomeFailure, "", err)
		writeError(w, err)
		return
	}

	h.auditLog(r, audit.ActionCreate, audit.OutcomeSuccess, report.ID, nil)
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	identity := access.FromContext(r.Context())
	report, err := h.svc.GetReport(r.Context(), identity, reportIDParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	params, err := listParamsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	identity := access.FromContext(r.Context())
	result, err := h.svc.ListReports(r.Context(), identity, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func listParamsFromQuery(r *http.Request) (repository.ListParams, error) {
	q := r.URL.Query()
	params := repository.ListParams{
		Type:         domain.ReportType(q.Get("type")),
		Status:       domain.Status(q.Get("status")),
		Format:       domain.Format(q.Get("format")),
		NameContains: q.Get("q"),
		OrderBy:      q.Get("order_by"),
		Desc:         q.Get("order") == "desc",
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return params, apperror.NewWithField(apperror.CodeInvalidPagination, "limit must be an integer", "limit")
		}
		params.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return params, apperror.NewWithField(apperror.CodeInvalidPagination, "offset must be an integer", "offset")
		}
		params.Offset = offset
	}
	return params, nil
}

// updateReportRequest частичное обновление, отсутствующие поля не меняются
type updateReportRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Format      *string             `json:"format,omitempty"`
	Columns     []domain.ColumnSpec `json:"columns,omitempty"`
	Filters     []domain.Filter     `json:"filters,omitempty"`
	Sorting     *domain.Sorting     `json:"sorting,omitempty"`
	IsPublic    *bool               `json:"is_public,omitempty"`
}

func (h *Handler) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	var req updateReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := repository.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Columns:     req.Columns,
		Filters:     req.Filters,
		Sorting:     req.Sorting,
		IsPublic:    req.IsPublic,
	}
	if req.Format != nil {
		format := domain.Format(*req.Format)
		params.Format = &format
	}

	identity := access.FromContext(r.Context())
	report, err := h.svc.UpdateReport(r.Context(), identity, reportIDParam(r), params)
	if err != nil {
		h.auditLog(r, audit.ActionUpdate, audit.OutcomeFailure, reportIDParam(r), err)
		writeError(w, err)
		return
	}

	h.auditLog(r, audit.ActionUpdate, audit.OutcomeSuccess, report.ID, nil)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID := reportIDParam(r)
	identity := access.FromContext(r.Context())

	if err := h.svc.DeleteReport(r.Context(), identity, reportID); err != nil {
		h.auditLog(r, audit.ActionDelete, audit.OutcomeFailure, reportID, err)
		writeError(w, err)
		return
	}

	h.auditLog(r, audit.ActionDelete, audit.OutcomeSuccess, reportID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	identity := access.FromContext(r.Context())
	stats, err := h.svc.Stats(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
