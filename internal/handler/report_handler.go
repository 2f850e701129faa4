package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/service"
	appErrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/response"
)

// ReportHandler serves the aggregated completion report views.
type ReportHandler struct {
	reports *service.ReportService
	filters *service.FilterService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports *service.ReportService, filters *service.FilterService) *ReportHandler {
	return &ReportHandler{reports: reports, filters: filters}
}

// Quick godoc
// @Summary Build a report from ad-hoc criteria
// @Description Runs the report pipeline without persisting a filter.
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.QuickReportRequest true "Report criteria"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reports/quick [post]
func (h *ReportHandler) Quick(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.QuickReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	h.respond(c, claims.UserID, req.Criteria())
}

// ByFilter godoc
// @Summary Build a report from a saved filter
// @Tags Reports
// @Produce json
// @Param id path string true "Filter ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reports/filters/{id} [get]
func (h *ReportHandler) ByFilter(c *gin.Context) {
	claims := claimsFromContext(c)
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filter id is required"))
		return
	}

	filter, err := h.filters.Get(c.Request.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, claims.UserID, filter.Criteria())
}

// Personal godoc
// @Summary Build the personal completion report for one student
// @Tags Reports
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /users/{id}/report [get]
func (h *ReportHandler) Personal(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}

	student, settings, err := h.reports.BuildPersonal(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	students := []*models.StudentReport{}
	if student != nil {
		students = append(students, student)
	}
	resp := dto.ReportResponse{
		Students:          students,
		DisplayedMetadata: settings.DisplayedMetadata,
		NumericMetadata:   settings.NumericMetadata,
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func (h *ReportHandler) respond(c *gin.Context, viewerID int64, criteria models.ReportCriteria) {
	report, err := h.reports.Build(c.Request.Context(), viewerID, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ReportResponse{
		Students:          report.Students,
		DisplayedMetadata: report.Settings.DisplayedMetadata,
		NumericMetadata:   report.Settings.NumericMetadata,
	}
	if len(criteria.Cohorts) > 0 {
		cohorts, err := h.filters.ExpandCohorts(c.Request.Context(), criteria.Cohorts)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp.Cohorts = cohorts
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
