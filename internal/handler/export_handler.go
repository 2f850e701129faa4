package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/service"
	appErrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/response"
)

type directExporter interface {
	Export(ctx context.Context, viewerID int64, criteria models.ReportCriteria, format models.ExportFormat) (*service.DirectExport, error)
}

type exportJobManager interface {
	CreateJob(ctx context.Context, actorID int64, criteria models.ReportCriteria, format models.ExportFormat) (*models.ExportJob, error)
	GetStatus(ctx context.Context, id string, actorID int64, role models.UserRole) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler serves direct downloads and the background export job
// lifecycle.
type ExportHandler struct {
	exports directExporter
	jobs    exportJobManager
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports directExporter, jobs exportJobManager) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs}
}

// Direct godoc
// @Summary Export a report as a direct download
// @Description Builds the report and streams the rendered file. Supports csv and xlsx.
// @Tags Exports
// @Accept json
// @Produce octet-stream
// @Param type query string true "Export format (csv or xlsx)"
// @Param payload body dto.QuickReportRequest true "Report criteria"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Direct(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.QuickReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	format := models.ExportFormat(c.Query("type"))

	result, err := h.exports.Export(c.Request.Context(), claims.UserID, req.Criteria(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// CreateJob godoc
// @Summary Queue a background export
// @Description Persists an export job and enqueues it. pdf renders only here.
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportJobRequest true "Export criteria and format"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.ExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), claims.UserID, req.Criteria(), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, jobResponse(job))
}

// JobStatus godoc
// @Summary Get background export status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	job, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobResponse(job), nil)
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	result, err := h.jobs.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(result.Format), result.File, nil)
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func jobResponse(job *models.ExportJob) dto.ExportJobResponse {
	resp := dto.ExportJobResponse{
		ID:     job.ID,
		Status: job.Status,
		Format: job.Format,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}
