package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/service"
	appErrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/response"
)

// FilterHandler exposes saved filter endpoints and the pickers backing the
// filter form.
type FilterHandler struct {
	service *service.FilterService
}

// NewFilterHandler constructs the handler.
func NewFilterHandler(svc *service.FilterService) *FilterHandler {
	return &FilterHandler{service: svc}
}

// List godoc
// @Summary List own saved filters
// @Tags Filters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /filters [get]
func (h *FilterHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	filters, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filters, nil)
}

// Create godoc
// @Summary Create a saved filter
// @Tags Filters
// @Accept json
// @Produce json
// @Param payload body dto.FilterRequest true "Filter payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /filters [post]
func (h *FilterHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload"))
		return
	}
	filter, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, filter)
}

// Get godoc
// @Summary Get a saved filter
// @Tags Filters
// @Produce json
// @Param id path string true "Filter ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /filters/{id} [get]
func (h *FilterHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	filter, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filter, nil)
}

// Update godoc
// @Summary Update a saved filter
// @Tags Filters
// @Accept json
// @Produce json
// @Param id path string true "Filter ID"
// @Param payload body dto.FilterRequest true "Filter payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /filters/{id} [put]
func (h *FilterHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload"))
		return
	}
	filter, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filter, nil)
}

// Delete godoc
// @Summary Delete a saved filter
// @Tags Filters
// @Param id path string true "Filter ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /filters/{id} [delete]
func (h *FilterHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duplicate godoc
// @Summary Duplicate a saved filter
// @Tags Filters
// @Produce json
// @Param id path string true "Filter ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /filters/{id}/duplicate [post]
func (h *FilterHandler) Duplicate(c *gin.Context) {
	claims := claimsFromContext(c)
	filter, err := h.service.Duplicate(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, filter)
}

// SearchUsers godoc
// @Summary Search users for the filter form
// @Tags Filters
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /filters/search/users [get]
func (h *FilterHandler) SearchUsers(c *gin.Context) {
	h.search(c, h.service.SearchUsers)
}

// SearchCohorts godoc
// @Summary Search cohorts for the filter form
// @Tags Filters
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /filters/search/cohorts [get]
func (h *FilterHandler) SearchCohorts(c *gin.Context) {
	h.search(c, h.service.SearchCohorts)
}

// SearchCourses godoc
// @Summary Search courses for the filter form
// @Tags Filters
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /filters/search/courses [get]
func (h *FilterHandler) SearchCourses(c *gin.Context) {
	h.search(c, h.service.SearchCourses)
}

type searchFunc func(ctx context.Context, term string, limit int) ([]models.SearchResult, error)

func (h *FilterHandler) search(c *gin.Context, fn searchFunc) {
	term := c.Query("q")
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "q is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := fn(c.Request.Context(), term, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
