package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecolenet/remplacement-api/internal/models"
	"github.com/ecolenet/remplacement-api/internal/service"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/response"
)

type schoolService interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error)
	Get(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, req service.CreateSchoolRequest) (*models.School, error)
	UpdateDeadline(ctx context.Context, id string, req service.UpdateDeadlineRequest) error
	AddVacation(ctx context.Context, schoolID string, req service.CreateVacationRequest) (*models.SchoolVacation, error)
}

// SchoolHandler manages school endpoints.
type SchoolHandler struct {
	service schoolService
}

// NewSchoolHandler constructs the handler.
func NewSchoolHandler(service schoolService) *SchoolHandler {
	return &SchoolHandler{service: service}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Param search query string false "Name or city search"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	filter := models.SchoolFilter{Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}

	schools, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Get godoc
// @Summary Fetch one school
// @Tags Schools
// @Produce json
// @Param id path string true "School id"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	school, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Create godoc
// @Summary Register a school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body service.CreateSchoolRequest true "School"
// @Success 201 {object} response.Envelope
// @Router /schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req service.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid school payload"))
		return
	}
	school, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// UpdateDeadline godoc
// @Summary Set or clear the replacement deadline
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School id"
// @Param payload body service.UpdateDeadlineRequest true "Deadline"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/deadline [put]
func (h *SchoolHandler) UpdateDeadline(c *gin.Context) {
	var req service.UpdateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid deadline payload"))
		return
	}
	if err := h.service.UpdateDeadline(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// AddVacation godoc
// @Summary Declare a holiday window
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School id"
// @Param payload body service.CreateVacationRequest true "Holiday window"
// @Success 201 {object} response.Envelope
// @Router /schools/{id}/vacations [post]
func (h *SchoolHandler) AddVacation(c *gin.Context) {
	var req service.CreateVacationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vacation payload"))
		return
	}
	vacation, err := h.service.AddVacation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vacation)
}
