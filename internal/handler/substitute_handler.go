package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecolenet/remplacement-api/internal/models"
	"github.com/ecolenet/remplacement-api/internal/service"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/response"
)

type substituteService interface {
	List(ctx context.Context, filter models.SubstituteFilter) ([]models.Substitute, int, error)
	Get(ctx context.Context, id string) (*models.Substitute, error)
	Create(ctx context.Context, req service.CreateSubstituteRequest) (*models.Substitute, error)
	Update(ctx context.Context, id string, req service.UpdateSubstituteRequest) (*models.Substitute, error)
	ListRecurring(ctx context.Context, id string) ([]models.RecurringAvailability, error)
	SetRecurring(ctx context.Context, id string, req service.SetRecurringRequest) ([]models.RecurringAvailability, error)
	AddOverride(ctx context.Context, id string, req service.CreateOverrideRequest) (*models.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, substituteID, overrideID string) error
}

type calendarService interface {
	Calendar(ctx context.Context, substituteID string, from, to time.Time) (*models.SubstituteCalendar, error)
}

// SubstituteHandler manages substitute endpoints.
type SubstituteHandler struct {
	service  substituteService
	calendar calendarService
}

// NewSubstituteHandler constructs the handler.
func NewSubstituteHandler(service substituteService, calendar calendarService) *SubstituteHandler {
	return &SubstituteHandler{service: service, calendar: calendar}
}

// List godoc
// @Summary List substitutes
// @Tags Substitutes
// @Produce json
// @Param search query string false "Name or email search"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /substitutes [get]
func (h *SubstituteHandler) List(c *gin.Context) {
	filter := models.SubstituteFilter{Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}

	substitutes, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, substitutes, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Get godoc
// @Summary Fetch one substitute
// @Tags Substitutes
// @Produce json
// @Param id path string true "Substitute id"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id} [get]
func (h *SubstituteHandler) Get(c *gin.Context) {
	substitute, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, substitute, nil)
}

// Create godoc
// @Summary Register a substitute
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param payload body service.CreateSubstituteRequest true "Substitute"
// @Success 201 {object} response.Envelope
// @Router /substitutes [post]
func (h *SubstituteHandler) Create(c *gin.Context) {
	var req service.CreateSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid substitute payload"))
		return
	}
	substitute, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, substitute)
}

// Update godoc
// @Summary Update a substitute profile
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param id path string true "Substitute id"
// @Param payload body service.UpdateSubstituteRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id} [put]
func (h *SubstituteHandler) Update(c *gin.Context) {
	var req service.UpdateSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid substitute payload"))
		return
	}
	substitute, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, substitute, nil)
}

// Calendar godoc
// @Summary Resolved half-day calendar
// @Tags Substitutes
// @Produce json
// @Param id path string true "Substitute id"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id}/calendar [get]
func (h *SubstituteHandler) Calendar(c *gin.Context) {
	from, okFrom := dateQuery(c, "from")
	to, okTo := dateQuery(c, "to")
	if !okFrom || !okTo || from == nil || to == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to must be YYYY-MM-DD"))
		return
	}
	calendar, err := h.calendar.Calendar(c.Request.Context(), c.Param("id"), *from, *to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// ListRecurring godoc
// @Summary List recurring availability periods
// @Tags Substitutes
// @Produce json
// @Param id path string true "Substitute id"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id}/recurring-periods [get]
func (h *SubstituteHandler) ListRecurring(c *gin.Context) {
	periods, err := h.service.ListRecurring(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// SetRecurring godoc
// @Summary Replace recurring availability periods
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param id path string true "Substitute id"
// @Param payload body service.SetRecurringRequest true "Periods"
// @Success 200 {object} response.Envelope
// @Router /substitutes/{id}/recurring-periods [put]
func (h *SubstituteHandler) SetRecurring(c *gin.Context) {
	var req service.SetRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid recurring periods payload"))
		return
	}
	periods, err := h.service.SetRecurring(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// AddOverride godoc
// @Summary Pin one date and period
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param id path string true "Substitute id"
// @Param payload body service.CreateOverrideRequest true "Override"
// @Success 201 {object} response.Envelope
// @Router /substitutes/{id}/overrides [post]
func (h *SubstituteHandler) AddOverride(c *gin.Context) {
	var req service.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid override payload"))
		return
	}
	override, err := h.service.AddOverride(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, override)
}

// DeleteOverride godoc
// @Summary Remove an override
// @Tags Substitutes
// @Param id path string true "Substitute id"
// @Param overrideId path string true "Override id"
// @Success 204
// @Router /substitutes/{id}/overrides/{overrideId} [delete]
func (h *SubstituteHandler) DeleteOverride(c *gin.Context) {
	if err := h.service.DeleteOverride(c.Request.Context(), c.Param("id"), c.Param("overrideId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
