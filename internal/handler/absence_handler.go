package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecolenet/remplacement-api/internal/models"
	"github.com/ecolenet/remplacement-api/internal/service"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/response"
)

type absenceService interface {
	Create(ctx context.Context, req service.CreateAbsenceRequest) (*models.Absence, error)
	Board(ctx context.Context, filter models.AbsenceFilter, today time.Time) (*models.BoardPage, error)
	Coverage(ctx context.Context, absenceID string, today time.Time) (*models.BoardRow, error)
	ExportBoard(ctx context.Context, filter models.AbsenceFilter, today time.Time, format string) ([]byte, string, error)
}

// AbsenceHandler manages the absence board endpoints.
type AbsenceHandler struct {
	service absenceService
}

// NewAbsenceHandler constructs the handler.
func NewAbsenceHandler(service absenceService) *AbsenceHandler {
	return &AbsenceHandler{service: service}
}

func absenceFilter(c *gin.Context) (models.AbsenceFilter, error) {
	filter := models.AbsenceFilter{
		SchoolID: c.Query("school_id"),
		Reason:   c.Query("reason"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	from, ok := dateQuery(c, "from")
	if !ok {
		return filter, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	filter.From = from
	to, ok := dateQuery(c, "to")
	if !ok {
		return filter, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	filter.To = to
	return filter, nil
}

// Board godoc
// @Summary Enriched absence board
// @Tags Absences
// @Produce json
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param school_id query string false "School filter"
// @Param reason query string false "Reason filter"
// @Success 200 {object} response.Envelope
// @Router /absences/board [get]
func (h *AbsenceHandler) Board(c *gin.Context) {
	filter, err := absenceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.service.Board(c.Request.Context(), filter, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, &models.Pagination{
		Page: page.Page, PageSize: page.PageSize, TotalCount: page.Total,
	})
}

// Create godoc
// @Summary Declare an absence
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body service.CreateAbsenceRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) Create(c *gin.Context) {
	var req service.CreateAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid absence payload"))
		return
	}
	absence, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// Coverage godoc
// @Summary Coverage detail for one absence
// @Tags Absences
// @Produce json
// @Param id path string true "Absence id"
// @Success 200 {object} response.Envelope
// @Router /absences/{id}/coverage [get]
func (h *AbsenceHandler) Coverage(c *gin.Context) {
	row, err := h.service.Coverage(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Export godoc
// @Summary Export the board as CSV or PDF
// @Tags Absences
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /absences/board/export [get]
func (h *AbsenceHandler) Export(c *gin.Context) {
	filter, err := absenceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, contentType, err := h.service.ExportBoard(c.Request.Context(), filter, time.Now().UTC(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "replacement-board." + extensionFor(contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

func extensionFor(contentType string) string {
	if contentType == "text/csv" {
		return "csv"
	}
	return "pdf"
}
