package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ecolenet/remplacement-api/internal/models"
	"github.com/ecolenet/remplacement-api/internal/service"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req service.CreateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, id string) error
}

// AssignmentHandler manages assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// Create godoc
// @Summary Book a substitute
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete godoc
// @Summary Cancel an assignment
// @Tags Assignments
// @Param id path string true "Assignment id"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
