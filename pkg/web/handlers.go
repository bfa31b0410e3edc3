// Package web provides HTTP handlers and REST API endpoints for workflow
// authoring.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/services"
)

type APIHandlers struct {
	workflowService   *services.Workflow
	stepService       *services.Step
	transitionService *services.Transition
	validationService *services.Validation
	transferService   *services.Transfer
	validator         *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	stepService *services.Step,
	transitionService *services.Transition,
	validationService *services.Validation,
	transferService *services.Transfer,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		stepService:       stepService,
		transitionService: transitionService,
		validationService: validationService,
		transferService:   transferService,
		validator:         validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest parses and validates query parameters for listing workflows.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if activeOnlyStr := c.Query("active_only"); activeOnlyStr != "" {
		activeOnly, err := strconv.ParseBool(activeOnlyStr)
		if err != nil {
			return nil, err
		}

		req.ActiveOnly = activeOnly
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	if includeGraphStr := c.Query("include_graph"); includeGraphStr != "" {
		includeGraph, err := strconv.ParseBool(includeGraphStr)
		if err != nil {
			return nil, err
		}

		req.IncludeGraph = includeGraph
	}

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), services.CreateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, services.UpdateWorkflowRequest{
		Name:            req.Name,
		Description:     req.Description,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.Activate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.Deactivate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DuplicateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	// The body is optional; drag-duplicate in the editor sends none.
	var req DuplicateWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}

		if err := h.validator.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	duplicate, err := h.workflowService.Duplicate(c.Context(), id, req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(duplicate)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.validationService.ValidateWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ExportWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	doc, err := h.transferService.Export(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	imported, err := h.transferService.Import(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(imported)
}

// Step endpoints.

func (h *APIHandlers) GetWorkflowSteps(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	steps, err := h.stepService.ListSteps(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"steps": steps})
}

func (h *APIHandlers) GetWorkflowStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Workflow ID and step ID are required")
	}

	step, err := h.stepService.GetStep(c.Context(), id, stepID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) CreateWorkflowStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.CreateStep(c.Context(), id, &services.CreateStepRequest{
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		StepType:       req.StepType,
		Color:          req.Color,
		AllowedRoles:   req.AllowedRoles,
		RequiredFields: req.RequiredFields,
		AutoAssign:     req.AutoAssign,
		NotifyRoles:    req.NotifyRoles,
		NotifyClient:   req.NotifyClient,
		PositionX:      req.PositionX,
		PositionY:      req.PositionY,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

func (h *APIHandlers) UpdateWorkflowStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Workflow ID and step ID are required")
	}

	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.UpdateStep(c.Context(), id, stepID, &services.UpdateStepRequest{
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		Color:          req.Color,
		AllowedRoles:   req.AllowedRoles,
		RequiredFields: req.RequiredFields,
		AutoAssign:     req.AutoAssign,
		NotifyRoles:    req.NotifyRoles,
		NotifyClient:   req.NotifyClient,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) DeleteWorkflowStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Workflow ID and step ID are required")
	}

	if err := h.stepService.DeleteStep(c.Context(), id, stepID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateStepPositions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdatePositionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	positions := make([]persistence.StepPosition, 0, len(req.Positions))
	for _, p := range req.Positions {
		positions = append(positions, persistence.StepPosition{
			StepID:    p.StepID,
			PositionX: p.PositionX,
			PositionY: p.PositionY,
		})
	}

	if err := h.stepService.UpdatePositions(c.Context(), id, positions); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Transition endpoints.

func (h *APIHandlers) GetWorkflowTransitions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	transitions, err := h.transitionService.ListTransitions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"transitions": transitions})
}

func (h *APIHandlers) GetWorkflowTransition(c fiber.Ctx) error {
	id := c.Params("id")
	transitionID := c.Params("transitionId")

	if id == "" || transitionID == "" {
		return badRequest(c, "Workflow ID and transition ID are required")
	}

	transition, err := h.transitionService.GetTransition(c.Context(), id, transitionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(transition)
}

func (h *APIHandlers) CreateWorkflowTransition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateTransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	transition, err := h.transitionService.CreateTransition(c.Context(), id, &services.CreateTransitionRequest{
		FromStepID:            req.FromStepID,
		ToStepID:              req.ToStepID,
		Name:                  req.Name,
		Description:           req.Description,
		RequiresInvoiceRaised: req.RequiresInvoiceRaised,
		RequiresInvoicePaid:   req.RequiresInvoicePaid,
		RequiresAssignment:    req.RequiresAssignment,
		AllowedRoles:          req.AllowedRoles,
		SendNotification:      req.SendNotification,
		NotificationTemplate:  req.NotificationTemplate,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(transition)
}

func (h *APIHandlers) UpdateWorkflowTransition(c fiber.Ctx) error {
	id := c.Params("id")
	transitionID := c.Params("transitionId")

	if id == "" || transitionID == "" {
		return badRequest(c, "Workflow ID and transition ID are required")
	}

	var req UpdateTransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	transition, err := h.transitionService.UpdateTransition(c.Context(), id, transitionID, &services.UpdateTransitionRequest{
		Name:                  req.Name,
		Description:           req.Description,
		RequiresInvoiceRaised: req.RequiresInvoiceRaised,
		RequiresInvoicePaid:   req.RequiresInvoicePaid,
		RequiresAssignment:    req.RequiresAssignment,
		AllowedRoles:          req.AllowedRoles,
		SendNotification:      req.SendNotification,
		NotificationTemplate:  req.NotificationTemplate,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(transition)
}

func (h *APIHandlers) DeleteWorkflowTransition(c fiber.Ctx) error {
	id := c.Params("id")
	transitionID := c.Params("transitionId")

	if id == "" || transitionID == "" {
		return badRequest(c, "Workflow ID and transition ID are required")
	}

	if err := h.transitionService.DeleteTransition(c.Context(), id, transitionID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Praxis API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Praxis API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
