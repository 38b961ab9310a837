package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/service"
	"github.com/syllabex/syllabex-api/internal/utils"
)

// RubricHandler wires rubric authoring and assessment HTTP routes.
type RubricHandler struct {
	service service.RubricService
	logger  zerolog.Logger
}

// NewRubricHandler constructs the handler.
func NewRubricHandler(service service.RubricService, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service: service,
		logger:  logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register attaches rubric endpoints to the router group.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseID/rubrics", h.list)
	router.Post("/courses/:courseID/rubrics", h.create)
	router.Get("/courses/:courseID/rubrics/:id", h.get)
	router.Patch("/courses/:courseID/rubrics/:id", h.update)
	router.Delete("/courses/:courseID/rubrics/:id", h.delete)
	router.Post("/courses/:courseID/rubrics/:id/duplicate", h.duplicate)
	router.Post("/submissions/:submissionID/assessment", h.assess)
	router.Get("/submissions/:submissionID/assessment", h.getAssessment)
}

func (h *RubricHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rubrics, err := h.service.ListByCourse(c.Context(), actorFromContext(c), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubrics retrieved", rubrics)
}

func (h *RubricHandler) get(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rubric, err := h.service.Get(c.Context(), actorFromContext(c), courseID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric retrieved", rubric)
}

func (h *RubricHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RubricCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.service.Create(c.Context(), actorFromContext(c), courseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric created", rubric)
}

func (h *RubricHandler) update(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RubricUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.service.Update(c.Context(), actorFromContext(c), courseID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric updated", rubric)
}

func (h *RubricHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), courseID, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric deleted", fiber.Map{"id": id})
}

func (h *RubricHandler) duplicate(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rubric, err := h.service.Duplicate(c.Context(), actorFromContext(c), courseID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric duplicated", rubric)
}

func (h *RubricHandler) assess(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssessSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assessment, err := h.service.Assess(c.Context(), actorFromContext(c), submissionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission assessed", assessment)
}

func (h *RubricHandler) getAssessment(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assessment, err := h.service.GetAssessment(c.Context(), actorFromContext(c), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *RubricHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrRubricNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrNotCourseInstructor):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrRubricInUse):
		return utils.SendError(c, fiber.StatusConflict, "rubric has existing assessments")
	case errors.Is(err, service.ErrNoRubricAttached),
		errors.Is(err, service.ErrInvalidCriterionScore),
		errors.Is(err, service.ErrIncompleteAssessment),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
