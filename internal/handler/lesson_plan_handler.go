package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/internal/service"
	"github.com/noah-isme/guru-go-api/internal/utils"
)

// LessonPlanHandler wires lesson plan HTTP routes.
type LessonPlanHandler struct {
	service service.LessonPlanService
	logger  zerolog.Logger
}

// NewLessonPlanHandler constructs the handler.
func NewLessonPlanHandler(service service.LessonPlanService, logger zerolog.Logger) *LessonPlanHandler {
	return &LessonPlanHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_plan_handler").Logger(),
	}
}

// Register attaches lesson plan endpoints to the router group.
func (h *LessonPlanHandler) Register(router fiber.Router) {
	router.Post("/generate", h.generate)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
}

func (h *LessonPlanHandler) generate(c *fiber.Ctx) error {
	var payload dto.LessonPlanGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	plan, err := h.service.Generate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson plan generated", plan)
}

func (h *LessonPlanHandler) list(c *fiber.Ctx) error {
	page, err := paginationFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	courseID, err := parseQueryUintPtr(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	plans, err := h.service.List(c.Context(), repository.LessonPlanFilter{CourseID: courseID, Page: page})
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lesson plans retrieved", plans)
}

func (h *LessonPlanHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	plan, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrLessonPlanNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson plan not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lesson plan retrieved", plan)
}

func (h *LessonPlanHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrLessonPlanNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson plan not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lesson plan deleted", fiber.Map{"id": id})
}

func (h *LessonPlanHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrLessonPlanNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson plan not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.As(err, &validationErrors):
		return failValidation(c, validationErrors)
	default:
		if status, message, ok := aiErrorStatus(err); ok {
			requestLogger(h.logger, c).Warn().Err(err).Msg("lesson plan generation failed")
			return utils.SendError(c, status, message)
		}
		return h.internalError(c, err)
	}
}

func (h *LessonPlanHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
