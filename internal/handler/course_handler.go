package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/service"
	"github.com/noah-isme/guru-go-api/internal/utils"
)

// CourseHandler wires course HTTP routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/analytics", h.analytics)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	page, err := paginationFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	courses, err := h.service.List(c.Context(), page)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.OK(c, courses, "courses retrieved", listMeta(page, len(courses)))
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *CourseHandler) analytics(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	analytics, err := h.service.Analytics(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "course analytics retrieved", analytics)
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.As(err, &validationErrors):
		return failValidation(c, validationErrors)
	default:
		return h.internalError(c, err)
	}
}

func (h *CourseHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
