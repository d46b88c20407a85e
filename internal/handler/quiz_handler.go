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

// QuizHandler wires quiz HTTP routes.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches quiz endpoints to the router group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("/generate", h.generate)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
	router.Post("/attempts", h.submitAttempt)
	router.Get("/attempts/student/:student_id", h.attemptsByStudent)
	router.Get("/attempts/quiz/:quiz_id", h.attemptsByQuiz)
}

func (h *QuizHandler) generate(c *fiber.Ctx) error {
	var payload dto.QuizGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	quiz, err := h.service.Generate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz generated", quiz)
}

func (h *QuizHandler) list(c *fiber.Ctx) error {
	page, err := paginationFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	courseID, err := parseQueryUintPtr(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quizzes, err := h.service.List(c.Context(), repository.QuizFilter{CourseID: courseID, Page: page})
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quiz, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "quiz deleted", fiber.Map{"id": id})
}

func (h *QuizHandler) submitAttempt(c *fiber.Ctx) error {
	var payload dto.QuizAttemptCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.SubmitAttempt(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz attempt graded", attempt)
}

func (h *QuizHandler) attemptsByStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.ListAttemptsByStudent(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "quiz attempts retrieved", attempts)
}

func (h *QuizHandler) attemptsByQuiz(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quiz_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.ListAttemptsByQuiz(c.Context(), quizID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "quiz attempts retrieved", attempts)
}

func (h *QuizHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.As(err, &validationErrors):
		return failValidation(c, validationErrors)
	default:
		if status, message, ok := aiErrorStatus(err); ok {
			requestLogger(h.logger, c).Warn().Err(err).Msg("quiz generation failed")
			return utils.SendError(c, status, message)
		}
		return h.internalError(c, err)
	}
}

func (h *QuizHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
