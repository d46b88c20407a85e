package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// ErrLessonPlanNotFound indicates the requested lesson plan does not exist.
var ErrLessonPlanNotFound = errors.New("lesson plan not found")

// LessonPlanGenerator produces structured lesson plans.
type LessonPlanGenerator interface {
	GenerateLessonPlan(ctx context.Context, input ai.LessonPlanInput) (ai.LessonPlan, error)
}

// LessonPlanService exposes lesson plan domain use cases.
type LessonPlanService interface {
	Generate(ctx context.Context, payload dto.LessonPlanGenerateRequest) (dto.LessonPlanResponse, error)
	List(ctx context.Context, filter repository.LessonPlanFilter) ([]dto.LessonPlanResponse, error)
	Get(ctx context.Context, id uint) (dto.LessonPlanResponse, error)
	Delete(ctx context.Context, id uint) error
}

type lessonPlanService struct {
	plans     repository.LessonPlanRepository
	courses   repository.CourseRepository
	generator LessonPlanGenerator
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLessonPlanService builds a new lesson plan service.
func NewLessonPlanService(
	plans repository.LessonPlanRepository,
	courses repository.CourseRepository,
	generator LessonPlanGenerator,
	validate *validator.Validate,
	logger zerolog.Logger,
) LessonPlanService {
	return &lessonPlanService{
		plans:     plans,
		courses:   courses,
		generator: generator,
		validator: validate,
		logger:    logger.With().Str("component", "lesson_plan_service").Logger(),
	}
}

func (s *lessonPlanService) Generate(ctx context.Context, payload dto.LessonPlanGenerateRequest) (dto.LessonPlanResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonPlanResponse{}, ErrCourseNotFound
		}

		return dto.LessonPlanResponse{}, err
	}

	plan, err := s.generator.GenerateLessonPlan(ctx, ai.LessonPlanInput{
		Topic:           payload.Topic,
		GradeLevel:      payload.GradeLevel,
		DurationMinutes: payload.Duration,
		Objectives:      payload.LearningObjectives,
	})
	if err != nil {
		return dto.LessonPlanResponse{}, err
	}

	model := models.LessonPlan{
		CourseID: payload.CourseID,
		Title:    plan.Title,
		Content:  plan.Content,
		Duration: payload.Duration,
	}
	model.Objectives = mustJSON(plan.Objectives)
	model.Activities = mustJSON(plan.Activities)
	model.Materials = mustJSON(plan.Materials)
	if len(plan.StandardsAligned) > 0 {
		model.StandardsAligned = mustJSON(plan.StandardsAligned)
	}

	if err := s.plans.Create(ctx, &model); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	s.logger.Info().
		Uint("lesson_plan_id", model.ID).
		Str("topic", payload.Topic).
		Msg("lesson plan generated")

	return dto.NewLessonPlanResponse(model), nil
}

func (s *lessonPlanService) List(ctx context.Context, filter repository.LessonPlanFilter) ([]dto.LessonPlanResponse, error) {
	plans, err := s.plans.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonPlanResponseSlice(plans), nil
}

func (s *lessonPlanService) Get(ctx context.Context, id uint) (dto.LessonPlanResponse, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonPlanResponse{}, ErrLessonPlanNotFound
		}

		return dto.LessonPlanResponse{}, err
	}

	return dto.NewLessonPlanResponse(plan), nil
}

func (s *lessonPlanService) Delete(ctx context.Context, id uint) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonPlanNotFound
		}
		return err
	}

	s.logger.Info().Uint("lesson_plan_id", id).Msg("lesson plan deleted")
	return nil
}

// mustJSON encodes a value that is known to marshal cleanly.
func mustJSON(value interface{}) datatypes.JSON {
	payload, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(payload)
}
