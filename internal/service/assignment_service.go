package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

const defaultQuestionCount = 5

// Assignment types that get a question set generated at creation time.
var autoQuestionTypes = map[string]bool{
	"questions":       true,
	"short_answer":    true,
	"problem_solving": true,
}

// QuestionGenerator produces assignment questions with model answers.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, input ai.QuestionInput) ([]ai.AssignmentQuestion, error)
}

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
	GenerateQuestions(ctx context.Context, id uint, payload dto.GenerateQuestionsRequest) (dto.GenerateQuestionsResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	courses   repository.CourseRepository
	generator QuestionGenerator
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	repo repository.AssignmentRepository,
	courses repository.CourseRepository,
	generator QuestionGenerator,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		repo:      repo,
		courses:   courses,
		generator: generator,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	maxPoints := payload.MaxPoints
	if maxPoints == 0 {
		maxPoints = 100
	}

	assignment := models.Assignment{
		CourseID:       payload.CourseID,
		Title:          payload.Title,
		Description:    payload.Description,
		AssignmentType: payload.AssignmentType,
		MaxPoints:      maxPoints,
		DueDate:        payload.DueDate,
	}
	if len(payload.Rubric) > 0 {
		assignment.Rubric = datatypes.JSON(payload.Rubric)
	}

	// Question-style assignments get a generated answer key up front. A
	// generation failure is logged and the assignment is created without one.
	if autoQuestionTypes[payload.AssignmentType] && s.generator != nil {
		questions, err := s.generator.GenerateQuestions(ctx, ai.QuestionInput{
			Topic:        payload.Title,
			Description:  payload.Description,
			Count:        defaultQuestionCount,
			QuestionType: payload.AssignmentType,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("title", payload.Title).Msg("question generation failed, creating assignment without answer key")
		} else if rubric, err := rubricWithQuestions(assignment.Rubric, questions); err == nil {
			assignment.Rubric = rubric
		}
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if len(payload.Rubric) > 0 {
		assignment.Rubric = datatypes.JSON(payload.Rubric)
	}
	if payload.DueDate != nil {
		assignment.DueDate = payload.DueDate
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

// GenerateQuestions builds a fresh answer key for an existing assignment and
// stores it inside the rubric.
func (s *assignmentService) GenerateQuestions(ctx context.Context, id uint, payload dto.GenerateQuestionsRequest) (dto.GenerateQuestionsResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GenerateQuestionsResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerateQuestionsResponse{}, ErrAssignmentNotFound
		}

		return dto.GenerateQuestionsResponse{}, err
	}

	count := payload.NumQuestions
	if count <= 0 {
		count = defaultQuestionCount
	}

	questions, err := s.generator.GenerateQuestions(ctx, ai.QuestionInput{
		Topic:        assignment.Title,
		Description:  assignment.Description,
		Count:        count,
		QuestionType: assignment.AssignmentType,
	})
	if err != nil {
		return dto.GenerateQuestionsResponse{}, err
	}

	rubric, err := rubricWithQuestions(assignment.Rubric, questions)
	if err != nil {
		return dto.GenerateQuestionsResponse{}, err
	}
	assignment.Rubric = rubric

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.GenerateQuestionsResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("questions", len(questions)).
		Msg("assignment questions generated")

	return dto.GenerateQuestionsResponse{
		AssignmentID: assignment.ID,
		Questions:    questions,
	}, nil
}

// rubricWithQuestions merges a generated question set into an existing rubric
// document, preserving any other rubric keys.
func rubricWithQuestions(rubric datatypes.JSON, questions []ai.AssignmentQuestion) (datatypes.JSON, error) {
	doc := map[string]interface{}{}
	if len(rubric) > 0 {
		if err := json.Unmarshal(rubric, &doc); err != nil {
			doc = map[string]interface{}{}
		}
	}

	doc["questions"] = questions
	doc["grading_type"] = models.GradingTypeAnswerSheet

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(merged), nil
}
