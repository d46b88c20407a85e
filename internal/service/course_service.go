package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
)

// ErrCourseNotFound indicates the requested course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// CourseService exposes course domain use cases.
type CourseService interface {
	List(ctx context.Context, page repository.Pagination) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint) error
	Analytics(ctx context.Context, id uint) (dto.CourseAnalyticsResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewCourseService builds a new course service.
func NewCourseService(
	courses repository.CourseRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:     courses,
		assignments: assignments,
		submissions: submissions,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, page repository.Pagination) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, page)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}

		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Name:        payload.Name,
		Description: payload.Description,
		GradeLevel:  payload.GradeLevel,
		Subject:     payload.Subject,
	}
	if len(payload.CurriculumStandards) > 0 {
		course.CurriculumStandards = datatypes.JSON(payload.CurriculumStandards)
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("subject", course.Subject).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}

		return dto.CourseResponse{}, err
	}

	if payload.Name != nil {
		course.Name = *payload.Name
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}
	if payload.GradeLevel != nil {
		course.GradeLevel = *payload.GradeLevel
	}
	if payload.Subject != nil {
		course.Subject = *payload.Subject
	}
	if len(payload.CurriculumStandards) > 0 {
		course.CurriculumStandards = datatypes.JSON(payload.CurriculumStandards)
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id uint) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	return nil
}

func (s *courseService) Analytics(ctx context.Context, id uint) (dto.CourseAnalyticsResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseAnalyticsResponse{}, ErrCourseNotFound
		}

		return dto.CourseAnalyticsResponse{}, err
	}

	submissions, err := s.submissions.ListGradedByCourse(ctx, id)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}

	assignmentCount, err := s.assignments.CountByCourse(ctx, id)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}

	students := make(map[uint]struct{}, len(submissions))
	var sum float64
	var scored int
	for _, submission := range submissions {
		students[submission.StudentID] = struct{}{}
		if submission.Score != nil {
			sum += *submission.Score
			scored++
		}
	}

	var average float64
	if scored > 0 {
		average = sum / float64(scored)
	}

	var completion float64
	if assignmentCount > 0 && len(students) > 0 {
		expected := float64(assignmentCount) * float64(len(students))
		completion = float64(len(submissions)) / expected * 100
	}

	return dto.CourseAnalyticsResponse{
		CourseID:        course.ID,
		CourseName:      course.Name,
		TotalStudents:   len(students),
		AverageScore:    round2(average),
		CompletionRate:  round2(completion),
		AssignmentCount: int(assignmentCount),
	}, nil
}
