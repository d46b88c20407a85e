package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the requested student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentEmailTaken indicates the email is already registered.
	ErrStudentEmailTaken = errors.New("email already exists")
	// ErrStudentIDTaken indicates the external student ID is already registered.
	ErrStudentIDTaken = errors.New("student ID already exists")
)

// Score movements smaller than this are reported as a stable trend.
const trendThreshold = 5.0

// StudentService exposes student domain use cases.
type StudentService interface {
	List(ctx context.Context, page repository.Pagination) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
	Analytics(ctx context.Context, id uint) (dto.StudentAnalyticsResponse, error)
}

type studentService struct {
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	assignments repository.AssignmentRepository
	progress    repository.ProgressRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentService builds a new student service.
func NewStudentService(
	students repository.StudentRepository,
	submissions repository.SubmissionRepository,
	quizzes repository.QuizRepository,
	assignments repository.AssignmentRepository,
	progress repository.ProgressRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:    students,
		submissions: submissions,
		quizzes:     quizzes,
		assignments: assignments,
		progress:    progress,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "student_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentService) List(ctx context.Context, page repository.Pagination) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, page)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}

		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	if _, err := s.students.GetByStudentID(ctx, payload.StudentID); err == nil {
		return dto.StudentResponse{}, ErrStudentIDTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	if _, err := s.students.GetByEmail(ctx, payload.Email); err == nil {
		return dto.StudentResponse{}, ErrStudentEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		GradeLevel: payload.GradeLevel,
		StudentID:  payload.StudentID,
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}

		return dto.StudentResponse{}, err
	}

	if payload.FirstName != nil {
		student.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		student.LastName = *payload.LastName
	}
	if payload.Email != nil && *payload.Email != student.Email {
		if _, err := s.students.GetByEmail(ctx, *payload.Email); err == nil {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, err
		}
		student.Email = *payload.Email
	}
	if payload.GradeLevel != nil {
		student.GradeLevel = *payload.GradeLevel
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.invalidateAnalytics(ctx, id)

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.invalidateAnalytics(ctx, id)
	s.logger.Info().Uint("student_id", id).Msg("student deleted")
	return nil
}

// Analytics aggregates graded submissions and completed quiz attempts into a
// performance summary. Results are cached to keep the dashboard cheap.
func (s *studentService) Analytics(ctx context.Context, id uint) (dto.StudentAnalyticsResponse, error) {
	cacheKey := analyticsCacheKey(id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", id).Msg("analytics cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
		}
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentAnalyticsResponse{}, ErrStudentNotFound
		}

		return dto.StudentAnalyticsResponse{}, err
	}

	submissions, err := s.submissions.ListGradedByStudent(ctx, id)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}

	attempts, err := s.quizzes.ListCompletedAttemptsByStudent(ctx, id)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}

	totalAssignments, err := s.assignments.Count(ctx)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}

	response := buildStudentAnalytics(student, submissions, attempts, totalAssignments)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
			}
		}
	}

	s.recordSnapshot(ctx, response)

	return response, nil
}

func buildStudentAnalytics(student models.Student, submissions []models.Submission, attempts []models.QuizAttempt, totalAssignments int64) dto.StudentAnalyticsResponse {
	scores := make([]float64, 0, len(submissions)+len(attempts))
	for _, submission := range submissions {
		if submission.Score != nil {
			scores = append(scores, *submission.Score)
		}
	}
	for _, attempt := range attempts {
		if attempt.Score != nil {
			scores = append(scores, *attempt.Score)
		}
	}

	var average float64
	if len(scores) > 0 {
		var sum float64
		for _, score := range scores {
			sum += score
		}
		average = sum / float64(len(scores))
	}

	var completion float64
	if totalAssignments > 0 {
		completion = float64(len(submissions)) / float64(totalAssignments) * 100
	}

	return dto.StudentAnalyticsResponse{
		StudentID:        student.ID,
		StudentName:      student.FullName(),
		AverageScore:     round2(average),
		TotalSubmissions: len(submissions),
		TotalQuizzes:     len(attempts),
		CompletionRate:   round2(completion),
		RecentTrend:      scoreTrend(scores),
	}
}

// scoreTrend compares the last five scores against the five before them.
func scoreTrend(scores []float64) string {
	if len(scores) < 10 {
		return "stable"
	}

	recent := scores[len(scores)-5:]
	previous := scores[len(scores)-10 : len(scores)-5]

	recentAvg := mean(recent)
	previousAvg := mean(previous)

	switch {
	case recentAvg > previousAvg+trendThreshold:
		return "improving"
	case recentAvg < previousAvg-trendThreshold:
		return "declining"
	default:
		return "stable"
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func analyticsCacheKey(id uint) string {
	return fmt.Sprintf("analytics:student:%d", id)
}

func (s *studentService) invalidateAnalytics(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, analyticsCacheKey(id)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", id).Msg("failed to invalidate analytics cache")
	}
}

func (s *studentService) recordSnapshot(ctx context.Context, response dto.StudentAnalyticsResponse) {
	if s.progress == nil {
		return
	}

	record := models.StudentProgress{
		StudentID:   response.StudentID,
		MetricName:  "average_score",
		MetricValue: response.AverageScore,
		Period:      "snapshot",
		RecordedAt:  s.now(),
	}
	if err := s.progress.Record(ctx, &record); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", response.StudentID).Msg("failed to record progress snapshot")
	}
}
