package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/observability"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// ErrSubmissionNotFound indicates the requested submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

const defaultGradeTimeout = 5 * time.Minute

// Grader runs model-backed grading for essays and answer sheets.
type Grader interface {
	GradeEssay(ctx context.Context, input ai.EssayGradeInput) (ai.GradeResult, error)
	GradeAnswerSheet(ctx context.Context, input ai.AnswerSheetInput) (ai.AnswerSheetResult, error)
}

// Notifier publishes user-facing notifications.
type Notifier interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// SubmissionService exposes submission and grading use cases.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
	Grade(ctx context.Context, payload dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error)
	Wait()
}

type submissionService struct {
	submissions  repository.SubmissionRepository
	assignments  repository.AssignmentRepository
	students     repository.StudentRepository
	grader       Grader
	notifier     Notifier
	cache        *redis.Client
	sanitizer    *bluemonday.Policy
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	gradeTimeout time.Duration
	jobs         sync.WaitGroup
}

// NewSubmissionService builds a new submission service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	students repository.StudentRepository,
	grader Grader,
	notifier Notifier,
	cache *redis.Client,
	gradeTimeout time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	if gradeTimeout <= 0 {
		gradeTimeout = defaultGradeTimeout
	}

	return &submissionService{
		submissions:  submissions,
		assignments:  assignments,
		students:     students,
		grader:       grader,
		notifier:     notifier,
		cache:        cache,
		sanitizer:    bluemonday.StrictPolicy(),
		validator:    validate,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/guru-go-api/internal/service/submission"),
		now:          time.Now,
		gradeTimeout: gradeTimeout,
	}
}

// Create stores the submission and queues grading in the background.
func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.assignments.GetByID(ctx, payload.AssignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	// Submission text ends up rendered in teacher and student views, so any
	// markup is stripped before it is stored.
	submission := models.Submission{
		AssignmentID: payload.AssignmentID,
		StudentID:    payload.StudentID,
		Content:      s.sanitizer.Sanitize(payload.Content),
		SubmittedAt:  s.now(),
		AIGraded:     true,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", submission.AssignmentID).
		Msg("submission received, grading queued")

	if s.grader != nil {
		s.jobs.Add(1)
		go s.gradeInBackground(submission.ID)
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Grade runs essay grading synchronously for the given submission.
func (s *submissionService) Grade(ctx context.Context, payload dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeSubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.GradeSubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeSubmissionResponse{}, ErrAssignmentNotFound
		}

		return dto.GradeSubmissionResponse{}, err
	}

	result, err := s.grader.GradeEssay(ctx, ai.EssayGradeInput{
		Essay:     submission.Content,
		Rubric:    rubricDocument(assignment.Rubric),
		MaxPoints: assignment.MaxPoints,
	})
	if err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	if err := s.storeGrade(ctx, &submission, result.Score, result.Feedback, result.RubricScores); err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	return dto.GradeSubmissionResponse{
		SubmissionID: submission.ID,
		Score:        result.Score,
		Feedback:     submission.Feedback,
		RubricScores: dto.NewSubmissionResponse(submission).RubricScores,
	}, nil
}

// Wait blocks until all queued background grading jobs have finished.
func (s *submissionService) Wait() {
	s.jobs.Wait()
}

func (s *submissionService) gradeInBackground(submissionID uint) {
	defer s.jobs.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.gradeTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "submissions.grade",
		trace.WithAttributes(attribute.Int("submission.id", int(submissionID))))
	defer span.End()

	if err := s.gradeSubmission(ctx, submissionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading failed")
		observability.GradingJobs().WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("background grading failed")
		s.notify(ctx, submissionID, models.NotificationTypeGradingFailed,
			fmt.Sprintf("Automatic grading for submission %d failed and needs manual review.", submissionID))
		return
	}

	observability.GradingJobs().WithLabelValues("success").Inc()
}

func (s *submissionService) gradeSubmission(ctx context.Context, submissionID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return err
	}

	questions, answerSheet := answerSheetQuestions(assignment.Rubric)

	var score float64
	var feedback string
	var rubricScores map[string]ai.RubricScore

	if answerSheet && len(questions) > 0 {
		result, err := s.grader.GradeAnswerSheet(ctx, ai.AnswerSheetInput{
			AnswerSheet: submission.Content,
			Questions:   questions,
			MaxPoints:   assignment.MaxPoints,
		})
		if err != nil {
			return err
		}

		score = result.Percentage / 100 * assignment.MaxPoints
		feedback = buildAnswerSheetFeedback(result)
	} else {
		result, err := s.grader.GradeEssay(ctx, ai.EssayGradeInput{
			Essay:     submission.Content,
			Rubric:    rubricDocument(assignment.Rubric),
			MaxPoints: assignment.MaxPoints,
		})
		if err != nil {
			return err
		}

		score = result.Score
		feedback = result.Feedback
		rubricScores = result.RubricScores
	}

	if err := s.storeGrade(ctx, &submission, score, feedback, rubricScores); err != nil {
		return err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("score", score).
		Msg("submission graded")

	s.notify(ctx, submission.ID, models.NotificationTypeGradingCompleted,
		fmt.Sprintf("Submission %d has been graded: %.1f/%.0f points.", submission.ID, score, assignment.MaxPoints))

	return nil
}

func (s *submissionService) storeGrade(ctx context.Context, submission *models.Submission, score float64, feedback string, rubricScores map[string]ai.RubricScore) error {
	gradedAt := s.now()
	submission.Score = &score
	// Model output is untrusted text, same as submission content.
	submission.Feedback = s.sanitizer.Sanitize(feedback)
	submission.GradedAt = &gradedAt

	if len(rubricScores) > 0 {
		if payload, err := json.Marshal(rubricScores); err == nil {
			submission.RubricScores = datatypes.JSON(payload)
		}
	}

	if err := s.submissions.Update(ctx, submission); err != nil {
		return err
	}

	s.invalidateAnalytics(ctx, submission.StudentID)
	return nil
}

func (s *submissionService) invalidateAnalytics(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, analyticsCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate analytics cache")
	}
}

func (s *submissionService) notify(ctx context.Context, submissionID uint, kind, message string) {
	if s.notifier == nil {
		return
	}

	// The grading deadline may already be spent when the failure path runs,
	// so publishing gets its own short budget.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return
	}

	_, err = s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  fmt.Sprintf("student:%d", submission.StudentID),
		Type:    kind,
		Message: message,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to publish grading notification")
	}
}

// assignmentRubric is the stored rubric document shape for answer-sheet grading.
type assignmentRubric struct {
	Questions   []ai.AssignmentQuestion `json:"questions"`
	GradingType string                  `json:"grading_type"`
}

func answerSheetQuestions(rubric datatypes.JSON) ([]ai.AssignmentQuestion, bool) {
	if len(rubric) == 0 {
		return nil, false
	}

	var doc assignmentRubric
	if err := json.Unmarshal(rubric, &doc); err != nil {
		return nil, false
	}

	return doc.Questions, doc.GradingType == models.GradingTypeAnswerSheet
}

func rubricDocument(rubric datatypes.JSON) map[string]interface{} {
	if len(rubric) == 0 {
		return nil
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(rubric, &doc); err != nil {
		return nil
	}

	return doc
}

// buildAnswerSheetFeedback flattens an answer-sheet result into the feedback
// text stored on the submission.
func buildAnswerSheetFeedback(result ai.AnswerSheetResult) string {
	var parts []string
	if result.OverallFeedback != "" {
		parts = append(parts, result.OverallFeedback)
	}

	if len(result.Strengths) > 0 {
		parts = append(parts, "\n**Strengths:**")
		for _, strength := range result.Strengths {
			parts = append(parts, "• "+strength)
		}
	}

	if len(result.AreasForImprovement) > 0 {
		parts = append(parts, "\n**Areas for Improvement:**")
		for _, area := range result.AreasForImprovement {
			parts = append(parts, "• "+area)
		}
	}

	if len(result.ParsedAnswers) > 0 {
		parts = append(parts, "\n**Question-by-Question Feedback:**")
		for _, answer := range result.ParsedAnswers {
			parts = append(parts, fmt.Sprintf("Question %d: %g/%g points", answer.QuestionNumber, answer.Score, answer.MaxScore))
			if answer.Feedback != "" {
				parts = append(parts, "  "+answer.Feedback)
			}
		}
	}

	return strings.Join(parts, "\n")
}
