package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/observability"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// ErrQuizNotFound indicates the requested quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

const (
	defaultQuizQuestions = 10
	defaultDifficulty    = "medium"
	// Each question gets this many minutes on the clock.
	minutesPerQuestion = 2
)

// QuizGenerator produces quiz questions for a topic.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, input ai.QuizInput) ([]ai.QuizQuestion, error)
}

// QuizService exposes quiz domain use cases, including local deterministic
// grading of attempts.
type QuizService interface {
	Generate(ctx context.Context, payload dto.QuizGenerateRequest) (dto.QuizResponse, error)
	List(ctx context.Context, filter repository.QuizFilter) ([]dto.QuizResponse, error)
	Get(ctx context.Context, id uint) (dto.QuizResponse, error)
	Delete(ctx context.Context, id uint) error
	SubmitAttempt(ctx context.Context, payload dto.QuizAttemptCreateRequest) (dto.QuizAttemptResponse, error)
	ListAttemptsByStudent(ctx context.Context, studentID uint) ([]dto.QuizAttemptResponse, error)
	ListAttemptsByQuiz(ctx context.Context, quizID uint) ([]dto.QuizAttemptResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	courses   repository.CourseRepository
	students  repository.StudentRepository
	generator QuizGenerator
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService builds a new quiz service.
func NewQuizService(
	quizzes repository.QuizRepository,
	courses repository.CourseRepository,
	students repository.StudentRepository,
	generator QuizGenerator,
	validate *validator.Validate,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		quizzes:   quizzes,
		courses:   courses,
		students:  students,
		generator: generator,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

func (s *quizService) Generate(ctx context.Context, payload dto.QuizGenerateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrCourseNotFound
		}

		return dto.QuizResponse{}, err
	}

	count := payload.NumQuestions
	if count <= 0 {
		count = defaultQuizQuestions
	}
	difficulty := payload.Difficulty
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	questions, err := s.generator.GenerateQuiz(ctx, ai.QuizInput{
		Topic:      payload.Topic,
		Count:      count,
		Difficulty: difficulty,
	})
	if err != nil {
		return dto.QuizResponse{}, err
	}

	encoded, err := json.Marshal(questions)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{
		CourseID:     payload.CourseID,
		Title:        "Quiz: " + payload.Topic,
		Description:  fmt.Sprintf("A %s level quiz on %s", difficulty, payload.Topic),
		Questions:    datatypes.JSON(encoded),
		TimeLimit:    len(questions) * minutesPerQuestion,
		PassingScore: models.DefaultPassingScore,
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Int("questions", len(questions)).
		Str("difficulty", difficulty).
		Msg("quiz generated")

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) List(ctx context.Context, filter repository.QuizFilter) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewQuizResponseSlice(quizzes), nil
}

func (s *quizService) Get(ctx context.Context, id uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}

		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Delete(ctx context.Context, id uint) error {
	if err := s.quizzes.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	s.logger.Info().Uint("quiz_id", id).Msg("quiz deleted")
	return nil
}

// SubmitAttempt grades the attempt locally against the stored answer key.
// Choice questions need an exact match; short answers count when contained in
// the reference answer.
func (s *quizService) SubmitAttempt(ctx context.Context, payload dto.QuizAttemptCreateRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, payload.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizAttemptResponse{}, ErrQuizNotFound
		}

		return dto.QuizAttemptResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizAttemptResponse{}, ErrStudentNotFound
		}

		return dto.QuizAttemptResponse{}, err
	}

	var questions []ai.QuizQuestion
	if len(quiz.Questions) > 0 {
		if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
			return dto.QuizAttemptResponse{}, fmt.Errorf("quiz %d has a corrupt question set: %w", quiz.ID, err)
		}
	}

	score := gradeAttempt(questions, payload.Answers)

	encodedAnswers, err := json.Marshal(payload.Answers)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	completedAt := s.now()
	attempt := models.QuizAttempt{
		QuizID:      payload.QuizID,
		StudentID:   payload.StudentID,
		Answers:     datatypes.JSON(encodedAnswers),
		Score:       &score,
		StartedAt:   completedAt,
		CompletedAt: &completedAt,
	}

	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	observability.QuizAttemptsGraded().Inc()
	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Uint("student_id", payload.StudentID).
		Float64("score", score).
		Msg("quiz attempt graded")

	return dto.NewQuizAttemptResponse(attempt, quiz.PassingScore), nil
}

func (s *quizService) ListAttemptsByStudent(ctx context.Context, studentID uint) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.quizzes.ListAttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return s.attemptResponses(ctx, attempts)
}

func (s *quizService) ListAttemptsByQuiz(ctx context.Context, quizID uint) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.quizzes.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	return s.attemptResponses(ctx, attempts)
}

func (s *quizService) attemptResponses(ctx context.Context, attempts []models.QuizAttempt) ([]dto.QuizAttemptResponse, error) {
	passingScores := make(map[uint]float64)
	responses := make([]dto.QuizAttemptResponse, 0, len(attempts))

	for _, attempt := range attempts {
		passing, ok := passingScores[attempt.QuizID]
		if !ok {
			quiz, err := s.quizzes.GetByID(ctx, attempt.QuizID)
			if err != nil {
				passing = models.DefaultPassingScore
			} else {
				passing = quiz.PassingScore
			}
			passingScores[attempt.QuizID] = passing
		}
		responses = append(responses, dto.NewQuizAttemptResponse(attempt, passing))
	}

	return responses, nil
}

// gradeAttempt returns the percentage score earned across all questions.
func gradeAttempt(questions []ai.QuizQuestion, answers map[int]string) float64 {
	var totalPoints, earnedPoints float64

	for idx, question := range questions {
		points := question.Points
		if points <= 0 {
			points = 1
		}
		totalPoints += points

		studentAnswer := strings.ToLower(strings.TrimSpace(answers[idx]))
		correctAnswer := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))

		switch question.Type {
		case ai.QuestionTypeMultipleChoice, ai.QuestionTypeTrueFalse:
			if studentAnswer == correctAnswer {
				earnedPoints += points
			}
		default:
			if studentAnswer != "" && correctAnswer != "" && strings.Contains(correctAnswer, studentAnswer) {
				earnedPoints += points
			}
		}
	}

	if totalPoints == 0 {
		return 0
	}

	return earnedPoints / totalPoints * 100
}
