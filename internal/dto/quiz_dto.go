package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// QuizGenerateRequest describes the payload for generating a quiz.
type QuizGenerateRequest struct {
	CourseID     uint   `json:"course_id" validate:"required"`
	Topic        string `json:"topic" validate:"required,min=2,max=200"`
	NumQuestions int    `json:"num_questions" validate:"omitempty,min=1,max=50"`
	Difficulty   string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// QuizResponse is the serialized representation returned to API clients.
type QuizResponse struct {
	ID           uint            `json:"id"`
	CourseID     uint            `json:"course_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Questions    json.RawMessage `json:"questions"`
	TimeLimit    int             `json:"time_limit"`
	PassingScore float64         `json:"passing_score"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewQuizResponse converts a model into a DTO.
func NewQuizResponse(model models.Quiz) QuizResponse {
	return QuizResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		Title:        model.Title,
		Description:  model.Description,
		Questions:    rawJSON(model.Questions),
		TimeLimit:    model.TimeLimit,
		PassingScore: model.PassingScore,
		CreatedAt:    model.CreatedAt,
	}
}

// NewQuizResponseSlice converts a slice of models into DTOs.
func NewQuizResponseSlice(quizzes []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, NewQuizResponse(quiz))
	}

	return responses
}

// QuizAttemptCreateRequest describes the payload for submitting a quiz attempt.
// Answers map question indexes to the student's response.
type QuizAttemptCreateRequest struct {
	QuizID    uint           `json:"quiz_id" validate:"required"`
	StudentID uint           `json:"student_id" validate:"required"`
	Answers   map[int]string `json:"answers" validate:"required"`
}

// QuizAttemptResponse is the serialized representation of a graded attempt.
type QuizAttemptResponse struct {
	ID          uint       `json:"id"`
	QuizID      uint       `json:"quiz_id"`
	StudentID   uint       `json:"student_id"`
	Score       *float64   `json:"score"`
	Passed      bool       `json:"passed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewQuizAttemptResponse converts a model into a DTO.
func NewQuizAttemptResponse(model models.QuizAttempt, passingScore float64) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:          model.ID,
		QuizID:      model.QuizID,
		StudentID:   model.StudentID,
		Score:       model.Score,
		Passed:      model.Passed(passingScore),
		StartedAt:   model.StartedAt,
		CompletedAt: model.CompletedAt,
	}
}

// NewQuizAttemptResponseSlice converts a slice of models into DTOs.
func NewQuizAttemptResponseSlice(attempts []models.QuizAttempt, passingScore float64) []QuizAttemptResponse {
	responses := make([]QuizAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, NewQuizAttemptResponse(attempt, passingScore))
	}

	return responses
}
