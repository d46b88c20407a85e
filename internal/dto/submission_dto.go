package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// SubmissionCreateRequest describes the payload for handing in work.
type SubmissionCreateRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required"`
	StudentID    uint   `json:"student_id" validate:"required"`
	Content      string `json:"content" validate:"required,min=1"`
}

// SubmissionResponse is the serialized representation returned to API clients.
type SubmissionResponse struct {
	ID           uint            `json:"id"`
	AssignmentID uint            `json:"assignment_id"`
	StudentID    uint            `json:"student_id"`
	Content      string          `json:"content"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Score        *float64        `json:"score"`
	Feedback     string          `json:"feedback"`
	RubricScores json.RawMessage `json:"rubric_scores"`
	AIGraded     bool            `json:"ai_graded"`
	GradedAt     *time.Time      `json:"graded_at"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		SubmittedAt:  model.SubmittedAt,
		Score:        model.Score,
		Feedback:     model.Feedback,
		RubricScores: rawJSON(model.RubricScores),
		AIGraded:     model.AIGraded,
		GradedAt:     model.GradedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// GradeSubmissionRequest triggers grading for one submission.
type GradeSubmissionRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required"`
}

// GradeSubmissionResponse carries the grading outcome back to the caller.
type GradeSubmissionResponse struct {
	SubmissionID uint            `json:"submission_id"`
	Score        float64         `json:"score"`
	Feedback     string          `json:"feedback"`
	RubricScores json.RawMessage `json:"rubric_scores"`
}
