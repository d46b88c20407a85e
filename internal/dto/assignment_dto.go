package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
// Assignments typed "questions", "short_answer" or "problem_solving" get a
// question set generated for them on creation.
type AssignmentCreateRequest struct {
	CourseID       uint            `json:"course_id" validate:"required"`
	Title          string          `json:"title" validate:"required,min=3,max=300"`
	Description    string          `json:"description"`
	AssignmentType string          `json:"assignment_type" validate:"required,max=50"`
	MaxPoints      float64         `json:"max_points" validate:"omitempty,gt=0"`
	Rubric         json.RawMessage `json:"rubric"`
	DueDate        *time.Time      `json:"due_date"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=3,max=300"`
	Description *string         `json:"description"`
	MaxPoints   *float64        `json:"max_points" validate:"omitempty,gt=0"`
	Rubric      json.RawMessage `json:"rubric"`
	DueDate     *time.Time      `json:"due_date"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint            `json:"id"`
	CourseID       uint            `json:"course_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	AssignmentType string          `json:"assignment_type"`
	MaxPoints      float64         `json:"max_points"`
	Rubric         json.RawMessage `json:"rubric"`
	DueDate        *time.Time      `json:"due_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		CourseID:       model.CourseID,
		Title:          model.Title,
		Description:    model.Description,
		AssignmentType: model.AssignmentType,
		MaxPoints:      model.MaxPoints,
		Rubric:         rawJSON(model.Rubric),
		DueDate:        model.DueDate,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// GenerateQuestionsRequest controls question generation for an assignment.
type GenerateQuestionsRequest struct {
	NumQuestions int `json:"num_questions" validate:"omitempty,min=1,max=50"`
}

// GenerateQuestionsResponse carries the generated question set back to the caller.
type GenerateQuestionsResponse struct {
	AssignmentID uint                    `json:"assignment_id"`
	Questions    []ai.AssignmentQuestion `json:"questions"`
}
