package dto

import (
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	FirstName  string `json:"first_name" validate:"required,min=1,max=100"`
	LastName   string `json:"last_name" validate:"required,min=1,max=100"`
	Email      string `json:"email" validate:"required,email"`
	GradeLevel string `json:"grade_level" validate:"omitempty,max=20"`
	StudentID  string `json:"student_id" validate:"required,min=1,max=50"`
}

// StudentUpdateRequest describes the payload for updating a student.
type StudentUpdateRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName   *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	GradeLevel *string `json:"grade_level" validate:"omitempty,max=20"`
}

// StudentResponse is the serialized representation returned to API clients.
type StudentResponse struct {
	ID         uint      `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	GradeLevel string    `json:"grade_level"`
	StudentID  string    `json:"student_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:         model.ID,
		FirstName:  model.FirstName,
		LastName:   model.LastName,
		Email:      model.Email,
		GradeLevel: model.GradeLevel,
		StudentID:  model.StudentID,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}

// StudentAnalyticsResponse aggregates performance metrics for a student.
type StudentAnalyticsResponse struct {
	StudentID        uint    `json:"student_id"`
	StudentName      string  `json:"student_name"`
	AverageScore     float64 `json:"average_score"`
	TotalSubmissions int     `json:"total_submissions"`
	TotalQuizzes     int     `json:"total_quizzes"`
	CompletionRate   float64 `json:"completion_rate"`
	RecentTrend      string  `json:"recent_trend"`
}
