package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Name                string          `json:"name" validate:"required,min=1,max=200"`
	Description         string          `json:"description"`
	GradeLevel          string          `json:"grade_level" validate:"omitempty,max=20"`
	Subject             string          `json:"subject" validate:"omitempty,max=100"`
	CurriculumStandards json.RawMessage `json:"curriculum_standards"`
}

// CourseUpdateRequest describes the payload for updating a course.
type CourseUpdateRequest struct {
	Name                *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description         *string         `json:"description"`
	GradeLevel          *string         `json:"grade_level" validate:"omitempty,max=20"`
	Subject             *string         `json:"subject" validate:"omitempty,max=100"`
	CurriculumStandards json.RawMessage `json:"curriculum_standards"`
}

// CourseResponse is the serialized representation returned to API clients.
type CourseResponse struct {
	ID                  uint            `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	GradeLevel          string          `json:"grade_level"`
	Subject             string          `json:"subject"`
	CurriculumStandards json.RawMessage `json:"curriculum_standards"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:                  model.ID,
		Name:                model.Name,
		Description:         model.Description,
		GradeLevel:          model.GradeLevel,
		Subject:             model.Subject,
		CurriculumStandards: rawJSON(model.CurriculumStandards),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}

// CourseAnalyticsResponse aggregates performance metrics for a course.
type CourseAnalyticsResponse struct {
	CourseID        uint    `json:"course_id"`
	CourseName      string  `json:"course_name"`
	TotalStudents   int     `json:"total_students"`
	AverageScore    float64 `json:"average_score"`
	CompletionRate  float64 `json:"completion_rate"`
	AssignmentCount int     `json:"assignment_count"`
}
