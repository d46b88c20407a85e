package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// LessonPlanGenerateRequest describes the payload for generating a lesson plan.
type LessonPlanGenerateRequest struct {
	CourseID           uint     `json:"course_id" validate:"required"`
	Topic              string   `json:"topic" validate:"required,min=2,max=300"`
	GradeLevel         string   `json:"grade_level" validate:"required,max=20"`
	Duration           int      `json:"duration" validate:"required,min=5,max=480"`
	LearningObjectives []string `json:"learning_objectives"`
}

// LessonPlanResponse is the serialized representation returned to API clients.
type LessonPlanResponse struct {
	ID               uint            `json:"id"`
	CourseID         uint            `json:"course_id"`
	Title            string          `json:"title"`
	Objectives       json.RawMessage `json:"objectives"`
	Content          string          `json:"content"`
	Activities       json.RawMessage `json:"activities"`
	Materials        json.RawMessage `json:"materials"`
	Duration         int             `json:"duration"`
	StandardsAligned json.RawMessage `json:"standards_aligned"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewLessonPlanResponse converts a model into a DTO.
func NewLessonPlanResponse(model models.LessonPlan) LessonPlanResponse {
	return LessonPlanResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		Title:            model.Title,
		Objectives:       rawJSON(model.Objectives),
		Content:          model.Content,
		Activities:       rawJSON(model.Activities),
		Materials:        rawJSON(model.Materials),
		Duration:         model.Duration,
		StandardsAligned: rawJSON(model.StandardsAligned),
		CreatedAt:        model.CreatedAt,
	}
}

// NewLessonPlanResponseSlice converts a slice of models into DTOs.
func NewLessonPlanResponseSlice(plans []models.LessonPlan) []LessonPlanResponse {
	responses := make([]LessonPlanResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, NewLessonPlanResponse(plan))
	}

	return responses
}
