package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// AssignmentTypeEssay marks free-form writing assignments graded against a rubric.
	AssignmentTypeEssay = "essay"
	// AssignmentTypeShortAnswer marks assignments answered with short text responses.
	AssignmentTypeShortAnswer = "short_answer"
	// AssignmentTypeProject marks longer project-style assignments.
	AssignmentTypeProject = "project"
)

// GradingTypeAnswerSheet, stored inside the rubric, switches grading from
// holistic essay evaluation to per-question answer sheet comparison.
const GradingTypeAnswerSheet = "answer_sheet"

// Assignment represents homework attached to a course.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CourseID       uint           `gorm:"not null;index" json:"course_id"`
	Title          string         `gorm:"size:300;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	AssignmentType string         `gorm:"size:50" json:"assignment_type"`
	MaxPoints      float64        `gorm:"default:100" json:"max_points"`
	Rubric         datatypes.JSON `gorm:"type:json" json:"rubric"`
	DueDate        *time.Time     `json:"due_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Course      Course       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions []Submission `json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
