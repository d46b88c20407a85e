package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission represents work handed in by a student for an assignment.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;index" json:"student_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Score        *float64       `json:"score"`
	Feedback     string         `gorm:"type:text" json:"feedback"`
	RubricScores datatypes.JSON `gorm:"type:json" json:"rubric_scores"`
	AIGraded     bool           `gorm:"default:true" json:"ai_graded"`
	GradedAt     *time.Time     `json:"graded_at"`

	Assignment Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student    Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsGraded reports whether a score has been recorded for the submission.
func (s Submission) IsGraded() bool {
	return s.Score != nil
}
