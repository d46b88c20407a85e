package models

import "time"

// Student represents a learner enrolled in courses.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100;not null" json:"last_name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	GradeLevel string    `gorm:"size:20" json:"grade_level"`
	StudentID  string    `gorm:"size:50;uniqueIndex" json:"student_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Submissions  []Submission  `json:"-"`
	QuizAttempts []QuizAttempt `json:"-"`
}

// FullName returns the student's display name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
