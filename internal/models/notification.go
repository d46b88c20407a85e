package models

import "time"

const (
	// NotificationTypeGradingCompleted signals that a submission finished grading.
	NotificationTypeGradingCompleted = "grading_completed"
	// NotificationTypeGradingFailed signals that automatic grading could not finish.
	NotificationTypeGradingFailed = "grading_failed"
	// NotificationTypeQuizGenerated signals that a quiz finished generating.
	NotificationTypeQuizGenerated = "quiz_generated"
	// NotificationTypeGeneric is the fallback for events outside the grading flow.
	NotificationTypeGeneric = "generic"
)

// Notification is a message delivered to a signed-in user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index;not null" json:"user_id"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
