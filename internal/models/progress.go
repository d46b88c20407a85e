package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentProgress stores a recorded analytics metric for a student.
type StudentProgress struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"`
	MetricName  string         `gorm:"size:100" json:"metric_name"`
	MetricValue float64        `json:"metric_value"`
	Period      string         `gorm:"size:50" json:"period"`
	RecordedAt  time.Time      `json:"recorded_at"`
	ExtraData   datatypes.JSON `gorm:"type:json" json:"extra_data"`

	Student Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
