package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// ProgressRepository stores recorded analytics metrics for students.
type ProgressRepository interface {
	Record(ctx context.Context, progress *models.StudentProgress) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudentProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository instantiates a GORM-backed repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Record(ctx context.Context, progress *models.StudentProgress) error {
	return r.db.WithContext(ctx).Create(progress).Error
}

func (r *progressRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentProgress, error) {
	var records []models.StudentProgress
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("recorded_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
