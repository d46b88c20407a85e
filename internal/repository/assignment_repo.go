package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/models"
)

// AssignmentFilter narrows assignment list queries.
type AssignmentFilter struct {
	CourseID *uint
	Page     Pagination
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	skip, limit := filter.Page.normalized()

	var assignments []models.Assignment
	if err := query.
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Assignment{}).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (r *assignmentRepository) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
