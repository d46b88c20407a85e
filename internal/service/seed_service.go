package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads demo students and courses for local development.
type SeedService interface {
	SeedDemoData(ctx context.Context, token string) (int, error)
}

type seedService struct {
	students repository.StudentRepository
	courses  repository.CourseRepository
	enabled  bool
	token    string
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(students repository.StudentRepository, courses repository.CourseRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		students: students,
		courses:  courses,
		enabled:  enabled,
		token:    token,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDemoData(ctx context.Context, token string) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	created := 0

	for _, course := range demoCourses() {
		course := course
		if err := s.courses.Create(ctx, &course); err != nil {
			s.logger.Warn().Err(err).Str("course", course.Name).Msg("failed to seed course")
			continue
		}
		created++
	}

	for _, student := range demoStudents() {
		student := student
		if _, err := s.students.GetByEmail(ctx, student.Email); err == nil {
			continue
		}
		if err := s.students.Create(ctx, &student); err != nil {
			s.logger.Warn().Err(err).Str("email", student.Email).Msg("failed to seed student")
			continue
		}
		created++
	}

	s.logger.Info().Int("created", created).Msg("demo data seeded")
	return created, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}

func demoCourses() []models.Course {
	return []models.Course{
		{Name: "Biology 101", Subject: "Science", GradeLevel: "9th Grade", Description: "Introductory biology covering cells, genetics and ecosystems."},
		{Name: "English Composition", Subject: "English", GradeLevel: "10th Grade", Description: "Essay writing, rhetoric and close reading."},
		{Name: "Algebra I", Subject: "Mathematics", GradeLevel: "9th Grade", Description: "Linear equations, inequalities and functions."},
	}
}

func demoStudents() []models.Student {
	return []models.Student{
		{FirstName: "Alice", LastName: "Johnson", Email: "alice.johnson@example.edu", GradeLevel: "9th Grade", StudentID: "GURU-0001"},
		{FirstName: "Bob", LastName: "Stone", Email: "bob.stone@example.edu", GradeLevel: "10th Grade", StudentID: "GURU-0002"},
		{FirstName: "Carla", LastName: "Mendez", Email: "carla.mendez@example.edu", GradeLevel: "9th Grade", StudentID: "GURU-0003"},
	}
}
