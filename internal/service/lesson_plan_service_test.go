package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

type stubLessonPlanGenerator struct {
	plan ai.LessonPlan
	err  error
}

func (s *stubLessonPlanGenerator) GenerateLessonPlan(_ context.Context, _ ai.LessonPlanInput) (ai.LessonPlan, error) {
	if s.err != nil {
		return ai.LessonPlan{}, s.err
	}
	return s.plan, nil
}

func newLessonPlanService(t *testing.T, generator LessonPlanGenerator) (LessonPlanService, *memoryLessonPlanRepo, *memoryCourseRepo) {
	t.Helper()
	plans := newMemoryLessonPlanRepo()
	courses := newMemoryCourseRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewLessonPlanService(plans, courses, generator, validate, testLogger())
	return svc, plans, courses
}

func TestLessonPlanServiceGenerate(t *testing.T) {
	gen := &stubLessonPlanGenerator{plan: ai.LessonPlan{
		Title:      "Introduction to Photosynthesis",
		Objectives: []string{"Explain light-dependent reactions"},
		Materials:  []string{"whiteboard"},
		Activities: []ai.LessonActivity{{Name: "Warm-up", DurationMinutes: 10, Description: "Recall prior knowledge", Type: "discussion"}},
		Content:    "Full lesson narrative.",
	}}
	svc, plans, courses := newLessonPlanService(t, gen)
	ctx := context.Background()

	course := models.Course{Name: "Biology"}
	require.NoError(t, courses.Create(ctx, &course))

	result, err := svc.Generate(ctx, dto.LessonPlanGenerateRequest{
		CourseID:   course.ID,
		Topic:      "Photosynthesis",
		GradeLevel: "9th Grade",
		Duration:   45,
	})
	require.NoError(t, err)
	require.Equal(t, "Introduction to Photosynthesis", result.Title)
	require.Equal(t, 45, result.Duration)

	stored, err := plans.GetByID(ctx, result.ID)
	require.NoError(t, err)

	var objectives []string
	require.NoError(t, json.Unmarshal(stored.Objectives, &objectives))
	require.Equal(t, []string{"Explain light-dependent reactions"}, objectives)

	var activities []ai.LessonActivity
	require.NoError(t, json.Unmarshal(stored.Activities, &activities))
	require.Len(t, activities, 1)
	require.Equal(t, "Warm-up", activities[0].Name)
}

func TestLessonPlanServiceGenerateUnknownCourse(t *testing.T) {
	svc, _, _ := newLessonPlanService(t, &stubLessonPlanGenerator{})

	_, err := svc.Generate(context.Background(), dto.LessonPlanGenerateRequest{
		CourseID:   12,
		Topic:      "Photosynthesis",
		GradeLevel: "9th Grade",
		Duration:   45,
	})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestLessonPlanServiceGeneratePropagatesFailure(t *testing.T) {
	boom := errors.New("model offline")
	svc, _, courses := newLessonPlanService(t, &stubLessonPlanGenerator{err: boom})
	ctx := context.Background()

	course := models.Course{Name: "Biology"}
	require.NoError(t, courses.Create(ctx, &course))

	_, err := svc.Generate(ctx, dto.LessonPlanGenerateRequest{
		CourseID:   course.ID,
		Topic:      "Photosynthesis",
		GradeLevel: "9th Grade",
		Duration:   45,
	})
	require.ErrorIs(t, err, boom)
}

func TestLessonPlanServiceDeleteMissing(t *testing.T) {
	svc, _, _ := newLessonPlanService(t, &stubLessonPlanGenerator{})

	err := svc.Delete(context.Background(), 31)
	require.ErrorIs(t, err, ErrLessonPlanNotFound)
}
