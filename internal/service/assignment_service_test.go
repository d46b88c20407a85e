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

type stubQuestionGenerator struct {
	questions []ai.AssignmentQuestion
	err       error
	calls     int
}

func (s *stubQuestionGenerator) GenerateQuestions(_ context.Context, _ ai.QuestionInput) ([]ai.AssignmentQuestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

func newAssignmentService(t *testing.T, generator QuestionGenerator) (AssignmentService, *memoryAssignmentRepo, *memoryCourseRepo) {
	t.Helper()
	repo := newMemoryAssignmentRepo()
	courses := newMemoryCourseRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewAssignmentService(repo, courses, generator, validate, testLogger())
	return svc, repo, courses
}

func seedTestCourse(t *testing.T, courses *memoryCourseRepo) models.Course {
	t.Helper()
	course := models.Course{Name: "Biology", Subject: "Science"}
	require.NoError(t, courses.Create(context.Background(), &course))
	return course
}

func TestAssignmentServiceCreateEssayNoGeneration(t *testing.T) {
	gen := &stubQuestionGenerator{}
	svc, _, courses := newAssignmentService(t, gen)
	course := seedTestCourse(t, courses)

	result, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{
		CourseID:       course.ID,
		Title:          "Cell structure essay",
		AssignmentType: models.AssignmentTypeEssay,
	})
	require.NoError(t, err)
	require.Equal(t, 0, gen.calls)
	require.InDelta(t, 100.0, result.MaxPoints, 0.001, "max points defaults to 100")
}

func TestAssignmentServiceCreateGeneratesQuestions(t *testing.T) {
	gen := &stubQuestionGenerator{questions: []ai.AssignmentQuestion{
		{Number: 1, Text: "Define osmosis.", ModelAnswer: "Movement of water across a membrane", Points: 10},
	}}
	svc, repo, courses := newAssignmentService(t, gen)
	course := seedTestCourse(t, courses)

	result, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{
		CourseID:       course.ID,
		Title:          "Osmosis worksheet",
		AssignmentType: "short_answer",
	})
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)

	stored, err := repo.GetByID(context.Background(), result.ID)
	require.NoError(t, err)

	var rubric struct {
		Questions   []ai.AssignmentQuestion `json:"questions"`
		GradingType string                  `json:"grading_type"`
	}
	require.NoError(t, json.Unmarshal(stored.Rubric, &rubric))
	require.Equal(t, models.GradingTypeAnswerSheet, rubric.GradingType)
	require.Len(t, rubric.Questions, 1)
}

func TestAssignmentServiceCreateSurvivesGenerationFailure(t *testing.T) {
	gen := &stubQuestionGenerator{err: errors.New("model offline")}
	svc, _, courses := newAssignmentService(t, gen)
	course := seedTestCourse(t, courses)

	result, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{
		CourseID:       course.ID,
		Title:          "Photosynthesis questions",
		AssignmentType: "questions",
	})
	require.NoError(t, err)
	require.NotZero(t, result.ID)
}

func TestAssignmentServiceCreateUnknownCourse(t *testing.T) {
	svc, _, _ := newAssignmentService(t, &stubQuestionGenerator{})

	_, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{
		CourseID:       99,
		Title:          "Orphan assignment",
		AssignmentType: models.AssignmentTypeEssay,
	})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestAssignmentServiceGenerateQuestionsUpdatesRubric(t *testing.T) {
	gen := &stubQuestionGenerator{questions: []ai.AssignmentQuestion{
		{Number: 1, Text: "What is mitosis?", Points: 10},
		{Number: 2, Text: "Name the phases.", Points: 10},
	}}
	svc, repo, courses := newAssignmentService(t, gen)
	course := seedTestCourse(t, courses)

	created, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{
		CourseID:       course.ID,
		Title:          "Mitosis",
		AssignmentType: models.AssignmentTypeEssay,
	})
	require.NoError(t, err)

	result, err := svc.GenerateQuestions(context.Background(), created.ID, dto.GenerateQuestionsRequest{NumQuestions: 2})
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	questions, answerSheet := answerSheetQuestions(stored.Rubric)
	require.True(t, answerSheet)
	require.Len(t, questions, 2)
}

func TestAssignmentServiceGenerateQuestionsMissing(t *testing.T) {
	svc, _, _ := newAssignmentService(t, &stubQuestionGenerator{})

	_, err := svc.GenerateQuestions(context.Background(), 404, dto.GenerateQuestionsRequest{})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
