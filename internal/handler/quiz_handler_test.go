package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

func quizStub() *stubAssistant {
	return &stubAssistant{quiz: []ai.QuizQuestion{
		{Text: "The cell membrane is selectively permeable.", Type: ai.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 1},
		{Text: "Which organelle produces ATP?", Type: ai.QuestionTypeMultipleChoice, Options: []string{"Nucleus", "Mitochondrion", "Ribosome", "Golgi"}, CorrectAnswer: "Mitochondrion", Points: 1},
	}}
}

func TestQuizHandlerGenerateAndAttempt(t *testing.T) {
	env := setupApp(t, quizStub())
	course := seedCourse(t, env.db)
	student := seedStudent(t, env.db, "quiz@example.com", "GURU-4001")

	payload := map[string]interface{}{
		"course_id":     course.ID,
		"topic":         "Cell Biology",
		"num_questions": 2,
		"difficulty":    "easy",
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/quizzes/generate", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var generated struct {
		Data dto.QuizResponse `json:"data"`
	}
	decodeResponse(t, resp, &generated)
	require.NotZero(t, generated.Data.ID)
	require.Equal(t, "Quiz: Cell Biology", generated.Data.Title)
	require.Equal(t, 4, generated.Data.TimeLimit)

	attempt := map[string]interface{}{
		"quiz_id":    generated.Data.ID,
		"student_id": student.ID,
		"answers":    map[string]string{"0": "true", "1": "mitochondrion"},
	}
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/quizzes/attempts", attempt))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var graded struct {
		Data dto.QuizAttemptResponse `json:"data"`
	}
	decodeResponse(t, resp, &graded)
	require.NotNil(t, graded.Data.Score)
	require.Equal(t, float64(100), *graded.Data.Score)
	require.True(t, graded.Data.Passed)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/quizzes/attempts/student/%d", student.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var attempts struct {
		Data []dto.QuizAttemptResponse `json:"data"`
	}
	decodeResponse(t, resp, &attempts)
	require.Len(t, attempts.Data, 1)
}

func TestQuizHandlerAttemptUnknownQuiz(t *testing.T) {
	env := setupApp(t, quizStub())
	student := seedStudent(t, env.db, "quiz2@example.com", "GURU-4002")

	attempt := map[string]interface{}{
		"quiz_id":    999,
		"student_id": student.ID,
		"answers":    map[string]string{"0": "true"},
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/quizzes/attempts", attempt))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestQuizHandlerGenerateUnknownCourse(t *testing.T) {
	env := setupApp(t, quizStub())

	payload := map[string]interface{}{
		"course_id": 999,
		"topic":     "Cell Biology",
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/quizzes/generate", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestQuizHandlerDeleteMissing(t *testing.T) {
	env := setupApp(t, quizStub())

	resp, err := env.app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/quizzes/31337", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
