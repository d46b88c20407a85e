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

func TestLessonPlanHandlerGenerateAndFetch(t *testing.T) {
	assistant := &stubAssistant{plan: ai.LessonPlan{
		Title:      "Water Cycle Basics",
		Objectives: []string{"Describe evaporation", "Explain condensation"},
		Materials:  []string{"whiteboard"},
		Activities: []ai.LessonActivity{{Name: "Intro discussion", DurationMinutes: 10, Description: "Prior knowledge"}},
		Content:    "Full walk through of the water cycle.",
	}}
	env := setupApp(t, assistant)
	course := seedCourse(t, env.db)

	payload := map[string]interface{}{
		"course_id":   course.ID,
		"topic":       "Water Cycle",
		"grade_level": "6",
		"duration":    45,
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/lesson-plans/generate", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data dto.LessonPlanResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.NotZero(t, created.Data.ID)
	require.Equal(t, "Water Cycle Basics", created.Data.Title)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/lesson-plans/%d", created.Data.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/v1/lesson-plans", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []dto.LessonPlanResponse `json:"data"`
	}
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 1)
}

func TestLessonPlanHandlerGenerateValidation(t *testing.T) {
	env := setupApp(t, &stubAssistant{})

	payload := map[string]interface{}{"topic": "No course"}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/lesson-plans/generate", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLessonPlanHandlerDeleteMissing(t *testing.T) {
	env := setupApp(t, &stubAssistant{})

	resp, err := env.app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/lesson-plans/999", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
