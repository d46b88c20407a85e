package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

func TestSubmissionHandlerCreateTriggersGrading(t *testing.T) {
	assistant := &stubAssistant{essayGrade: ai.GradeResult{Score: 88, Feedback: "Well argued"}}
	env := setupApp(t, assistant)
	course := seedCourse(t, env.db)
	student := seedStudent(t, env.db, "sub@example.com", "GURU-5001")

	assignment := models.Assignment{CourseID: course.ID, Title: "Photosynthesis Essay", AssignmentType: models.AssignmentTypeEssay, MaxPoints: 100}
	require.NoError(t, env.db.Create(&assignment).Error)

	payload := map[string]interface{}{
		"assignment_id": assignment.ID,
		"student_id":    student.ID,
		"content":       "Photosynthesis converts light energy into chemical energy.",
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/submissions", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.NotZero(t, created.Data.ID)
	require.Nil(t, created.Data.Score)

	env.submissions.Wait()

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/submissions/%d", created.Data.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &graded)
	require.NotNil(t, graded.Data.Score)
	require.Equal(t, float64(88), *graded.Data.Score)
	require.Equal(t, "Well argued", graded.Data.Feedback)
}

func TestSubmissionHandlerCreateUnknownAssignment(t *testing.T) {
	env := setupApp(t, &stubAssistant{})
	student := seedStudent(t, env.db, "sub2@example.com", "GURU-5002")

	payload := map[string]interface{}{
		"assignment_id": 999,
		"student_id":    student.ID,
		"content":       "orphan",
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/submissions", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionHandlerListByStudent(t *testing.T) {
	assistant := &stubAssistant{essayGrade: ai.GradeResult{Score: 75, Feedback: "Solid"}}
	env := setupApp(t, assistant)
	course := seedCourse(t, env.db)
	student := seedStudent(t, env.db, "sub3@example.com", "GURU-5003")

	assignment := models.Assignment{CourseID: course.ID, Title: "Lab Write-up", AssignmentType: models.AssignmentTypeEssay, MaxPoints: 100}
	require.NoError(t, env.db.Create(&assignment).Error)

	payload := map[string]interface{}{
		"assignment_id": assignment.ID,
		"student_id":    student.ID,
		"content":       "Observations and conclusions.",
	}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/submissions", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	env.submissions.Wait()

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/submissions/student/%d", student.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 1)
}

func TestSubmissionHandlerManualGradeMissing(t *testing.T) {
	env := setupApp(t, &stubAssistant{})

	payload := map[string]interface{}{"submission_id": 999}
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/submissions/grade", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
