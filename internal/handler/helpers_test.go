package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/guru-go-api/internal/config"
	"github.com/noah-isme/guru-go-api/internal/handler"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/internal/router"
	"github.com/noah-isme/guru-go-api/internal/service"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

// stubAssistant satisfies every generator interface the services consume so
// handler tests never reach a live model endpoint.
type stubAssistant struct {
	questions  []ai.AssignmentQuestion
	quiz       []ai.QuizQuestion
	plan       ai.LessonPlan
	essayGrade ai.GradeResult
	sheetGrade ai.AnswerSheetResult
	err        error
}

func (s *stubAssistant) GenerateQuestions(_ context.Context, _ ai.QuestionInput) ([]ai.AssignmentQuestion, error) {
	return s.questions, s.err
}

func (s *stubAssistant) GenerateQuiz(_ context.Context, _ ai.QuizInput) ([]ai.QuizQuestion, error) {
	return s.quiz, s.err
}

func (s *stubAssistant) GenerateLessonPlan(_ context.Context, _ ai.LessonPlanInput) (ai.LessonPlan, error) {
	return s.plan, s.err
}

func (s *stubAssistant) GradeEssay(_ context.Context, _ ai.EssayGradeInput) (ai.GradeResult, error) {
	return s.essayGrade, s.err
}

func (s *stubAssistant) GradeAnswerSheet(_ context.Context, _ ai.AnswerSheetInput) (ai.AnswerSheetResult, error) {
	return s.sheetGrade, s.err
}

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	submissions service.SubmissionService
}

func setupApp(t *testing.T, assistant *stubAssistant) testEnv {
	return setupAppWithRole(t, assistant, "teacher")
}

func setupAppWithRole(t *testing.T, assistant *stubAssistant, role string) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.LessonPlan{},
		&models.StudentProgress{},
		&models.Notification{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	lessonPlanRepo := repository.NewLessonPlanRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, nil, "", nil, validate, logger)
	studentService := service.NewStudentService(studentRepo, submissionRepo, quizRepo, assignmentRepo, progressRepo, nil, 0, validate, logger)
	courseService := service.NewCourseService(courseRepo, assignmentRepo, submissionRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, assistant, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, assistant, notificationService, nil, 0, validate, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, studentRepo, assistant, validate, logger)
	lessonPlanService := service.NewLessonPlanService(lessonPlanRepo, courseRepo, assistant, validate, logger)
	seedService := service.NewSeedService(studentRepo, courseRepo, true, "test-token", logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		LessonPlanHandler:   handler.NewLessonPlanHandler(lessonPlanService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 0),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return testEnv{app: app, db: db, submissions: submissionService}
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func seedCourse(t *testing.T, db *gorm.DB) models.Course {
	t.Helper()
	course := models.Course{Name: "Biology", Subject: "Science", GradeLevel: "10"}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedStudent(t *testing.T, db *gorm.DB, email, studentID string) models.Student {
	t.Helper()
	student := models.Student{FirstName: "Ana", LastName: "Lima", Email: email, StudentID: studentID}
	require.NoError(t, db.Create(&student).Error)
	return student
}
