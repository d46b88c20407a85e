package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/guru-go-api/internal/config"
	"github.com/noah-isme/guru-go-api/internal/handler"
	"github.com/noah-isme/guru-go-api/internal/middleware"
	"github.com/noah-isme/guru-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler      *handler.StudentHandler
	CourseHandler       *handler.CourseHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	QuizHandler         *handler.QuizHandler
	LessonPlanHandler   *handler.LessonPlanHandler
	NotificationHandler *handler.NotificationHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	generateLimiter := middleware.RateLimit("generate", cfg.GenerateRateLimit, time.Minute)

	// Staff own the roster, course catalog, and generated content. Students
	// keep write access to their own submissions and quiz attempts.
	teacherWrites := middleware.RequireTeacherForWrites()

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware, teacherWrites))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses", jwtMiddleware, teacherWrites))
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, teacherWrites)
		assignments.Use("/:id/generate-questions", generateLimiter)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		submissions.Use("/grade", middleware.RequireTeacher())
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.QuizHandler != nil {
		quizzes := api.Group("/quizzes", jwtMiddleware, middleware.RequireTeacherForWrites("/api/v1/quizzes/attempts"))
		quizzes.Use("/generate", generateLimiter)
		deps.QuizHandler.Register(quizzes)
	}

	if deps.LessonPlanHandler != nil {
		plans := api.Group("/lesson-plans", jwtMiddleware, teacherWrites)
		plans.Use("/generate", generateLimiter)
		deps.LessonPlanHandler.Register(plans)
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
