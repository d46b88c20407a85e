package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/guru-go-api/internal/config"
	"github.com/noah-isme/guru-go-api/internal/database"
	"github.com/noah-isme/guru-go-api/internal/handler"
	"github.com/noah-isme/guru-go-api/internal/middleware"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/internal/router"
	"github.com/noah-isme/guru-go-api/internal/service"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

const sseKeepAlive = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.LessonPlan{},
		&models.StudentProgress{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node notification fanout disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	assistant, err := buildAssistant(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create AI assistant: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	lessonPlanRepo := repository.NewLessonPlanRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, "guru", natsConn, validate, logger)

	studentService := service.NewStudentService(studentRepo, submissionRepo, quizRepo, assignmentRepo, progressRepo, redisClient, cfg.AnalyticsCacheTTL, validate, logger)
	courseService := service.NewCourseService(courseRepo, assignmentRepo, submissionRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, assistant, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, assistant, notificationService, redisClient, cfg.GradeJobBudget(), validate, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, studentRepo, assistant, validate, logger)
	lessonPlanService := service.NewLessonPlanService(lessonPlanRepo, courseRepo, assistant, validate, logger)
	seedService := service.NewSeedService(studentRepo, courseRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	fanoutCtx, stopFanout := context.WithCancel(context.Background())
	defer stopFanout()
	notificationService.Start(fanoutCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		LessonPlanHandler:   handler.NewLessonPlanHandler(lessonPlanService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, sseKeepAlive),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, submissionService, stopFanout)
}

func buildAssistant(cfg config.Config, logger zerolog.Logger) (*ai.Assistant, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: cfg.AIMaxRetries,
			Backoff:    cfg.AIBackoff,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return ai.NewAssistant(generator, logger), nil
	default:
		client, err := ai.NewOllamaClient(ai.OllamaConfig{
			BaseURL:    cfg.OllamaURL,
			Model:      cfg.OllamaModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: cfg.AIMaxRetries,
			Backoff:    cfg.AIBackoff,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return ai.NewAssistant(client, logger), nil
	}
}

func waitForShutdown(app *fiber.App, submissions service.SubmissionService, stopFanout context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// Let in-flight grading jobs land before the process exits.
	submissions.Wait()
	stopFanout()

	log.Println("server stopped")
}
