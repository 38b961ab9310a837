package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/syllabex/syllabex-api/internal/config"
	"github.com/syllabex/syllabex-api/internal/database"
	"github.com/syllabex/syllabex-api/internal/handler"
	"github.com/syllabex/syllabex-api/internal/middleware"
	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
	"github.com/syllabex/syllabex-api/internal/router"
	"github.com/syllabex/syllabex-api/internal/service"
)

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
		&models.User{},
		&models.Course{},
		&models.CourseMembership{},
		&models.Assignment{},
		&models.Question{},
		&models.Choice{},
		&models.AssignmentSubmission{},
		&models.QuestionResponse{},
		&models.Rubric{},
		&models.RubricCriterion{},
		&models.RubricRating{},
		&models.RubricAssessment{},
		&models.RubricCriterionScore{},
		&models.GradeEntry{},
		&models.GradeHistory{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	authz := service.NewAuthzService(courseRepo)
	aggregator := service.NewGradeAggregator(gradeRepo, rubricRepo, courseRepo, redisClient, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, rubricRepo, courseRepo, authz, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, authz, aggregator, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, authz, aggregator, validate, logger)
	rubricService := service.NewRubricService(rubricRepo, submissionRepo, courseRepo, authz, aggregator, validate, logger)
	gradebookService := service.NewGradebookService(gradeRepo, assignmentRepo, courseRepo, authz, redisClient, cfg.GradebookCacheTTL, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, logger)
	rubricHandler := handler.NewRubricHandler(rubricService, logger)
	gradebookHandler := handler.NewGradebookHandler(gradebookService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		RubricHandler:     rubricHandler,
		GradebookHandler:  gradebookHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
