package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// ErrResponseNotFound indicates the question response was not located.
var ErrResponseNotFound = errors.New("question response not found")

// ErrPointsExceedMax indicates a manual grade surpasses the question's points.
var ErrPointsExceedMax = errors.New("points exceed question maximum")

// GradingService encapsulates manual grading of individual question responses.
type GradingService interface {
	GradeResponse(ctx context.Context, actor Actor, responseID uint, payload dto.GradeResponseRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	authz       AuthzService
	aggregator  GradeAggregator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the manual grading service.
func NewGradingService(submissions repository.SubmissionRepository, authz AuthzService, aggregator GradeAggregator, validator *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		authz:       authz,
		aggregator:  aggregator,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// GradeResponse records an instructor's grade for one question response.
// Regrading overwrites the previous grade in place; the aggregator then
// decides whether the submission as a whole is ready to publish.
func (s *gradingService) GradeResponse(ctx context.Context, actor Actor, responseID uint, payload dto.GradeResponseRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/syllabex/syllabex-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.manual")
	span.SetAttributes(
		attribute.Int64("grading.response_id", int64(responseID)),
		attribute.Int64("grading.actor_id", int64(actor.UserID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	response, submission, err := s.submissions.GetResponse(ctx, actor.AccountID, responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "response_not_found")
			return dto.SubmissionResponse{}, ErrResponseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "response_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, submission.Assignment.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authz_failed")
		return dto.SubmissionResponse{}, err
	}
	if !allowed {
		span.SetStatus(codes.Error, "not_instructor")
		return dto.SubmissionResponse{}, ErrNotCourseInstructor
	}

	maxPoints := response.Question.Points
	if payload.PointsEarned > maxPoints {
		span.SetStatus(codes.Error, "points_exceed_max")
		return dto.SubmissionResponse{}, ErrPointsExceedMax
	}

	points := payload.PointsEarned
	correct := points == maxPoints
	gradedAt := s.now()

	response.PointsEarned = &points
	response.IsCorrect = &correct
	response.Graded = true
	response.TeacherRemarks = strings.TrimSpace(s.sanitizer.Sanitize(payload.TeacherRemarks))
	response.GradedAt = &gradedAt

	if err := s.submissions.UpdateResponse(ctx, &response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response_update_failed")
		return dto.SubmissionResponse{}, err
	}

	for i := range submission.Responses {
		if submission.Responses[i].ID == response.ID {
			submission.Responses[i] = response
			break
		}
	}

	gradedBy := actor.UserID
	trigger := GradeTrigger{Source: GradeSourceManual, GradedBy: &gradedBy}
	if err := s.aggregator.Recalculate(ctx, submission, trigger); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("grade aggregation failed after manual grade")
	}

	s.logger.Info().
		Uint("response_id", response.ID).
		Uint("submission_id", submission.ID).
		Uint("graded_by", actor.UserID).
		Int("points", points).
		Msg("response graded")

	return dto.NewSubmissionResponse(submission), nil
}
