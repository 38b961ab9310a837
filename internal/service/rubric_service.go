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
	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// ErrCourseNotFound indicates the course does not exist within the caller's account.
var ErrCourseNotFound = errors.New("course not found")

// ErrRubricNotFound indicates the rubric does not exist within the course.
var ErrRubricNotFound = errors.New("rubric not found")

// ErrRubricInUse indicates the rubric has assessments and cannot be deleted or restructured.
var ErrRubricInUse = errors.New("rubric has existing assessments")

// ErrNoRubricAttached indicates the assignment has no rubric to assess with.
var ErrNoRubricAttached = errors.New("assignment has no rubric attached")

// ErrInvalidCriterionScore indicates a score references a criterion or rating
// outside the rubric, or scores the same criterion twice.
var ErrInvalidCriterionScore = errors.New("criterion score does not match the rubric")

// ErrIncompleteAssessment indicates not every criterion received a score.
var ErrIncompleteAssessment = errors.New("assessment must score every criterion")

// ErrAssessmentNotFound indicates no assessment exists for the submission.
var ErrAssessmentNotFound = errors.New("rubric assessment not found")

// RubricService manages rubric templates and rubric-based grading.
type RubricService interface {
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error)
	Get(ctx context.Context, actor Actor, courseID, rubricID uint) (dto.RubricResponse, error)
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.RubricResponse, error)
	Update(ctx context.Context, actor Actor, courseID, rubricID uint, payload dto.RubricUpdateRequest) (dto.RubricResponse, error)
	Delete(ctx context.Context, actor Actor, courseID, rubricID uint) error
	Duplicate(ctx context.Context, actor Actor, courseID, rubricID uint) (dto.RubricResponse, error)
	Assess(ctx context.Context, actor Actor, submissionID uint, payload dto.AssessSubmissionRequest) (dto.AssessmentResponse, error)
	GetAssessment(ctx context.Context, actor Actor, submissionID uint) (dto.AssessmentResponse, error)
}

type rubricService struct {
	rubrics     repository.RubricRepository
	submissions repository.SubmissionRepository
	courses     repository.CourseRepository
	authz       AuthzService
	aggregator  GradeAggregator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRubricService constructs the rubric service.
func NewRubricService(rubrics repository.RubricRepository, submissions repository.SubmissionRepository, courses repository.CourseRepository, authz AuthzService, aggregator GradeAggregator, validator *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:     rubrics,
		submissions: submissions,
		courses:     courses,
		authz:       authz,
		aggregator:  aggregator,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "rubric_service").Logger(),
		now:         time.Now,
	}
}

// requireInstructor resolves the course within the actor's account and checks
// instructor capability on it.
func (s *rubricService) requireInstructor(ctx context.Context, actor Actor, courseID uint) error {
	if _, err := s.courses.GetByID(ctx, actor.AccountID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, courseID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotCourseInstructor
	}
	return nil
}

func (s *rubricService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return dto.RubricResponse{}, err
	}

	createdBy := actor.UserID
	rubric := models.Rubric{
		CourseID:    courseID,
		Title:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		IsReusable:  true,
		CreatedBy:   &createdBy,
		Criteria:    s.buildCriteria(payload.Criteria),
	}
	if payload.IsReusable != nil {
		rubric.IsReusable = *payload.IsReusable
	}

	if err := s.rubrics.Create(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Uint("course_id", courseID).Msg("rubric created")
	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Get(ctx context.Context, actor Actor, courseID, rubricID uint) (dto.RubricResponse, error) {
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric, err := s.rubrics.GetByID(ctx, courseID, rubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.RubricResponse, error) {
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return nil, err
	}

	rubrics, err := s.rubrics.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewRubricResponseSlice(rubrics), nil
}

// Update mutates a rubric. A non-nil Criteria slice replaces the whole tree,
// which is refused once assessments reference the existing criteria.
func (s *rubricService) Update(ctx context.Context, actor Actor, courseID, rubricID uint, payload dto.RubricUpdateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric, err := s.rubrics.GetByID(ctx, courseID, rubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	if payload.Criteria != nil {
		assessed, err := s.rubrics.HasAssessments(ctx, rubric.ID)
		if err != nil {
			return dto.RubricResponse{}, err
		}
		if assessed {
			return dto.RubricResponse{}, ErrRubricInUse
		}
	}

	if payload.Title != nil {
		rubric.Title = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if payload.Description != nil {
		rubric.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.IsReusable != nil {
		rubric.IsReusable = *payload.IsReusable
	}

	if err := s.rubrics.Update(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	if payload.Criteria != nil {
		if err := s.rubrics.ReplaceCriteria(ctx, rubric.ID, s.buildCriteria(payload.Criteria)); err != nil {
			return dto.RubricResponse{}, err
		}
	}

	updated, err := s.rubrics.GetByID(ctx, courseID, rubricID)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(updated), nil
}

// Delete removes an unused rubric. Rubrics with assessments are kept so past
// grades remain explainable.
func (s *rubricService) Delete(ctx context.Context, actor Actor, courseID, rubricID uint) error {
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return err
	}

	rubric, err := s.rubrics.GetByID(ctx, courseID, rubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRubricNotFound
		}
		return err
	}

	assessed, err := s.rubrics.HasAssessments(ctx, rubric.ID)
	if err != nil {
		return err
	}
	if assessed {
		return ErrRubricInUse
	}

	if err := s.rubrics.Delete(ctx, rubric.ID); err != nil {
		return err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Msg("rubric deleted")
	return nil
}

// Duplicate clones a rubric and its tree so a template can be adjusted without
// disturbing assessments against the original.
func (s *rubricService) Duplicate(ctx context.Context, actor Actor, courseID, rubricID uint) (dto.RubricResponse, error) {
	if err := s.requireInstructor(ctx, actor, courseID); err != nil {
		return dto.RubricResponse{}, err
	}

	source, err := s.rubrics.GetByID(ctx, courseID, rubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	createdBy := actor.UserID
	copyRubric := models.Rubric{
		CourseID:    source.CourseID,
		Title:       source.Title + " (Copy)",
		Description: source.Description,
		IsReusable:  source.IsReusable,
		CreatedBy:   &createdBy,
	}
	for _, criterion := range source.Criteria {
		criterionCopy := models.RubricCriterion{
			Title:          criterion.Title,
			Description:    criterion.Description,
			Position:       criterion.Position,
			PointsPossible: criterion.PointsPossible,
		}
		for _, rating := range criterion.Ratings {
			criterionCopy.Ratings = append(criterionCopy.Ratings, models.RubricRating{
				Label:       rating.Label,
				Description: rating.Description,
				Points:      rating.Points,
				Position:    rating.Position,
			})
		}
		copyRubric.Criteria = append(copyRubric.Criteria, criterionCopy)
	}

	if err := s.rubrics.Create(ctx, &copyRubric); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Uint("source_rubric_id", source.ID).Uint("rubric_id", copyRubric.ID).Msg("rubric duplicated")
	return dto.NewRubricResponse(copyRubric), nil
}

// Assess grades a submission with its assignment's rubric. The score set must
// cover every criterion exactly once; reassessment replaces the previous score
// set whole, and the resulting grade publishes immediately.
func (s *rubricService) Assess(ctx context.Context, actor Actor, submissionID uint, payload dto.AssessSubmissionRequest) (dto.AssessmentResponse, error) {
	tracer := otel.Tracer("github.com/syllabex/syllabex-api/internal/service/rubric")
	ctx, span := tracer.Start(ctx, "grading.rubric")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.UserID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssessmentResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, actor.AccountID, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.AssessmentResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	if submission.Assignment.RubricID == nil {
		span.SetStatus(codes.Error, "no_rubric")
		return dto.AssessmentResponse{}, ErrNoRubricAttached
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, submission.Assignment.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}
	if !allowed {
		span.SetStatus(codes.Error, "not_instructor")
		return dto.AssessmentResponse{}, ErrNotCourseInstructor
	}

	rubric, err := s.rubrics.GetByID(ctx, submission.Assignment.CourseID, *submission.Assignment.RubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "rubric_not_found")
			return dto.AssessmentResponse{}, ErrRubricNotFound
		}
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	scores, total, err := s.resolveScores(rubric, payload.CriterionScores)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_scores")
		return dto.AssessmentResponse{}, err
	}

	gradedBy := actor.UserID
	assessment := models.RubricAssessment{
		SubmissionID: submission.ID,
		RubricID:     rubric.ID,
		TotalScore:   float64(total),
		GradedBy:     &gradedBy,
		GradedAt:     s.now(),
	}

	if err := s.rubrics.SaveAssessment(ctx, &assessment, scores); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assessment_save_failed")
		return dto.AssessmentResponse{}, err
	}

	trigger := GradeTrigger{Source: GradeSourceRubric, GradedBy: &gradedBy, RubricGraded: true}
	if err := s.aggregator.Recalculate(ctx, submission, trigger); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("grade aggregation failed after rubric assessment")
	}

	stored, err := s.rubrics.GetAssessmentBySubmission(ctx, submission.ID)
	if err != nil {
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("rubric_id", rubric.ID).
		Float64("total_score", stored.TotalScore).
		Msg("submission assessed with rubric")

	return dto.NewAssessmentResponse(stored), nil
}

// GetAssessment returns the rubric assessment for a submission. Instructors of
// the course see it any time; the submitting student only after the deadline,
// so rubric feedback cannot leak mid-window.
func (s *rubricService) GetAssessment(ctx context.Context, actor Actor, submissionID uint) (dto.AssessmentResponse, error) {
	submission, err := s.submissions.GetByID(ctx, actor.AccountID, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrSubmissionNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if submission.StudentID == actor.UserID {
		if !submission.Assignment.IsOverdue(s.now()) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
	} else {
		allowed, err := s.authz.IsCourseInstructor(ctx, actor, submission.Assignment.CourseID)
		if err != nil {
			return dto.AssessmentResponse{}, err
		}
		if !allowed {
			return dto.AssessmentResponse{}, ErrSubmissionNotFound
		}
	}

	assessment, err := s.rubrics.GetAssessmentBySubmission(ctx, submission.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

// resolveScores validates the score set against the rubric tree and returns
// the rows to persist plus the derived total.
func (s *rubricService) resolveScores(rubric models.Rubric, requests []dto.CriterionScoreRequest) ([]models.RubricCriterionScore, int, error) {
	criterionByID := make(map[uint]models.RubricCriterion, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		criterionByID[criterion.ID] = criterion
	}

	scores := make([]models.RubricCriterionScore, 0, len(requests))
	seen := make(map[uint]bool, len(requests))
	total := 0

	for _, request := range requests {
		criterion, ok := criterionByID[request.CriterionID]
		if !ok || seen[request.CriterionID] {
			return nil, 0, ErrInvalidCriterionScore
		}
		seen[request.CriterionID] = true

		rating := criterion.RatingByID(request.RatingID)
		if rating == nil {
			return nil, 0, ErrInvalidCriterionScore
		}

		total += rating.Points
		scores = append(scores, models.RubricCriterionScore{
			CriterionID:      criterion.ID,
			SelectedRatingID: rating.ID,
			Comments:         strings.TrimSpace(s.sanitizer.Sanitize(request.Comments)),
		})
	}

	if len(seen) != len(rubric.Criteria) {
		return nil, 0, ErrIncompleteAssessment
	}

	return scores, total, nil
}

func (s *rubricService) buildCriteria(requests []dto.RubricCriterionRequest) []models.RubricCriterion {
	criteria := make([]models.RubricCriterion, 0, len(requests))
	for _, request := range requests {
		criterion := models.RubricCriterion{
			Title:          strings.TrimSpace(s.sanitizer.Sanitize(request.Title)),
			Description:    strings.TrimSpace(s.sanitizer.Sanitize(request.Description)),
			Position:       request.Order,
			PointsPossible: request.PointsPossible,
		}
		for _, rating := range request.Ratings {
			criterion.Ratings = append(criterion.Ratings, models.RubricRating{
				Label:       strings.TrimSpace(s.sanitizer.Sanitize(rating.Label)),
				Description: strings.TrimSpace(s.sanitizer.Sanitize(rating.Description)),
				Points:      rating.Points,
				Position:    rating.Order,
			})
		}
		criteria = append(criteria, criterion)
	}
	return criteria
}
