package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/observability"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// Grading sources recorded in the history trail.
const (
	GradeSourceAuto   = "auto"
	GradeSourceManual = "manual"
	GradeSourceRubric = "rubric"
)

// GradeTrigger describes the grading event that caused a recalculation.
type GradeTrigger struct {
	Source       string
	GradedBy     *uint
	RubricGraded bool
}

// GradeAggregator recomputes the authoritative grade entry for a submission.
// It is the only writer of grade entries; every grading path funnels through
// Recalculate so the gradebook can never drift from the ledger.
type GradeAggregator interface {
	Recalculate(ctx context.Context, submission models.AssignmentSubmission, trigger GradeTrigger) error
}

type gradeAggregator struct {
	grades  repository.GradeRepository
	rubrics repository.RubricRepository
	courses repository.CourseRepository
	cache   *redis.Client
	logger  zerolog.Logger
	now     func() time.Time
}

// NewGradeAggregator constructs the aggregator. A nil cache skips gradebook
// invalidation.
func NewGradeAggregator(grades repository.GradeRepository, rubrics repository.RubricRepository, courses repository.CourseRepository, cache *redis.Client, logger zerolog.Logger) GradeAggregator {
	return &gradeAggregator{
		grades:  grades,
		rubrics: rubrics,
		courses: courses,
		cache:   cache,
		logger:  logger.With().Str("component", "grade_aggregator").Logger(),
		now:     time.Now,
	}
}

// Recalculate folds the submission's question score and any rubric assessment
// into a single grade entry. Rubric-triggered recalculations publish
// unconditionally; question-triggered ones wait until every question has been
// graded, so a half-graded quiz never leaks a partial grade into the gradebook.
// The submission must carry its Assignment (with Questions) and Responses.
func (a *gradeAggregator) Recalculate(ctx context.Context, submission models.AssignmentSubmission, trigger GradeTrigger) error {
	membership, err := a.courses.GetActiveMembership(ctx, submission.Assignment.CourseID, submission.StudentID, models.RoleStudent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The student left or dropped the course; grading results stay
			// on the submission but there is no gradebook row to feed.
			a.logger.Warn().
				Uint("submission_id", submission.ID).
				Uint("student_id", submission.StudentID).
				Msg("no active student membership for graded submission, skipping grade entry")
			return nil
		}
		return err
	}

	publish := trigger.RubricGraded || submission.IsFullyGraded(len(submission.Assignment.Questions))
	observability.GradingEvents().WithLabelValues(trigger.Source, strconv.FormatBool(publish)).Inc()
	if !publish {
		a.logger.Debug().
			Uint("submission_id", submission.ID).
			Int("graded", submission.GradedCount()).
			Int("questions", len(submission.Assignment.Questions)).
			Msg("submission not fully graded, withholding grade entry")
		return nil
	}

	grade := float64(submission.CalculateScore())
	assessment, err := a.rubrics.GetAssessmentBySubmission(ctx, submission.ID)
	switch {
	case err == nil:
		grade += assessment.TotalScore
	case errors.Is(err, gorm.ErrRecordNotFound):
		// question score only
	default:
		return err
	}

	gradedAt := a.now()
	entry := models.GradeEntry{
		MembershipID: membership.ID,
		AssignmentID: submission.AssignmentID,
		Grade:        grade,
		GradedBy:     trigger.GradedBy,
		Comments:     gradeComment(trigger.Source),
		GradedAt:     gradedAt,
	}

	if err := a.grades.Upsert(ctx, &entry); err != nil {
		return err
	}

	if a.cache != nil {
		if err := a.cache.Del(ctx, gradebookCacheKey(submission.Assignment.CourseID)).Err(); err != nil {
			a.logger.Warn().Err(err).
				Uint("course_id", submission.Assignment.CourseID).
				Msg("failed to invalidate gradebook cache")
		}
	}

	history := models.GradeHistory{
		MembershipID: membership.ID,
		AssignmentID: submission.AssignmentID,
		Grade:        grade,
		Source:       trigger.Source,
		GradedBy:     trigger.GradedBy,
		GradedAt:     gradedAt,
	}
	if err := a.grades.AppendHistory(ctx, &history); err != nil {
		return err
	}

	a.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("membership_id", membership.ID).
		Uint("assignment_id", submission.AssignmentID).
		Float64("grade", grade).
		Str("source", trigger.Source).
		Msg("grade entry updated")

	return nil
}

func gradeComment(source string) string {
	switch source {
	case GradeSourceAuto:
		return "Auto-graded"
	case GradeSourceRubric:
		return "Rubric graded"
	default:
		return "Graded"
	}
}
