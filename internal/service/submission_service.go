package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/observability"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// ErrAssignmentNotFound indicates the assignment does not exist within the
// caller's account.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates the submission does not exist within the
// caller's account.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrNotCourseStudent indicates the caller has no active student membership.
var ErrNotCourseStudent = errors.New("not an active student of this course")

// ErrNotCourseInstructor indicates the caller may not act as an instructor here.
var ErrNotCourseInstructor = errors.New("not an instructor of this course")

// ErrAssignmentNotStarted indicates submission was attempted before the window opened.
var ErrAssignmentNotStarted = errors.New("assignment has not started yet")

// ErrAssignmentPastDue indicates submission was attempted after the deadline.
var ErrAssignmentPastDue = errors.New("assignment is past due")

// ErrDuplicateSubmission indicates the student already submitted this assignment.
var ErrDuplicateSubmission = errors.New("assignment already submitted")

// SubmissionService drives the student submission pipeline and submission reads.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error)
	GetOwn(ctx context.Context, actor Actor, assignmentID uint) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, actor Actor, assignmentID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	authz       AuthzService
	aggregator  GradeAggregator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, authz AuthzService, aggregator GradeAggregator, validator *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		authz:       authz,
		aggregator:  aggregator,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit records a student's attempt. The availability window is enforced
// against a single reading of the clock, answers to questions outside the
// assignment are dropped, auto-gradable answers are graded inline, and the
// unique (assignment, student) constraint makes the attempt atomic even under
// concurrent duplicate submits.
func (s *submissionService) Submit(ctx context.Context, actor Actor, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, actor.AccountID, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrolled, err := s.authz.IsActiveStudent(ctx, actor, assignment.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotCourseStudent
	}

	now := s.now()
	if !assignment.HasStarted(now) {
		return dto.SubmissionResponse{}, ErrAssignmentNotStarted
	}
	if assignment.IsOverdue(now) {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	questionByID := make(map[uint]models.Question, len(assignment.Questions))
	for _, question := range assignment.Questions {
		questionByID[question.ID] = question
	}

	submission := models.AssignmentSubmission{
		AssignmentID: assignment.ID,
		StudentID:    actor.UserID,
		Answer:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Answer)),
		SubmittedAt:  now,
		IsLate:       assignment.IsOverdue(now),
	}

	for _, answer := range payload.Responses {
		question, ok := questionByID[answer.QuestionID]
		if !ok {
			s.logger.Warn().
				Uint("assignment_id", assignment.ID).
				Uint("question_id", answer.QuestionID).
				Msg("dropping answer to question outside assignment")
			continue
		}

		response := models.QuestionResponse{
			QuestionID:   question.ID,
			ResponseText: strings.TrimSpace(answer.ResponseText),
		}
		AutoGrade(question, &response, now)
		submission.Responses = append(submission.Responses, response)
	}

	if err := s.submissions.CreateWithResponses(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Assignment = assignment
	observability.Submissions().
		WithLabelValues(string(assignment.Type), strconv.FormatBool(submission.IsLate)).
		Inc()

	if err := s.aggregator.Recalculate(ctx, submission, GradeTrigger{Source: GradeSourceAuto}); err != nil {
		// The submission is already committed; a failed aggregation will be
		// repaired by the next grading event on this submission.
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("grade aggregation failed after submit")
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", actor.UserID).
		Int("responses", len(submission.Responses)).
		Msg("submission recorded")

	return dto.NewSubmissionResponse(submission), nil
}

// Get returns a single submission. Students may only read their own;
// instructors and admins may read any submission of courses they teach.
func (s *submissionService) Get(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, actor.AccountID, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.StudentID != actor.UserID {
		allowed, err := s.authz.IsCourseInstructor(ctx, actor, submission.Assignment.CourseID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if !allowed {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

// GetOwn returns the caller's submission for an assignment.
func (s *submissionService) GetOwn(ctx context.Context, actor Actor, assignmentID uint) (dto.SubmissionResponse, error) {
	if _, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// ListByAssignment returns all submissions for an assignment, for instructors.
func (s *submissionService) ListByAssignment(ctx context.Context, actor Actor, assignmentID uint) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotCourseInstructor
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}
