package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// ErrInvalidDates indicates the start date falls after the due date.
var ErrInvalidDates = errors.New("start date must not be after due date")

// ErrAssignmentLocked indicates the assignment's start date has passed and it
// can no longer be modified.
var ErrAssignmentLocked = errors.New("assignment is no longer editable")

// ErrInvalidQuestion indicates a question payload cannot be graded as written.
var ErrInvalidQuestion = errors.New("question configuration is invalid")

// ErrNotCourseMember indicates the caller has no active membership in the course.
var ErrNotCourseMember = errors.New("not a member of this course")

// AssignmentService manages assignment authoring and retrieval.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Get(ctx context.Context, actor Actor, assignmentID uint) (dto.AssignmentResponse, error)
	ListByCourse(ctx context.Context, actor Actor, courseID uint, assignmentType *models.AssignmentType) ([]dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, assignmentID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, assignmentID uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	rubrics     repository.RubricRepository
	courses     repository.CourseRepository
	authz       AuthzService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, rubrics repository.RubricRepository, courses repository.CourseRepository, authz AuthzService, validator *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		rubrics:     rubrics,
		courses:     courses,
		authz:       authz,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, actor.AccountID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, courseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !allowed {
		return dto.AssignmentResponse{}, ErrNotCourseInstructor
	}

	if err := validateDates(payload.StartDate, payload.DueDate); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if err := s.checkRubric(ctx, courseID, payload.RubricID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	questions, err := s.buildQuestions(payload.Questions)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID:       courseID,
		Type:           payload.Type,
		Title:          strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		StartDate:      payload.StartDate,
		DueDate:        payload.DueDate,
		PointsPossible: payload.PointsPossible,
		RubricID:       payload.RubricID,
		Questions:      questions,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("course_id", courseID).
		Str("type", string(assignment.Type)).
		Int("questions", len(assignment.Questions)).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, s.now(), true), nil
}

// Get returns an assignment. Instructors see the full definition including
// answer keys; students see it without answers, and only once it has started.
func (s *assignmentService) Get(ctx context.Context, actor Actor, assignmentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	now := s.now()

	instructor, err := s.authz.IsCourseInstructor(ctx, actor, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if instructor {
		return dto.NewAssignmentResponse(assignment, now, true), nil
	}

	enrolled, err := s.authz.IsActiveStudent(ctx, actor, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !enrolled {
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}
	if !assignment.HasStarted(now) {
		return dto.AssignmentResponse{}, ErrAssignmentNotStarted
	}

	return dto.NewAssignmentResponse(assignment, now, false), nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, actor Actor, courseID uint, assignmentType *models.AssignmentType) ([]dto.AssignmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, actor.AccountID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	instructor, err := s.authz.IsCourseInstructor(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if !instructor {
		enrolled, err := s.authz.IsActiveStudent(ctx, actor, courseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, ErrNotCourseMember
		}
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID, repository.AssignmentFilter{Type: assignmentType})
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments, s.now()), nil
}

// Update mutates an assignment while its start date has not passed. A non-nil
// Questions slice replaces the whole question set; responses against replaced
// questions cannot exist yet because nothing can be submitted before the start.
func (s *assignmentService) Update(ctx context.Context, actor Actor, assignmentID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !allowed {
		return dto.AssignmentResponse{}, ErrNotCourseInstructor
	}

	now := s.now()
	if !assignment.IsEditable(now) {
		return dto.AssignmentResponse{}, ErrAssignmentLocked
	}

	if payload.Type != nil {
		assignment.Type = *payload.Type
	}
	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if payload.Description != nil {
		assignment.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.StartDate != nil {
		assignment.StartDate = payload.StartDate
	}
	if payload.DueDate != nil {
		assignment.DueDate = *payload.DueDate
	}
	if payload.PointsPossible != nil {
		assignment.PointsPossible = *payload.PointsPossible
	}
	if payload.RubricID != nil {
		if err := s.checkRubric(ctx, assignment.CourseID, payload.RubricID); err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.RubricID = payload.RubricID
	}

	if err := validateDates(assignment.StartDate, assignment.DueDate); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Questions != nil {
		questions, err := s.buildQuestions(payload.Questions)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		if err := s.assignments.ReplaceQuestions(ctx, assignment.ID, questions); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	updated, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")
	return dto.NewAssignmentResponse(updated, now, true), nil
}

// Delete removes an assignment that has not started yet. Once students can
// submit, the assignment and its ledger are permanent.
func (s *assignmentService) Delete(ctx context.Context, actor Actor, assignmentID uint) error {
	assignment, err := s.assignments.GetByID(ctx, actor.AccountID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, assignment.CourseID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotCourseInstructor
	}

	if !assignment.IsEditable(s.now()) {
		return ErrAssignmentLocked
	}

	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) checkRubric(ctx context.Context, courseID uint, rubricID *uint) error {
	if rubricID == nil {
		return nil
	}
	if _, err := s.rubrics.GetByID(ctx, courseID, *rubricID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRubricNotFound
		}
		return err
	}
	return nil
}

// buildQuestions converts question payloads, enforcing that every question can
// actually be graded: multiple-choice questions need at least two choices with
// exactly one marked correct, numerical questions need an answer key.
func (s *assignmentService) buildQuestions(requests []dto.QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(requests))
	for _, request := range requests {
		question := models.Question{
			Type:          request.Type,
			Text:          strings.TrimSpace(s.sanitizer.Sanitize(request.Text)),
			Points:        request.Points,
			Position:      request.Order,
			CorrectAnswer: request.CorrectAnswer,
			Tolerance:     request.Tolerance,
		}

		switch request.Type {
		case models.QuestionTypeMultipleChoice:
			if len(request.Choices) < 2 {
				return nil, ErrInvalidQuestion
			}
			correct := 0
			for _, choice := range request.Choices {
				if choice.IsCorrect {
					correct++
				}
				question.Choices = append(question.Choices, models.Choice{
					Text:      strings.TrimSpace(s.sanitizer.Sanitize(choice.Text)),
					IsCorrect: choice.IsCorrect,
					Position:  choice.Order,
				})
			}
			if correct != 1 {
				return nil, ErrInvalidQuestion
			}
		case models.QuestionTypeNumerical:
			if request.CorrectAnswer == nil {
				return nil, ErrInvalidQuestion
			}
		}

		questions = append(questions, question)
	}
	return questions, nil
}

func validateDates(start *time.Time, due time.Time) error {
	if start != nil && start.After(due) {
		return ErrInvalidDates
	}
	return nil
}
