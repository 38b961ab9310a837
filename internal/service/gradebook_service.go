package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// ErrStudentNotFound indicates the requested student does not exist within the
// caller's account.
var ErrStudentNotFound = errors.New("student not found")

// ErrGradesNotVisible indicates the caller may not read the requested grades.
var ErrGradesNotVisible = errors.New("grades not visible to caller")

// GradebookService produces the course gradebook matrix and per-student grade
// views from published grade entries.
type GradebookService interface {
	GetGradebook(ctx context.Context, actor Actor, courseID uint) (dto.GradebookResponse, error)
	GetStudentGrades(ctx context.Context, actor Actor, studentID uint) ([]dto.StudentGradeEntry, error)
}

type gradebookService struct {
	grades      repository.GradeRepository
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	authz       AuthzService
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewGradebookService constructs the gradebook service. A nil cache disables
// caching without changing behaviour.
func NewGradebookService(grades repository.GradeRepository, assignments repository.AssignmentRepository, courses repository.CourseRepository, authz AuthzService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		grades:      grades,
		assignments: assignments,
		courses:     courses,
		authz:       authz,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
	}
}

// GetGradebook returns the {student, assignment} matrix for a course. Only
// published grade entries appear; ungraded cells come back with nil values.
// The matrix is cached briefly since it fans out over every enrolment.
func (s *gradebookService) GetGradebook(ctx context.Context, actor Actor, courseID uint) (dto.GradebookResponse, error) {
	course, err := s.courses.GetByID(ctx, actor.AccountID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradebookResponse{}, ErrCourseNotFound
		}
		return dto.GradebookResponse{}, err
	}

	allowed, err := s.authz.IsCourseInstructor(ctx, actor, courseID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}
	if !allowed {
		return dto.GradebookResponse{}, ErrNotCourseInstructor
	}

	cacheKey := gradebookCacheKey(courseID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradebookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("course_id", courseID).Msg("gradebook cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID, repository.AssignmentFilter{})
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	students, err := s.courses.ListActiveStudents(ctx, courseID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	entries, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	response := buildGradebook(course, assignments, students, entries)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return response, nil
}

// GetStudentGrades returns a student's published grades. Students see their
// own, account admins see anyone's, and instructors see grades limited to the
// courses they teach.
func (s *gradebookService) GetStudentGrades(ctx context.Context, actor Actor, studentID uint) ([]dto.StudentGradeEntry, error) {
	student, err := s.courses.GetUser(ctx, actor.AccountID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	var courseIDs []uint
	switch {
	case actor.UserID == student.ID || s.authz.IsAccountAdmin(actor):
		// unrestricted within the account
	default:
		courseIDs, err = s.courses.ListInstructedCourseIDs(ctx, actor.AccountID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if len(courseIDs) == 0 {
			return nil, ErrGradesNotVisible
		}
	}

	entries, err := s.grades.ListByStudent(ctx, actor.AccountID, student.ID, courseIDs)
	if err != nil {
		return nil, err
	}

	grades := make([]dto.StudentGradeEntry, 0, len(entries))
	for _, entry := range entries {
		grades = append(grades, dto.NewStudentGradeEntry(entry))
	}
	return grades, nil
}

// gradebookCacheKey is shared with the grade aggregator, which deletes the
// key whenever it upserts a grade entry for the course.
func gradebookCacheKey(courseID uint) string {
	return fmt.Sprintf("gradebook:course:%d", courseID)
}

func buildGradebook(course models.Course, assignments []models.Assignment, students []models.CourseMembership, entries []models.GradeEntry) dto.GradebookResponse {
	response := dto.GradebookResponse{
		CourseID:   course.ID,
		CourseCode: course.Code,
		CourseName: course.Name,
	}

	for _, assignment := range assignments {
		response.Assignments = append(response.Assignments, dto.GradebookAssignmentHeader{
			ID:             assignment.ID,
			Title:          assignment.Title,
			Type:           assignment.Type,
			DueDate:        assignment.DueDate,
			PointsPossible: assignment.PointsPossible,
		})
	}

	entryByCell := make(map[uint]map[uint]models.GradeEntry, len(students))
	for _, entry := range entries {
		if entryByCell[entry.MembershipID] == nil {
			entryByCell[entry.MembershipID] = make(map[uint]models.GradeEntry)
		}
		entryByCell[entry.MembershipID][entry.AssignmentID] = entry
	}

	for _, membership := range students {
		row := dto.GradebookStudentRow{
			MembershipID: membership.ID,
			UserID:       membership.UserID,
			StudentName:  membership.User.Name,
			StudentEmail: membership.User.Email,
		}

		for _, assignment := range assignments {
			cell := dto.GradeCell{
				AssignmentID:    assignment.ID,
				AssignmentTitle: assignment.Title,
				PointsPossible:  assignment.PointsPossible,
			}
			if entry, ok := entryByCell[membership.ID][assignment.ID]; ok {
				grade := entry.Grade
				percentage := entry.Percentage()
				letter := entry.LetterGrade()
				gradedAt := entry.GradedAt
				cell.Grade = &grade
				cell.Percentage = &percentage
				cell.LetterGrade = &letter
				cell.GradedAt = &gradedAt
			}
			row.Grades = append(row.Grades, cell)
		}

		response.Students = append(response.Students, row)
	}

	return response
}
