package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/models"
)

func submissionFixtures() (*fakeSubmissionRepo, *fakeAssignmentRepo, *fakeCourseRepo, *fakeAggregator) {
	questions := []models.Question{
		{
			ID: 1, AssignmentID: 2, Type: models.QuestionTypeMultipleChoice, Points: 5, Position: 0,
			Choices: []models.Choice{
				{ID: 11, QuestionID: 1, Text: "Paris", IsCorrect: true},
				{ID: 12, QuestionID: 1, Text: "Lyon"},
			},
		},
		{
			ID: 2, AssignmentID: 2, Type: models.QuestionTypeNumerical, Points: 5, Position: 1,
			CorrectAnswer: floatPtr(10), Tolerance: floatPtr(0.5),
		},
		{ID: 3, AssignmentID: 2, Type: models.QuestionTypeTextResponse, Points: 10, Position: 2},
	}

	assignments := &fakeAssignmentRepo{
		accountID: 1,
		assignments: map[uint]models.Assignment{
			2: {
				ID:             2,
				CourseID:       1,
				Type:           models.AssignmentTypeQuiz,
				Title:          "Capitals",
				DueDate:        time.Now().Add(24 * time.Hour),
				PointsPossible: 20,
				Questions:      questions,
			},
		},
	}

	courses := &fakeCourseRepo{
		courses: map[uint]models.Course{1: {ID: 1, AccountID: 1, Code: "GEO101"}},
		memberships: []models.CourseMembership{
			{ID: 5, CourseID: 1, UserID: 3, Role: models.RoleStudent, Status: models.MembershipActive},
		},
	}

	return &fakeSubmissionRepo{accountID: 1}, assignments, courses, &fakeAggregator{}
}

func newSubmissionService(submissions *fakeSubmissionRepo, assignments *fakeAssignmentRepo, courses *fakeCourseRepo, aggregator *fakeAggregator) SubmissionService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(submissions, assignments, NewAuthzService(courses), aggregator, validate, testLogger())
}

func TestSubmitAutoGradesInline(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	result, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{
		AssignmentID: 2,
		Responses: []dto.AnswerRequest{
			{QuestionID: 1, ResponseText: "11"},
			{QuestionID: 2, ResponseText: "10.3"},
			{QuestionID: 3, ResponseText: "Because of the rivers."},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, submissions.created)
	require.Len(t, submissions.created.Responses, 3)
	require.False(t, result.IsLate)
	require.Equal(t, 10, result.Score)
	require.Equal(t, models.GradingStatusPartial, result.GradingStatus)
	require.False(t, result.FullyGraded)

	// text response waits for a human
	require.False(t, submissions.created.Responses[2].Graded)

	require.Len(t, aggregator.calls, 1)
	require.Equal(t, GradeSourceAuto, aggregator.calls[0].Source)
	require.Nil(t, aggregator.calls[0].GradedBy)
}

func TestSubmitRejectsBeforeStart(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	assignment := assignments.assignments[2]
	start := time.Now().Add(time.Hour)
	assignment.StartDate = &start
	assignments.assignments[2] = assignment

	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	_, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{AssignmentID: 2})
	require.ErrorIs(t, err, ErrAssignmentNotStarted)
	require.Nil(t, submissions.created)
}

func TestSubmitRejectsPastDue(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	assignment := assignments.assignments[2]
	assignment.DueDate = time.Now().Add(-time.Minute)
	assignments.assignments[2] = assignment

	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	_, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{AssignmentID: 2})
	require.ErrorIs(t, err, ErrAssignmentPastDue)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	submissions.createErr = gorm.ErrDuplicatedKey

	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	_, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{AssignmentID: 2})
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	require.Empty(t, aggregator.calls)
}

func TestSubmitRejectsNonStudents(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	svc := newSubmissionService(submissions, assignments, courses, aggregator)

	_, err := svc.Submit(context.Background(), Actor{UserID: 42, AccountID: 1}, dto.SubmitAssignmentRequest{AssignmentID: 2})
	require.ErrorIs(t, err, ErrNotCourseStudent)
}

func TestSubmitDropsForeignQuestionAnswers(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	_, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{
		AssignmentID: 2,
		Responses: []dto.AnswerRequest{
			{QuestionID: 1, ResponseText: "11"},
			{QuestionID: 999, ResponseText: "smuggled"},
		},
	})
	require.NoError(t, err)
	require.Len(t, submissions.created.Responses, 1)
	require.Equal(t, uint(1), submissions.created.Responses[0].QuestionID)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	svc := newSubmissionService(submissions, assignments, courses, aggregator)
	actor := Actor{UserID: 3, AccountID: 1, Role: "student"}

	_, err := svc.Submit(context.Background(), actor, dto.SubmitAssignmentRequest{AssignmentID: 77})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestGetScreensOutOtherStudents(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	submissions.submission = models.AssignmentSubmission{
		ID:           4,
		AssignmentID: 2,
		StudentID:    3,
		Assignment:   assignments.assignments[2],
	}

	svc := newSubmissionService(submissions, assignments, courses, aggregator)

	// owner reads fine
	_, err := svc.Get(context.Background(), Actor{UserID: 3, AccountID: 1}, 4)
	require.NoError(t, err)

	// a classmate does not
	_, err = svc.Get(context.Background(), Actor{UserID: 8, AccountID: 1}, 4)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	// an account admin does
	_, err = svc.Get(context.Background(), Actor{UserID: 8, AccountID: 1, Role: RoleAdmin}, 4)
	require.NoError(t, err)
}

func TestListByAssignmentRequiresInstructor(t *testing.T) {
	submissions, assignments, courses, aggregator := submissionFixtures()
	svc := newSubmissionService(submissions, assignments, courses, aggregator)

	_, err := svc.ListByAssignment(context.Background(), Actor{UserID: 3, AccountID: 1}, 2)
	require.ErrorIs(t, err, ErrNotCourseInstructor)

	courses.memberships = append(courses.memberships, models.CourseMembership{
		ID: 6, CourseID: 1, UserID: 7, Role: models.RoleInstructor, Status: models.MembershipActive,
	})
	_, err = svc.ListByAssignment(context.Background(), Actor{UserID: 7, AccountID: 1}, 2)
	require.NoError(t, err)
}
