package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/syllabex/syllabex-api/internal/dto"
	"github.com/syllabex/syllabex-api/internal/models"
)

func gradingFixtures() (*fakeSubmissionRepo, *fakeCourseRepo, *fakeAggregator) {
	assignment := models.Assignment{
		ID:       2,
		CourseID: 1,
		Questions: []models.Question{
			{ID: 1, Type: models.QuestionTypeTextResponse, Points: 10},
			{ID: 2, Type: models.QuestionTypeTextResponse, Points: 5},
		},
	}

	submissions := &fakeSubmissionRepo{
		accountID: 1,
		submission: models.AssignmentSubmission{
			ID:           4,
			AssignmentID: 2,
			StudentID:    3,
			Assignment:   assignment,
			Responses: []models.QuestionResponse{
				{ID: 100, SubmissionID: 4, QuestionID: 1, ResponseText: "First essay"},
				{ID: 101, SubmissionID: 4, QuestionID: 2, ResponseText: "Second essay"},
			},
		},
		response: models.QuestionResponse{
			ID: 100, SubmissionID: 4, QuestionID: 1, ResponseText: "First essay",
			Question: models.Question{ID: 1, Type: models.QuestionTypeTextResponse, Points: 10},
		},
	}

	courses := &fakeCourseRepo{
		memberships: []models.CourseMembership{
			{ID: 6, CourseID: 1, UserID: 7, Role: models.RoleInstructor, Status: models.MembershipActive},
		},
	}

	return submissions, courses, &fakeAggregator{}
}

func newGradingService(submissions *fakeSubmissionRepo, courses *fakeCourseRepo, aggregator *fakeAggregator) GradingService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGradingService(submissions, NewAuthzService(courses), aggregator, validate, testLogger())
}

func TestGradeResponseRecordsManualGrade(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	result, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{
		PointsEarned:   7,
		TeacherRemarks: "Good structure, weak conclusion.",
	})
	require.NoError(t, err)

	require.Equal(t, 1, submissions.updateCalls)
	graded := submissions.response
	require.True(t, graded.Graded)
	require.Equal(t, 7, *graded.PointsEarned)
	require.False(t, *graded.IsCorrect)
	require.Equal(t, "Good structure, weak conclusion.", graded.TeacherRemarks)
	require.NotNil(t, graded.GradedAt)

	require.Equal(t, 7, result.Score)
	require.Equal(t, models.GradingStatusPartial, result.GradingStatus)

	require.Len(t, aggregator.calls, 1)
	require.Equal(t, GradeSourceManual, aggregator.calls[0].Source)
	require.Equal(t, uint(7), *aggregator.calls[0].GradedBy)
}

func TestGradeResponseFullMarksSetsCorrect(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	_, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 10})
	require.NoError(t, err)
	require.True(t, *submissions.response.IsCorrect)
}

func TestGradeResponseZeroPointQuestionIsCorrect(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	submissions.response.Question = models.Question{ID: 1, Type: models.QuestionTypeTextResponse, Points: 0}
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	_, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 0})
	require.NoError(t, err)
	require.True(t, *submissions.response.IsCorrect)
}

func TestGradeResponseRejectsExcessPoints(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	_, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 11})
	require.ErrorIs(t, err, ErrPointsExceedMax)
	require.Equal(t, 0, submissions.updateCalls)
	require.Empty(t, aggregator.calls)
}

func TestGradeResponseRejectsNonInstructors(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	svc := newGradingService(submissions, courses, aggregator)

	_, err := svc.GradeResponse(context.Background(), Actor{UserID: 3, AccountID: 1}, 100, dto.GradeResponseRequest{PointsEarned: 5})
	require.ErrorIs(t, err, ErrNotCourseInstructor)
}

func TestGradeResponseUnknownResponse(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	submissions.notFound = true
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	_, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 5})
	require.ErrorIs(t, err, ErrResponseNotFound)
}

func TestGradeResponseRegradeOverwrites(t *testing.T) {
	submissions, courses, aggregator := gradingFixtures()
	svc := newGradingService(submissions, courses, aggregator)
	actor := Actor{UserID: 7, AccountID: 1, Role: "teacher"}

	_, err := svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 4})
	require.NoError(t, err)
	_, err = svc.GradeResponse(context.Background(), actor, 100, dto.GradeResponseRequest{PointsEarned: 9, TeacherRemarks: "Revised after appeal"})
	require.NoError(t, err)

	require.Equal(t, 2, submissions.updateCalls)
	require.Equal(t, 9, *submissions.response.PointsEarned)
	require.Equal(t, "Revised after appeal", submissions.response.TeacherRemarks)
	require.Len(t, aggregator.calls, 2)
}
