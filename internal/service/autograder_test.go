package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syllabex/syllabex-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func numericQuestion(answer, tolerance float64, points int) models.Question {
	return models.Question{
		Type:          models.QuestionTypeNumerical,
		Points:        points,
		CorrectAnswer: floatPtr(answer),
		Tolerance:     floatPtr(tolerance),
	}
}

func TestAutoGradeNumericalToleranceBoundary(t *testing.T) {
	question := numericQuestion(10.0, 0.5, 4)

	cases := []struct {
		answer  string
		correct bool
	}{
		{"10", true},
		{"9.5", true},
		{"10.5", true},
		{"9.49", false},
		{"10.51", false},
	}

	for _, tc := range cases {
		response := models.QuestionResponse{ResponseText: tc.answer}
		AutoGrade(question, &response, time.Now())

		require.True(t, response.Graded, tc.answer)
		require.NotNil(t, response.IsCorrect)
		require.Equal(t, tc.correct, *response.IsCorrect, tc.answer)
		if tc.correct {
			require.Equal(t, 4, *response.PointsEarned)
		} else {
			require.Zero(t, *response.PointsEarned)
		}
	}
}

func TestAutoGradeIsTotal(t *testing.T) {
	garbage := []string{"", "banana", "-12e99x", "NaN(", "  ", "12,5"}

	for _, answer := range garbage {
		numerical := models.QuestionResponse{ResponseText: answer}
		AutoGrade(numericQuestion(1, 0, 2), &numerical, time.Now())
		require.True(t, numerical.Graded, answer)
		require.False(t, *numerical.IsCorrect, answer)
		require.Zero(t, *numerical.PointsEarned, answer)

		choice := models.QuestionResponse{ResponseText: answer}
		AutoGrade(models.Question{
			Type:    models.QuestionTypeMultipleChoice,
			Points:  2,
			Choices: []models.Choice{{ID: 1, IsCorrect: true}, {ID: 2}},
		}, &choice, time.Now())
		require.True(t, choice.Graded, answer)
		require.False(t, *choice.IsCorrect, answer)
	}
}

func TestAutoGradeMultipleChoice(t *testing.T) {
	question := models.Question{
		Type:   models.QuestionTypeMultipleChoice,
		Points: 3,
		Choices: []models.Choice{
			{ID: 10}, {ID: 11, IsCorrect: true}, {ID: 12},
		},
	}

	right := models.QuestionResponse{ResponseText: "11"}
	AutoGrade(question, &right, time.Now())
	require.True(t, *right.IsCorrect)
	require.Equal(t, 3, *right.PointsEarned)

	wrong := models.QuestionResponse{ResponseText: "12"}
	AutoGrade(question, &wrong, time.Now())
	require.False(t, *wrong.IsCorrect)
	require.Zero(t, *wrong.PointsEarned)

	// A choice id from some other question is just a wrong answer.
	foreign := models.QuestionResponse{ResponseText: "999"}
	AutoGrade(question, &foreign, time.Now())
	require.True(t, foreign.Graded)
	require.False(t, *foreign.IsCorrect)
}

func TestAutoGradeMalformedQuestionNeverCredits(t *testing.T) {
	// Two correct choices is a configuration bug; grading degrades to wrong.
	ambiguous := models.Question{
		Type:    models.QuestionTypeMultipleChoice,
		Points:  5,
		Choices: []models.Choice{{ID: 1, IsCorrect: true}, {ID: 2, IsCorrect: true}},
	}
	response := models.QuestionResponse{ResponseText: "1"}
	AutoGrade(ambiguous, &response, time.Now())
	require.True(t, response.Graded)
	require.False(t, *response.IsCorrect)

	// Numerical question with no configured answer likewise.
	broken := models.Question{Type: models.QuestionTypeNumerical, Points: 5}
	numeric := models.QuestionResponse{ResponseText: "3"}
	AutoGrade(broken, &numeric, time.Now())
	require.True(t, numeric.Graded)
	require.False(t, *numeric.IsCorrect)
}

func TestAutoGradeLeavesTextUngraded(t *testing.T) {
	question := models.Question{Type: models.QuestionTypeTextResponse, Points: 10}
	response := models.QuestionResponse{ResponseText: "An essay."}

	AutoGrade(question, &response, time.Now())

	require.False(t, response.Graded)
	require.Nil(t, response.IsCorrect)
	require.Nil(t, response.PointsEarned)
	require.Nil(t, response.GradedAt)
}
