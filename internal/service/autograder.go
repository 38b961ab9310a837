package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/syllabex/syllabex-api/internal/models"
)

// AutoGrade grades a single response against its question definition, in place.
// It is total and deterministic: malformed or missing answers resolve to
// "graded, incorrect, zero points" rather than an error, so bad input can never
// block the submission pipeline. Text responses stay ungraded for a human.
func AutoGrade(question models.Question, response *models.QuestionResponse, now time.Time) {
	switch question.Type {
	case models.QuestionTypeMultipleChoice:
		markGraded(question, response, gradeMultipleChoice(question, response.ResponseText), now)
	case models.QuestionTypeNumerical:
		markGraded(question, response, gradeNumerical(question, response.ResponseText), now)
	default:
		// text_response and anything unknown waits for manual grading
	}
}

func markGraded(question models.Question, response *models.QuestionResponse, correct bool, now time.Time) {
	points := 0
	if correct {
		points = question.Points
	}
	gradedAt := now

	response.IsCorrect = &correct
	response.PointsEarned = &points
	response.Graded = true
	response.GradedAt = &gradedAt
}

func gradeMultipleChoice(question models.Question, answer string) bool {
	selected, err := strconv.ParseUint(strings.TrimSpace(answer), 10, 64)
	if err != nil {
		return false
	}

	correct := question.CorrectChoice()
	return correct != nil && correct.ID == uint(selected)
}

func gradeNumerical(question models.Question, answer string) bool {
	if question.CorrectAnswer == nil {
		return false
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil {
		return false
	}

	tolerance := 0.0
	if question.Tolerance != nil {
		tolerance = *question.Tolerance
	}

	return math.Abs(parsed-*question.CorrectAnswer) <= tolerance
}
