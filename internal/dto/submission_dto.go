package dto

import (
	"time"

	"github.com/syllabex/syllabex-api/internal/models"
)

// AnswerRequest carries one question answer within a submission.
type AnswerRequest struct {
	QuestionID   uint   `json:"question_id" validate:"required,gt=0"`
	ResponseText string `json:"response_text"`
}

// SubmitAssignmentRequest is the payload of a student submission.
type SubmitAssignmentRequest struct {
	AssignmentID uint            `json:"assignment_id" validate:"required,gt=0"`
	Answer       string          `json:"answer"`
	Responses    []AnswerRequest `json:"responses" validate:"dive"`
}

// GradeResponseRequest is an instructor's manual grade for a single response.
type GradeResponseRequest struct {
	PointsEarned   int    `json:"points_earned" validate:"gte=0"`
	TeacherRemarks string `json:"teacher_remarks"`
}

// QuestionResponseResult mirrors a stored question response.
type QuestionResponseResult struct {
	ID             uint       `json:"id"`
	QuestionID     uint       `json:"question_id"`
	ResponseText   string     `json:"response_text"`
	IsCorrect      *bool      `json:"is_correct"`
	PointsEarned   *int       `json:"points_earned"`
	Graded         bool       `json:"graded"`
	TeacherRemarks string     `json:"teacher_remarks"`
	GradedAt       *time.Time `json:"graded_at"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint                     `json:"id"`
	AssignmentID  uint                     `json:"assignment_id"`
	StudentID     uint                     `json:"student_id"`
	Answer        string                   `json:"answer"`
	SubmittedAt   time.Time                `json:"submitted_at"`
	IsLate        bool                     `json:"is_late"`
	Score         int                      `json:"score"`
	GradingStatus models.GradingStatus     `json:"grading_status"`
	FullyGraded   bool                     `json:"fully_graded"`
	Responses     []QuestionResponseResult `json:"responses,omitempty"`
}

// NewQuestionResponseResult converts a response model.
func NewQuestionResponseResult(response models.QuestionResponse) QuestionResponseResult {
	return QuestionResponseResult{
		ID:             response.ID,
		QuestionID:     response.QuestionID,
		ResponseText:   response.ResponseText,
		IsCorrect:      response.IsCorrect,
		PointsEarned:   response.PointsEarned,
		Graded:         response.Graded,
		TeacherRemarks: response.TeacherRemarks,
		GradedAt:       response.GradedAt,
	}
}

// NewSubmissionResponse converts a submission model. The Assignment association
// with its questions must be loaded so completeness can be derived.
func NewSubmissionResponse(submission models.AssignmentSubmission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            submission.ID,
		AssignmentID:  submission.AssignmentID,
		StudentID:     submission.StudentID,
		Answer:        submission.Answer,
		SubmittedAt:   submission.SubmittedAt,
		IsLate:        submission.IsLate,
		Score:         submission.CalculateScore(),
		GradingStatus: submission.GetGradingStatus(),
		FullyGraded:   submission.IsFullyGraded(len(submission.Assignment.Questions)),
	}
	for _, item := range submission.Responses {
		response.Responses = append(response.Responses, NewQuestionResponseResult(item))
	}
	return response
}

// NewSubmissionResponseSlice converts a list of submissions.
func NewSubmissionResponseSlice(submissions []models.AssignmentSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
