package dto

import (
	"time"

	"github.com/syllabex/syllabex-api/internal/models"
)

// ChoiceRequest is one selectable answer in a multiple-choice question payload.
type ChoiceRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order" validate:"gte=0"`
}

// QuestionRequest describes one question of an assignment payload. Question
// collections are always submitted whole; updates replace the previous set.
type QuestionRequest struct {
	Type          models.QuestionType `json:"type" validate:"required,oneof=multiple_choice numerical text_response"`
	Text          string              `json:"text" validate:"required"`
	Points        int                 `json:"points" validate:"gte=0"`
	Order         int                 `json:"order" validate:"gte=0"`
	CorrectAnswer *float64            `json:"correct_answer_numeric" validate:"required_if=Type numerical"`
	Tolerance     *float64            `json:"numeric_tolerance" validate:"omitempty,gte=0"`
	Choices       []ChoiceRequest     `json:"choices" validate:"dive"`
}

// AssignmentCreateRequest creates an assignment together with its question set.
type AssignmentCreateRequest struct {
	Type           models.AssignmentType `json:"type" validate:"required,oneof=quiz test homework"`
	Title          string                `json:"title" validate:"required,max=255"`
	Description    string                `json:"description"`
	StartDate      *time.Time            `json:"start_date"`
	DueDate        time.Time             `json:"due_date" validate:"required"`
	PointsPossible int                   `json:"points_possible" validate:"gte=0"`
	RubricID       *uint                 `json:"rubric_id"`
	Questions      []QuestionRequest     `json:"questions" validate:"dive"`
}

// AssignmentUpdateRequest mutates an assignment while it is still editable.
// A non-nil Questions slice replaces the entire question tree.
type AssignmentUpdateRequest struct {
	Type           *models.AssignmentType `json:"type" validate:"omitempty,oneof=quiz test homework"`
	Title          *string                `json:"title" validate:"omitempty,max=255"`
	Description    *string                `json:"description"`
	StartDate      *time.Time             `json:"start_date"`
	DueDate        *time.Time             `json:"due_date"`
	PointsPossible *int                   `json:"points_possible" validate:"omitempty,gte=0"`
	RubricID       *uint                  `json:"rubric_id"`
	Questions      []QuestionRequest      `json:"questions" validate:"omitempty,dive"`
}

// ChoiceResponse mirrors a stored choice.
type ChoiceResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

// QuestionResponseBody mirrors a stored question.
type QuestionResponseBody struct {
	ID            uint                `json:"id"`
	Type          models.QuestionType `json:"type"`
	Text          string              `json:"text"`
	Points        int                 `json:"points"`
	Order         int                 `json:"order"`
	CorrectAnswer *float64            `json:"correct_answer_numeric,omitempty"`
	Tolerance     *float64            `json:"numeric_tolerance,omitempty"`
	Choices       []ChoiceResponse    `json:"choices,omitempty"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID             uint                   `json:"id"`
	CourseID       uint                   `json:"course_id"`
	Type           models.AssignmentType  `json:"type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	StartDate      *time.Time             `json:"start_date"`
	DueDate        time.Time              `json:"due_date"`
	PointsPossible int                    `json:"points_possible"`
	RubricID       *uint                  `json:"rubric_id"`
	HasStarted     bool                   `json:"has_started"`
	IsOverdue      bool                   `json:"is_overdue"`
	IsEditable     bool                   `json:"is_editable"`
	Questions      []QuestionResponseBody `json:"questions,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewAssignmentResponse converts a model into its API representation. The
// availability flags are evaluated against the supplied reference time.
func NewAssignmentResponse(assignment models.Assignment, reference time.Time, includeAnswers bool) AssignmentResponse {
	response := AssignmentResponse{
		ID:             assignment.ID,
		CourseID:       assignment.CourseID,
		Type:           assignment.Type,
		Title:          assignment.Title,
		Description:    assignment.Description,
		StartDate:      assignment.StartDate,
		DueDate:        assignment.DueDate,
		PointsPossible: assignment.PointsPossible,
		RubricID:       assignment.RubricID,
		HasStarted:     assignment.HasStarted(reference),
		IsOverdue:      assignment.IsOverdue(reference),
		IsEditable:     assignment.IsEditable(reference),
		CreatedAt:      assignment.CreatedAt,
		UpdatedAt:      assignment.UpdatedAt,
	}

	for _, question := range assignment.Questions {
		body := QuestionResponseBody{
			ID:     question.ID,
			Type:   question.Type,
			Text:   question.Text,
			Points: question.Points,
			Order:  question.Position,
		}
		if includeAnswers {
			body.CorrectAnswer = question.CorrectAnswer
			body.Tolerance = question.Tolerance
		}
		for _, choice := range question.Choices {
			choiceBody := ChoiceResponse{ID: choice.ID, Text: choice.Text, Order: choice.Position}
			if includeAnswers {
				choiceBody.IsCorrect = choice.IsCorrect
			}
			body.Choices = append(body.Choices, choiceBody)
		}
		response.Questions = append(response.Questions, body)
	}

	return response
}

// NewAssignmentResponseSlice converts a list of assignments.
func NewAssignmentResponseSlice(assignments []models.Assignment, reference time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, reference, false))
	}
	return responses
}
