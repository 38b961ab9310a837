package models

// QuestionType enumerates how a question is answered and graded.
type QuestionType string

const (
	// QuestionTypeMultipleChoice is answered by selecting a choice id.
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	// QuestionTypeNumerical is answered with a number checked against a tolerance.
	QuestionTypeNumerical QuestionType = "numerical"
	// QuestionTypeTextResponse is free text, graded by a human.
	QuestionTypeTextResponse QuestionType = "text_response"
)

// ValidQuestionType reports whether t is one of the known question types.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeNumerical, QuestionTypeTextResponse:
		return true
	}
	return false
}

// IsAutoGradable reports whether correctness can be decided without a human.
func (t QuestionType) IsAutoGradable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeNumerical
}

// Question belongs to exactly one assignment and is deleted with it.
type Question struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AssignmentID uint         `gorm:"not null;index" json:"assignment_id"`
	Type         QuestionType `gorm:"size:20;not null" json:"type"`
	Text         string       `gorm:"type:text;not null" json:"text"`
	Points       int          `gorm:"not null" json:"points"`
	Position     int          `gorm:"not null;default:0" json:"order"`

	// Numerical questions only.
	CorrectAnswer *float64 `gorm:"column:correct_answer_numeric" json:"correct_answer_numeric,omitempty"`
	Tolerance     *float64 `gorm:"column:numeric_tolerance" json:"numeric_tolerance,omitempty"`

	Choices []Choice `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"choices,omitempty"`
}

// CorrectChoice returns the unique correct choice of a multiple-choice question.
// Malformed question configuration (zero or several correct choices) yields nil;
// grading treats that as "no answer matches" rather than an error.
func (q Question) CorrectChoice() *Choice {
	var found *Choice
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			if found != nil {
				return nil
			}
			found = &q.Choices[i]
		}
	}
	return found
}

// Choice is one selectable answer of a multiple-choice question.
type Choice struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	Position   int    `gorm:"not null;default:0" json:"order"`
}
