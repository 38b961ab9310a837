package models

import "time"

// GradingStatus summarises how much of a submission has been graded.
type GradingStatus string

const (
	// GradingStatusPending means no response has been graded yet.
	GradingStatusPending GradingStatus = "pending"
	// GradingStatusPartial means some but not all responses are graded.
	GradingStatusPartial GradingStatus = "partial"
	// GradingStatusComplete means every response is graded.
	GradingStatusComplete GradingStatus = "complete"
)

// AssignmentSubmission is one student's attempt at one assignment. The row itself
// is immutable after creation; grading progress lives on the child responses.
type AssignmentSubmission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Answer       string    `gorm:"type:text" json:"answer"`
	SubmittedAt  time.Time `gorm:"not null;index" json:"submitted_at"`
	IsLate       bool      `gorm:"not null;default:false" json:"is_late"`

	Assignment Assignment         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Responses  []QuestionResponse `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"responses,omitempty"`
}

// CalculateScore sums points earned across graded responses.
func (s AssignmentSubmission) CalculateScore() int {
	total := 0
	for _, response := range s.Responses {
		if response.Graded && response.PointsEarned != nil {
			total += *response.PointsEarned
		}
	}
	return total
}

// GradedCount returns how many responses have been graded.
func (s AssignmentSubmission) GradedCount() int {
	count := 0
	for _, response := range s.Responses {
		if response.Graded {
			count++
		}
	}
	return count
}

// IsFullyGraded reports whether every question of the assignment has a graded
// response. An assignment with no questions is vacuously complete.
func (s AssignmentSubmission) IsFullyGraded(questionCount int) bool {
	return s.GradedCount() >= questionCount
}

// GetGradingStatus classifies grading progress over the recorded responses.
func (s AssignmentSubmission) GetGradingStatus() GradingStatus {
	total := len(s.Responses)
	graded := s.GradedCount()
	switch {
	case graded == total:
		return GradingStatusComplete
	case graded == 0:
		return GradingStatusPending
	default:
		return GradingStatusPartial
	}
}

// QuestionResponse is a student's answer to a single question within a submission.
// It moves from ungraded to graded exactly once per grading event; regrading
// overwrites in place (last writer wins).
type QuestionResponse struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SubmissionID   uint       `gorm:"not null;uniqueIndex:idx_response_submission_question" json:"submission_id"`
	QuestionID     uint       `gorm:"not null;uniqueIndex:idx_response_submission_question" json:"question_id"`
	ResponseText   string     `gorm:"type:text" json:"response_text"`
	IsCorrect      *bool      `json:"is_correct"`
	PointsEarned   *int       `json:"points_earned"`
	Graded         bool       `gorm:"not null;default:false;index" json:"graded"`
	TeacherRemarks string     `gorm:"type:text" json:"teacher_remarks"`
	GradedAt       *time.Time `json:"graded_at"`

	Question Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question,omitempty"`
}
