package models

import "time"

// AssignmentType distinguishes assignment flavors. They share one schema and one
// code path; the tag is informational, never dispatched on by subclassing.
type AssignmentType string

const (
	// AssignmentTypeQuiz is a short knowledge check.
	AssignmentTypeQuiz AssignmentType = "quiz"
	// AssignmentTypeTest is a formal examination.
	AssignmentTypeTest AssignmentType = "test"
	// AssignmentTypeHomework is take-home work.
	AssignmentTypeHomework AssignmentType = "homework"
)

// ValidAssignmentType reports whether t is one of the known assignment types.
func ValidAssignmentType(t AssignmentType) bool {
	switch t {
	case AssignmentTypeQuiz, AssignmentTypeTest, AssignmentTypeHomework:
		return true
	}
	return false
}

// Assignment is gradable coursework with an availability window and a question set.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CourseID       uint           `gorm:"not null;index" json:"course_id"`
	ModuleID       *uint          `gorm:"index" json:"module_id"`
	Type           AssignmentType `gorm:"size:20;not null;index" json:"type"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	StartDate      *time.Time     `gorm:"index" json:"start_date"`
	DueDate        time.Time      `gorm:"not null;index" json:"due_date"`
	PointsPossible int            `gorm:"not null;default:100" json:"points_possible"`
	RubricID       *uint          `gorm:"index" json:"rubric_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Course    Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Questions []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// HasStarted reports whether the assignment accepts work at the reference time.
// A nil start date means the assignment was open from creation.
func (a Assignment) HasStarted(reference time.Time) bool {
	return a.StartDate == nil || !reference.Before(*a.StartDate)
}

// IsOverdue reports whether the deadline has passed at the reference time.
func (a Assignment) IsOverdue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// IsAvailable reports whether a student may submit at the reference time.
func (a Assignment) IsAvailable(reference time.Time) bool {
	return a.HasStarted(reference) && !a.IsOverdue(reference)
}

// IsEditable reports whether an instructor may still modify the assignment.
// Once the start date passes the assignment is frozen; with no start date it
// never locks.
func (a Assignment) IsEditable(reference time.Time) bool {
	return a.StartDate == nil || reference.Before(*a.StartDate)
}
