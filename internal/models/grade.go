package models

import "time"

// GradeEntry is the authoritative numeric grade for one membership on one
// assignment. It is a derived cache written only by the grade aggregator and
// upserted idempotently; a nil GradedBy means the grade was fully auto-graded.
type GradeEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MembershipID uint      `gorm:"not null;uniqueIndex:idx_grade_membership_assignment" json:"membership_id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_grade_membership_assignment" json:"assignment_id"`
	Grade        float64   `gorm:"type:decimal(7,2);not null" json:"grade"`
	GradedBy     *uint     `json:"graded_by"`
	Comments     string    `gorm:"type:text" json:"comments"`
	GradedAt     time.Time `gorm:"not null;index" json:"graded_at"`

	Membership CourseMembership `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assignment Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Percentage returns the grade as a share of the assignment's possible points.
// The Assignment association must be loaded.
func (g GradeEntry) Percentage() float64 {
	if g.Assignment.PointsPossible <= 0 {
		return 0
	}
	return g.Grade / float64(g.Assignment.PointsPossible) * 100
}

// LetterGrade maps the percentage onto the standard A-F bands.
func (g GradeEntry) LetterGrade() string {
	if g.Assignment.PointsPossible <= 0 {
		return "N/A"
	}
	percentage := g.Percentage()
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// GradeHistory is an append-only record of grading events behind a grade entry.
type GradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MembershipID uint      `gorm:"not null;index" json:"membership_id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	Grade        float64   `gorm:"type:decimal(7,2);not null" json:"grade"`
	Source       string    `gorm:"size:32;not null" json:"source"`
	GradedBy     *uint     `json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}
