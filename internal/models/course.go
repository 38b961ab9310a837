package models

import "time"

// MembershipRole enumerates the roles a user can hold within a course.
type MembershipRole string

const (
	// RoleInstructor marks a course instructor membership.
	RoleInstructor MembershipRole = "instructor"
	// RoleStudent marks a course student membership.
	RoleStudent MembershipRole = "student"
)

// MembershipStatus enumerates the lifecycle states of a course membership.
type MembershipStatus string

const (
	// MembershipActive is a current membership.
	MembershipActive MembershipStatus = "active"
	// MembershipDropped is a membership the user left before completion.
	MembershipDropped MembershipStatus = "dropped"
	// MembershipCompleted is a membership that ran to term.
	MembershipCompleted MembershipStatus = "completed"
)

// Course is a container for assignments, rubrics and memberships within one account.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Code      string    `gorm:"size:32;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Memberships []CourseMembership `json:"-"`
}

// CourseMembership joins a user to a course with a role and a status.
type CourseMembership struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CourseID  uint             `gorm:"not null;uniqueIndex:idx_membership_course_user" json:"course_id"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_membership_course_user" json:"user_id"`
	Role      MembershipRole   `gorm:"size:20;not null;index" json:"role"`
	Status    MembershipStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	Course Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsActiveStudent reports whether the membership is a current student enrolment.
func (m CourseMembership) IsActiveStudent() bool {
	return m.Role == RoleStudent && m.Status == MembershipActive
}

// IsActiveInstructor reports whether the membership is a current instructor seat.
func (m CourseMembership) IsActiveInstructor() bool {
	return m.Role == RoleInstructor && m.Status == MembershipActive
}

// User is a minimal account-scoped principal. Identity management lives upstream;
// this record exists so grading events can reference a grader.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AccountID      uint      `gorm:"not null;index" json:"account_id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name           string    `gorm:"size:255" json:"name"`
	IsAccountAdmin bool      `gorm:"not null;default:false" json:"is_account_admin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
