package dto

import (
	"time"

	"github.com/syllabex/syllabex-api/internal/models"
)

// GradeCell is one (student, assignment) cell of the gradebook matrix. Nil
// pointers mean "not yet graded", matching the published-grades-only contract.
type GradeCell struct {
	AssignmentID    uint       `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title"`
	Grade           *float64   `json:"grade"`
	PointsPossible  int        `json:"points_possible"`
	Percentage      *float64   `json:"percentage"`
	LetterGrade     *string    `json:"letter_grade"`
	GradedAt        *time.Time `json:"graded_at"`
}

// GradebookStudentRow is one student's row in the course gradebook.
type GradebookStudentRow struct {
	MembershipID uint        `json:"membership_id"`
	UserID       uint        `json:"user_id"`
	StudentName  string      `json:"student_name"`
	StudentEmail string      `json:"student_email"`
	Grades       []GradeCell `json:"grades"`
}

// GradebookAssignmentHeader summarises one assignment column.
type GradebookAssignmentHeader struct {
	ID             uint                  `json:"id"`
	Title          string                `json:"title"`
	Type           models.AssignmentType `json:"type"`
	DueDate        time.Time             `json:"due_date"`
	PointsPossible int                   `json:"points_possible"`
}

// GradebookResponse is the full {student, assignment} matrix for a course.
type GradebookResponse struct {
	CourseID    uint                        `json:"course_id"`
	CourseCode  string                      `json:"course_code"`
	CourseName  string                      `json:"course_name"`
	Assignments []GradebookAssignmentHeader `json:"assignments"`
	Students    []GradebookStudentRow       `json:"students"`
	CacheHit    bool                        `json:"-"`
}

// StudentGradeEntry is one grade visible to the requested student.
type StudentGradeEntry struct {
	AssignmentID    uint      `json:"assignment_id"`
	AssignmentTitle string    `json:"assignment_title"`
	CourseID        uint      `json:"course_id"`
	CourseCode      string    `json:"course_code"`
	Grade           float64   `json:"grade"`
	PointsPossible  int       `json:"points_possible"`
	Percentage      float64   `json:"percentage"`
	LetterGrade     string    `json:"letter_grade"`
	Comments        string    `json:"comments"`
	GradedBy        *uint     `json:"graded_by"`
	GradedAt        time.Time `json:"graded_at"`
}

// NewStudentGradeEntry converts a grade entry with loaded associations.
func NewStudentGradeEntry(entry models.GradeEntry) StudentGradeEntry {
	return StudentGradeEntry{
		AssignmentID:    entry.AssignmentID,
		AssignmentTitle: entry.Assignment.Title,
		CourseID:        entry.Membership.CourseID,
		CourseCode:      entry.Membership.Course.Code,
		Grade:           entry.Grade,
		PointsPossible:  entry.Assignment.PointsPossible,
		Percentage:      entry.Percentage(),
		LetterGrade:     entry.LetterGrade(),
		Comments:        entry.Comments,
		GradedBy:        entry.GradedBy,
		GradedAt:        entry.GradedAt,
	}
}
