package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syllabex/syllabex-api/internal/models"
)

func TestGradeRepositoryUpsertConverges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	assignment := seedCourseWithAssignment(t, db, 1)

	membership := models.CourseMembership{
		CourseID: assignment.CourseID,
		UserID:   11,
		Role:     models.RoleStudent,
		Status:   models.MembershipActive,
	}
	require.NoError(t, db.Create(&membership).Error)

	entry := models.GradeEntry{
		MembershipID: membership.ID,
		AssignmentID: assignment.ID,
		Grade:        80,
		Comments:     "Auto-graded",
		GradedAt:     time.Now(),
	}
	require.NoError(t, repo.Upsert(context.Background(), &entry))

	grader := uint(3)
	revised := models.GradeEntry{
		MembershipID: membership.ID,
		AssignmentID: assignment.ID,
		Grade:        92,
		GradedBy:     &grader,
		Comments:     "Graded",
		GradedAt:     time.Now(),
	}
	require.NoError(t, repo.Upsert(context.Background(), &revised))

	var count int64
	require.NoError(t, db.Model(&models.GradeEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "upsert must never duplicate rows")

	stored, err := repo.GetByMembershipAndAssignment(context.Background(), membership.ID, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, 92.0, stored.Grade)
	require.Equal(t, grader, *stored.GradedBy)
	require.Equal(t, "Graded", stored.Comments)
}

func TestGradeRepositoryListByStudentScopes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	assignment := seedCourseWithAssignment(t, db, 1)

	membership := models.CourseMembership{
		CourseID: assignment.CourseID,
		UserID:   21,
		Role:     models.RoleStudent,
		Status:   models.MembershipActive,
	}
	require.NoError(t, db.Create(&membership).Error)

	entry := models.GradeEntry{MembershipID: membership.ID, AssignmentID: assignment.ID, Grade: 70, GradedAt: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), &entry))

	entries, err := repo.ListByStudent(context.Background(), 1, 21, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Restricting to unrelated courses hides the entry.
	entries, err = repo.ListByStudent(context.Background(), 1, 21, []uint{9999})
	require.NoError(t, err)
	require.Empty(t, entries)

	// Wrong tenant sees nothing.
	entries, err = repo.ListByStudent(context.Background(), 2, 21, nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}
