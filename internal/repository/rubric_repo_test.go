package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syllabex/syllabex-api/internal/models"
)

func TestRubricRepositorySaveAssessmentReplacesScores(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRubricRepository(db)
	assignment := seedCourseWithAssignment(t, db, 1)

	rubric := models.Rubric{
		CourseID: assignment.CourseID,
		Title:    "Essay Rubric",
		Criteria: []models.RubricCriterion{
			{Title: "Clarity", Position: 0, PointsPossible: 10, Ratings: []models.RubricRating{
				{Label: "Excellent", Points: 10, Position: 0},
				{Label: "Weak", Points: 4, Position: 1},
			}},
			{Title: "Evidence", Position: 1, PointsPossible: 20, Ratings: []models.RubricRating{
				{Label: "Strong", Points: 18, Position: 0},
				{Label: "Thin", Points: 8, Position: 1},
			}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &rubric))

	submission := models.AssignmentSubmission{AssignmentID: assignment.ID, StudentID: 5, SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&submission).Error)

	loaded, err := repo.GetByID(context.Background(), assignment.CourseID, rubric.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Criteria, 2)

	first := models.RubricAssessment{
		SubmissionID: submission.ID,
		RubricID:     rubric.ID,
		TotalScore:   14,
		GradedAt:     time.Now(),
	}
	scores := []models.RubricCriterionScore{
		{CriterionID: loaded.Criteria[0].ID, SelectedRatingID: loaded.Criteria[0].Ratings[1].ID},
		{CriterionID: loaded.Criteria[1].ID, SelectedRatingID: loaded.Criteria[1].Ratings[1].ID},
	}
	require.NoError(t, repo.SaveAssessment(context.Background(), &first, scores))

	// Reassess: full overwrite, not a merge.
	second := models.RubricAssessment{
		SubmissionID: submission.ID,
		RubricID:     rubric.ID,
		TotalScore:   28,
		GradedAt:     time.Now(),
	}
	rescored := []models.RubricCriterionScore{
		{CriterionID: loaded.Criteria[0].ID, SelectedRatingID: loaded.Criteria[0].Ratings[0].ID},
		{CriterionID: loaded.Criteria[1].ID, SelectedRatingID: loaded.Criteria[1].Ratings[0].ID},
	}
	require.NoError(t, repo.SaveAssessment(context.Background(), &second, rescored))
	require.Equal(t, first.ID, second.ID, "reassessment updates the same row")

	stored, err := repo.GetAssessmentBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, 28.0, stored.TotalScore)
	require.Len(t, stored.Scores, 2)

	var scoreCount int64
	require.NoError(t, db.Model(&models.RubricCriterionScore{}).Count(&scoreCount).Error)
	require.Equal(t, int64(2), scoreCount, "old criterion scores must be gone")
}

func TestRubricRepositoryReplaceCriteria(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRubricRepository(db)
	assignment := seedCourseWithAssignment(t, db, 1)

	rubric := models.Rubric{
		CourseID: assignment.CourseID,
		Title:    "Draft Rubric",
		Criteria: []models.RubricCriterion{
			{Title: "Old", Position: 0, PointsPossible: 5, Ratings: []models.RubricRating{{Label: "Only", Points: 5}}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &rubric))

	replacement := []models.RubricCriterion{
		{Title: "Structure", Position: 0, PointsPossible: 10, Ratings: []models.RubricRating{
			{Label: "Good", Points: 10, Position: 0},
		}},
		{Title: "Style", Position: 1, PointsPossible: 5, Ratings: []models.RubricRating{
			{Label: "Good", Points: 5, Position: 0},
		}},
	}
	require.NoError(t, repo.ReplaceCriteria(context.Background(), rubric.ID, replacement))

	stored, err := repo.GetByID(context.Background(), assignment.CourseID, rubric.ID)
	require.NoError(t, err)
	require.Len(t, stored.Criteria, 2)
	require.Equal(t, "Structure", stored.Criteria[0].Title)
	require.Equal(t, 15, stored.TotalPointsPossible())

	var ratingCount int64
	require.NoError(t, db.Model(&models.RubricRating{}).Count(&ratingCount).Error)
	require.Equal(t, int64(2), ratingCount)
}
