package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
)

// RubricRepository owns rubric trees and rubric assessments.
type RubricRepository interface {
	GetByID(ctx context.Context, courseID, id uint) (models.Rubric, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Rubric, error)
	Create(ctx context.Context, rubric *models.Rubric) error
	Update(ctx context.Context, rubric *models.Rubric) error
	ReplaceCriteria(ctx context.Context, rubricID uint, criteria []models.RubricCriterion) error
	Delete(ctx context.Context, id uint) error
	HasAssessments(ctx context.Context, rubricID uint) (bool, error)
	GetAssessmentBySubmission(ctx context.Context, submissionID uint) (models.RubricAssessment, error)
	SaveAssessment(ctx context.Context, assessment *models.RubricAssessment, scores []models.RubricCriterionScore) error
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) treeQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Rubric{}).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Criteria.Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *rubricRepository) GetByID(ctx context.Context, courseID, id uint) (models.Rubric, error) {
	var rubric models.Rubric
	if err := r.treeQuery(ctx).
		Where("course_id = ?", courseID).
		Where("id = ?", id).
		First(&rubric).Error; err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}

func (r *rubricRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Rubric, error) {
	var rubrics []models.Rubric
	if err := r.treeQuery(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&rubrics).Error; err != nil {
		return nil, err
	}

	return rubrics, nil
}

func (r *rubricRepository) Create(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) Update(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Omit("Criteria").Save(rubric).Error
}

// ReplaceCriteria swaps the rubric's criterion/rating tree in one transaction.
// Same full-replace contract as assignment questions.
func (r *rubricRepository) ReplaceCriteria(ctx context.Context, rubricID uint, criteria []models.RubricCriterion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.RubricCriterion
		if err := tx.Select("id").Where("rubric_id = ?", rubricID).Find(&existing).Error; err != nil {
			return err
		}

		if len(existing) > 0 {
			ids := make([]uint, 0, len(existing))
			for _, criterion := range existing {
				ids = append(ids, criterion.ID)
			}
			if err := tx.Where("criterion_id IN ?", ids).Delete(&models.RubricRating{}).Error; err != nil {
				return err
			}
			if err := tx.Where("rubric_id = ?", rubricID).Delete(&models.RubricCriterion{}).Error; err != nil {
				return err
			}
		}

		for i := range criteria {
			criteria[i].ID = 0
			criteria[i].RubricID = rubricID
			for j := range criteria[i].Ratings {
				criteria[i].Ratings[j].ID = 0
			}
		}

		if len(criteria) == 0 {
			return nil
		}

		return tx.Create(&criteria).Error
	})
}

func (r *rubricRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Rubric{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *rubricRepository) HasAssessments(ctx context.Context, rubricID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RubricAssessment{}).
		Where("rubric_id = ?", rubricID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *rubricRepository) GetAssessmentBySubmission(ctx context.Context, submissionID uint) (models.RubricAssessment, error) {
	var assessment models.RubricAssessment
	if err := r.db.WithContext(ctx).
		Preload("Rubric").
		Preload("Rubric.Criteria", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Rubric.Criteria.Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Scores").
		Preload("Scores.Criterion").
		Preload("Scores.SelectedRating").
		Where("submission_id = ?", submissionID).
		First(&assessment).Error; err != nil {
		return models.RubricAssessment{}, err
	}

	return assessment, nil
}

// SaveAssessment upserts the assessment row, replaces all criterion scores and
// persists the recomputed total in one transaction, so readers never observe
// fresh scores with a stale total or the reverse.
func (r *rubricRepository) SaveAssessment(ctx context.Context, assessment *models.RubricAssessment, scores []models.RubricCriterionScore) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RubricAssessment
		err := tx.
			Where("submission_id = ?", assessment.SubmissionID).
			Where("rubric_id = ?", assessment.RubricID).
			First(&existing).Error
		switch {
		case err == nil:
			assessment.ID = existing.ID
			if err := tx.Where("assessment_id = ?", existing.ID).Delete(&models.RubricCriterionScore{}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first assessment for this submission
		default:
			return err
		}

		saved := *assessment
		saved.Rubric = models.Rubric{}
		saved.Scores = nil
		if err := tx.Save(&saved).Error; err != nil {
			return err
		}
		assessment.ID = saved.ID

		for i := range scores {
			scores[i].ID = 0
			scores[i].AssessmentID = saved.ID
			scores[i].Criterion = models.RubricCriterion{}
			scores[i].SelectedRating = models.RubricRating{}
		}
		if len(scores) > 0 {
			if err := tx.Create(&scores).Error; err != nil {
				return err
			}
		}

		assessment.Scores = scores
		return nil
	})
}
