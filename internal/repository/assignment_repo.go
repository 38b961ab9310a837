package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	Type *models.AssignmentType
}

// AssignmentRepository defines persistence operations for assignments and the
// question trees they own.
type AssignmentRepository interface {
	GetByID(ctx context.Context, accountID, id uint) (models.Assignment, error)
	ListByCourse(ctx context.Context, courseID uint, filter AssignmentFilter) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
	ReplaceQuestions(ctx context.Context, assignmentID uint, questions []models.Question) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// GetByID loads an assignment with its full question tree. The lookup is scoped
// to the account through the owning course, so a cross-tenant id behaves exactly
// like a missing record.
func (r *assignmentRepository) GetByID(ctx context.Context, accountID, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.account_id = ?", accountID).
		Where("assignments.id = ?", id).
		First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID uint, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Where("course_id = ?", courseID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var assignments []models.Assignment
	if err := query.Order("due_date ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Questions").Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceQuestions swaps the entire question tree in one transaction. Updates
// are full replacements, never merges; partial patches of the collection are
// not supported.
func (r *assignmentRepository) ReplaceQuestions(ctx context.Context, assignmentID uint, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Question
		if err := tx.Select("id").Where("assignment_id = ?", assignmentID).Find(&existing).Error; err != nil {
			return err
		}

		if len(existing) > 0 {
			ids := make([]uint, 0, len(existing))
			for _, question := range existing {
				ids = append(ids, question.ID)
			}
			if err := tx.Where("question_id IN ?", ids).Delete(&models.Choice{}).Error; err != nil {
				return err
			}
			if err := tx.Where("assignment_id = ?", assignmentID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
		}

		for i := range questions {
			questions[i].ID = 0
			questions[i].AssignmentID = assignmentID
			for j := range questions[i].Choices {
				questions[i].Choices[j].ID = 0
			}
		}

		if len(questions) == 0 {
			return nil
		}

		return tx.Create(&questions).Error
	})
}
