package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syllabex/syllabex-api/internal/models"
)

// GradeRepository owns grade entries and their append-only history.
type GradeRepository interface {
	Upsert(ctx context.Context, entry *models.GradeEntry) error
	AppendHistory(ctx context.Context, history *models.GradeHistory) error
	GetByMembershipAndAssignment(ctx context.Context, membershipID, assignmentID uint) (models.GradeEntry, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.GradeEntry, error)
	ListByStudent(ctx context.Context, accountID, userID uint, courseIDs []uint) ([]models.GradeEntry, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

// Upsert writes the entry keyed on (membership, assignment). Conflicts update
// in place, so repeated aggregation for the same submission converges on one
// row instead of accumulating duplicates.
func (r *gradeRepository) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	return r.db.WithContext(ctx).
		Omit("Membership", "Assignment").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "membership_id"}, {Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"grade", "graded_by", "comments", "graded_at",
			}),
		}).
		Create(entry).Error
}

func (r *gradeRepository) AppendHistory(ctx context.Context, history *models.GradeHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *gradeRepository) GetByMembershipAndAssignment(ctx context.Context, membershipID, assignmentID uint) (models.GradeEntry, error) {
	var entry models.GradeEntry
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Where("membership_id = ?", membershipID).
		Where("assignment_id = ?", assignmentID).
		First(&entry).Error; err != nil {
		return models.GradeEntry{}, err
	}

	return entry, nil
}

func (r *gradeRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.GradeEntry, error) {
	var entries []models.GradeEntry
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Joins("JOIN course_memberships ON course_memberships.id = grade_entries.membership_id").
		Where("course_memberships.course_id = ?", courseID).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *gradeRepository) ListByStudent(ctx context.Context, accountID, userID uint, courseIDs []uint) ([]models.GradeEntry, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Membership").
		Preload("Membership.Course").
		Joins("JOIN course_memberships ON course_memberships.id = grade_entries.membership_id").
		Joins("JOIN courses ON courses.id = course_memberships.course_id").
		Where("courses.account_id = ?", accountID).
		Where("course_memberships.user_id = ?", userID)

	if courseIDs != nil {
		query = query.Where("course_memberships.course_id IN ?", courseIDs)
	}

	var entries []models.GradeEntry
	if err := query.Order("grade_entries.graded_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
