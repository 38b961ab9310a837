package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
)

// CourseRepository resolves courses, memberships and users within an account.
// Every lookup that can cross tenant boundaries takes the account id explicitly.
type CourseRepository interface {
	GetByID(ctx context.Context, accountID, id uint) (models.Course, error)
	GetActiveMembership(ctx context.Context, courseID, userID uint, role models.MembershipRole) (models.CourseMembership, error)
	ListActiveStudents(ctx context.Context, courseID uint) ([]models.CourseMembership, error)
	ListInstructedCourseIDs(ctx context.Context, accountID, userID uint) ([]uint, error)
	GetUser(ctx context.Context, accountID, id uint) (models.User, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, accountID, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) GetActiveMembership(ctx context.Context, courseID, userID uint, role models.MembershipRole) (models.CourseMembership, error) {
	var membership models.CourseMembership
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Where("status = ?", models.MembershipActive).
		First(&membership).Error; err != nil {
		return models.CourseMembership{}, err
	}

	return membership, nil
}

func (r *courseRepository) ListActiveStudents(ctx context.Context, courseID uint) ([]models.CourseMembership, error) {
	var memberships []models.CourseMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Where("role = ?", models.RoleStudent).
		Where("status = ?", models.MembershipActive).
		Order("id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *courseRepository) ListInstructedCourseIDs(ctx context.Context, accountID, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.CourseMembership{}).
		Joins("JOIN courses ON courses.id = course_memberships.course_id").
		Where("courses.account_id = ?", accountID).
		Where("course_memberships.user_id = ?", userID).
		Where("course_memberships.role = ?", models.RoleInstructor).
		Where("course_memberships.status = ?", models.MembershipActive).
		Pluck("course_memberships.course_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *courseRepository) GetUser(ctx context.Context, accountID, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}
