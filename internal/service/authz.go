package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
)

// Actor identifies the authenticated principal behind an operation. The
// account id travels with it explicitly; no operation reads tenant scope from
// ambient state.
type Actor struct {
	UserID    uint
	AccountID uint
	Role      string
}

// RoleAdmin is the account-level administrator claim value.
const RoleAdmin = "admin"

// AuthzService answers capability questions. Every authorization gate in the
// grading pipeline goes through these explicit checks; roles are never inferred
// from the shape of an entity.
type AuthzService interface {
	IsAccountAdmin(actor Actor) bool
	IsCourseInstructor(ctx context.Context, actor Actor, courseID uint) (bool, error)
	IsActiveStudent(ctx context.Context, actor Actor, courseID uint) (bool, error)
}

type authzService struct {
	courses repository.CourseRepository
}

// NewAuthzService constructs the capability checker.
func NewAuthzService(courses repository.CourseRepository) AuthzService {
	return &authzService{courses: courses}
}

func (s *authzService) IsAccountAdmin(actor Actor) bool {
	return actor.Role == RoleAdmin
}

// IsCourseInstructor is true for account admins and for active instructor
// memberships of the course.
func (s *authzService) IsCourseInstructor(ctx context.Context, actor Actor, courseID uint) (bool, error) {
	if s.IsAccountAdmin(actor) {
		return true, nil
	}

	membership, err := s.courses.GetActiveMembership(ctx, courseID, actor.UserID, models.RoleInstructor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return membership.IsActiveInstructor(), nil
}

func (s *authzService) IsActiveStudent(ctx context.Context, actor Actor, courseID uint) (bool, error) {
	membership, err := s.courses.GetActiveMembership(ctx, courseID, actor.UserID, models.RoleStudent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return membership.IsActiveStudent(), nil
}
