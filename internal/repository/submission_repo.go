package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
)

// SubmissionRepository owns submission and question-response persistence.
type SubmissionRepository interface {
	GetByID(ctx context.Context, accountID, id uint) (models.AssignmentSubmission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentSubmission, error)
	CreateWithResponses(ctx context.Context, submission *models.AssignmentSubmission) error
	GetResponse(ctx context.Context, accountID, id uint) (models.QuestionResponse, models.AssignmentSubmission, error)
	UpdateResponse(ctx context.Context, response *models.QuestionResponse) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AssignmentSubmission{}).
		Preload("Assignment").
		Preload("Assignment.Questions").
		Preload("Responses").
		Preload("Responses.Question")
}

func (r *submissionRepository) GetByID(ctx context.Context, accountID, id uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.baseQuery(ctx).
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.account_id = ?", accountID).
		Where("assignment_submissions.id = ?", id).
		First(&submission).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.baseQuery(ctx).
		Where("assignment_submissions.assignment_id = ?", assignmentID).
		Where("assignment_submissions.student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentSubmission, error) {
	var submissions []models.AssignmentSubmission
	if err := r.baseQuery(ctx).
		Where("assignment_submissions.assignment_id = ?", assignmentID).
		Order("assignment_submissions.submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// CreateWithResponses persists a submission and its responses atomically. The
// unique index on (assignment_id, student_id) is the authority for the
// at-most-one guarantee: when two requests race, the loser's insert fails with
// gorm.ErrDuplicatedKey and no partial rows survive the rollback.
func (r *submissionRepository) CreateWithResponses(ctx context.Context, submission *models.AssignmentSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responses := submission.Responses
		submission.Responses = nil

		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		for i := range responses {
			responses[i].SubmissionID = submission.ID
			responses[i].Question = models.Question{}
		}
		if len(responses) > 0 {
			if err := tx.Create(&responses).Error; err != nil {
				return err
			}
		}

		submission.Responses = responses
		return nil
	})
}

func (r *submissionRepository) GetResponse(ctx context.Context, accountID, id uint) (models.QuestionResponse, models.AssignmentSubmission, error) {
	var response models.QuestionResponse
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Choices").
		Joins("JOIN assignment_submissions ON assignment_submissions.id = question_responses.submission_id").
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.account_id = ?", accountID).
		Where("question_responses.id = ?", id).
		First(&response).Error; err != nil {
		return models.QuestionResponse{}, models.AssignmentSubmission{}, err
	}

	submission, err := r.GetByID(ctx, accountID, response.SubmissionID)
	if err != nil {
		return models.QuestionResponse{}, models.AssignmentSubmission{}, err
	}

	return response, submission, nil
}

func (r *submissionRepository) UpdateResponse(ctx context.Context, response *models.QuestionResponse) error {
	return r.db.WithContext(ctx).Omit("Question").Save(response).Error
}
