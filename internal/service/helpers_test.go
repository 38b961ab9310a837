package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/syllabex/syllabex-api/internal/models"
	"github.com/syllabex/syllabex-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeCourseRepo struct {
	courses     map[uint]models.Course
	memberships []models.CourseMembership
	users       map[uint]models.User
	instructed  []uint
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, accountID, id uint) (models.Course, error) {
	course, ok := f.courses[id]
	if !ok || course.AccountID != accountID {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) GetActiveMembership(ctx context.Context, courseID, userID uint, role models.MembershipRole) (models.CourseMembership, error) {
	for _, membership := range f.memberships {
		if membership.CourseID == courseID && membership.UserID == userID &&
			membership.Role == role && membership.Status == models.MembershipActive {
			return membership, nil
		}
	}
	return models.CourseMembership{}, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) ListActiveStudents(ctx context.Context, courseID uint) ([]models.CourseMembership, error) {
	var students []models.CourseMembership
	for _, membership := range f.memberships {
		if membership.CourseID == courseID && membership.IsActiveStudent() {
			students = append(students, membership)
		}
	}
	return students, nil
}

func (f *fakeCourseRepo) ListInstructedCourseIDs(ctx context.Context, accountID, userID uint) ([]uint, error) {
	return f.instructed, nil
}

func (f *fakeCourseRepo) GetUser(ctx context.Context, accountID, id uint) (models.User, error) {
	user, ok := f.users[id]
	if !ok || user.AccountID != accountID {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeAssignmentRepo struct {
	accountID    uint
	assignments  map[uint]models.Assignment
	replaceCalls int
	deleteCalls  int
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, accountID, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok || accountID != f.accountID {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) ListByCourse(ctx context.Context, courseID uint, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range f.assignments {
		if assignment.CourseID != courseID {
			continue
		}
		if filter.Type != nil && assignment.Type != *filter.Type {
			continue
		}
		out = append(out, assignment)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = uint(len(f.assignments) + 1)
	if f.assignments == nil {
		f.assignments = map[uint]models.Assignment{}
	}
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	f.deleteCalls++
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentRepo) ReplaceQuestions(ctx context.Context, assignmentID uint, questions []models.Question) error {
	f.replaceCalls++
	assignment := f.assignments[assignmentID]
	assignment.Questions = questions
	f.assignments[assignmentID] = assignment
	return nil
}

type fakeSubmissionRepo struct {
	accountID   uint
	submission  models.AssignmentSubmission
	response    models.QuestionResponse
	createErr   error
	created     *models.AssignmentSubmission
	updateCalls int
	notFound    bool
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, accountID, id uint) (models.AssignmentSubmission, error) {
	if f.notFound || accountID != f.accountID {
		return models.AssignmentSubmission{}, gorm.ErrRecordNotFound
	}
	return f.submission, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error) {
	if f.notFound || f.submission.AssignmentID != assignmentID || f.submission.StudentID != studentID {
		return models.AssignmentSubmission{}, gorm.ErrRecordNotFound
	}
	return f.submission, nil
}

func (f *fakeSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentSubmission, error) {
	if f.notFound {
		return nil, nil
	}
	return []models.AssignmentSubmission{f.submission}, nil
}

func (f *fakeSubmissionRepo) CreateWithResponses(ctx context.Context, submission *models.AssignmentSubmission) error {
	if f.createErr != nil {
		return f.createErr
	}
	submission.ID = 1
	f.created = submission
	return nil
}

func (f *fakeSubmissionRepo) GetResponse(ctx context.Context, accountID, id uint) (models.QuestionResponse, models.AssignmentSubmission, error) {
	if f.notFound || accountID != f.accountID {
		return models.QuestionResponse{}, models.AssignmentSubmission{}, gorm.ErrRecordNotFound
	}
	return f.response, f.submission, nil
}

func (f *fakeSubmissionRepo) UpdateResponse(ctx context.Context, response *models.QuestionResponse) error {
	f.updateCalls++
	f.response = *response
	return nil
}

type fakeRubricRepo struct {
	rubrics        map[uint]models.Rubric
	assessed       bool
	assessment     models.RubricAssessment
	assessmentErr  error
	savedScores    []models.RubricCriterionScore
	saveCalls      int
	deleteCalls    int
	replaceCalls   int
	createdRubrics []models.Rubric
}

func (f *fakeRubricRepo) GetByID(ctx context.Context, courseID, id uint) (models.Rubric, error) {
	rubric, ok := f.rubrics[id]
	if !ok || rubric.CourseID != courseID {
		return models.Rubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

func (f *fakeRubricRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Rubric, error) {
	var out []models.Rubric
	for _, rubric := range f.rubrics {
		if rubric.CourseID == courseID {
			out = append(out, rubric)
		}
	}
	return out, nil
}

func (f *fakeRubricRepo) Create(ctx context.Context, rubric *models.Rubric) error {
	rubric.ID = uint(len(f.rubrics) + 1)
	if f.rubrics == nil {
		f.rubrics = map[uint]models.Rubric{}
	}
	f.rubrics[rubric.ID] = *rubric
	f.createdRubrics = append(f.createdRubrics, *rubric)
	return nil
}

func (f *fakeRubricRepo) Update(ctx context.Context, rubric *models.Rubric) error {
	f.rubrics[rubric.ID] = *rubric
	return nil
}

func (f *fakeRubricRepo) ReplaceCriteria(ctx context.Context, rubricID uint, criteria []models.RubricCriterion) error {
	f.replaceCalls++
	rubric := f.rubrics[rubricID]
	rubric.Criteria = criteria
	f.rubrics[rubricID] = rubric
	return nil
}

func (f *fakeRubricRepo) Delete(ctx context.Context, id uint) error {
	f.deleteCalls++
	delete(f.rubrics, id)
	return nil
}

func (f *fakeRubricRepo) HasAssessments(ctx context.Context, rubricID uint) (bool, error) {
	return f.assessed, nil
}

func (f *fakeRubricRepo) GetAssessmentBySubmission(ctx context.Context, submissionID uint) (models.RubricAssessment, error) {
	if f.assessmentErr != nil {
		return models.RubricAssessment{}, f.assessmentErr
	}
	return f.assessment, nil
}

func (f *fakeRubricRepo) SaveAssessment(ctx context.Context, assessment *models.RubricAssessment, scores []models.RubricCriterionScore) error {
	f.saveCalls++
	assessment.ID = 1
	f.assessment = *assessment
	f.savedScores = scores
	f.assessmentErr = nil
	return nil
}

type fakeGradeRepo struct {
	entries   []models.GradeEntry
	histories []models.GradeHistory
	listed    []models.GradeEntry
}

func (f *fakeGradeRepo) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	for i := range f.entries {
		if f.entries[i].MembershipID == entry.MembershipID && f.entries[i].AssignmentID == entry.AssignmentID {
			f.entries[i] = *entry
			return nil
		}
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeGradeRepo) AppendHistory(ctx context.Context, history *models.GradeHistory) error {
	f.histories = append(f.histories, *history)
	return nil
}

func (f *fakeGradeRepo) GetByMembershipAndAssignment(ctx context.Context, membershipID, assignmentID uint) (models.GradeEntry, error) {
	for _, entry := range f.entries {
		if entry.MembershipID == membershipID && entry.AssignmentID == assignmentID {
			return entry, nil
		}
	}
	return models.GradeEntry{}, gorm.ErrRecordNotFound
}

func (f *fakeGradeRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.GradeEntry, error) {
	return f.listed, nil
}

func (f *fakeGradeRepo) ListByStudent(ctx context.Context, accountID, userID uint, courseIDs []uint) ([]models.GradeEntry, error) {
	return f.listed, nil
}

type fakeAggregator struct {
	calls       []GradeTrigger
	submissions []models.AssignmentSubmission
}

func (f *fakeAggregator) Recalculate(ctx context.Context, submission models.AssignmentSubmission, trigger GradeTrigger) error {
	f.calls = append(f.calls, trigger)
	f.submissions = append(f.submissions, submission)
	return nil
}
