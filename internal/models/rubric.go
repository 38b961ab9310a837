package models

import "time"

// Rubric is a reusable grading template owned by a course. Its criteria and
// ratings are fixed at authoring time; assessments only select among them.
type Rubric struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	IsReusable  bool      `gorm:"not null;default:true" json:"is_reusable"`
	CreatedBy   *uint     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Course   Course            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Criteria []RubricCriterion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criteria,omitempty"`
}

// TotalPointsPossible sums the ceiling of every criterion.
func (r Rubric) TotalPointsPossible() int {
	total := 0
	for _, criterion := range r.Criteria {
		total += criterion.PointsPossible
	}
	return total
}

// RubricCriterion is one graded dimension of a rubric, e.g. "Thesis Clarity".
type RubricCriterion struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	RubricID       uint   `gorm:"not null;uniqueIndex:idx_criterion_rubric_position" json:"rubric_id"`
	Title          string `gorm:"size:255;not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	Position       int    `gorm:"not null;default:0;uniqueIndex:idx_criterion_rubric_position" json:"order"`
	PointsPossible int    `gorm:"not null" json:"points_possible"`

	Ratings []RubricRating `gorm:"foreignKey:CriterionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"ratings,omitempty"`
}

// RatingByID returns the rating with the given id if it belongs to the criterion.
func (c RubricCriterion) RatingByID(id uint) *RubricRating {
	for i := range c.Ratings {
		if c.Ratings[i].ID == id {
			return &c.Ratings[i]
		}
	}
	return nil
}

// RubricRating is a selectable performance level within a criterion.
type RubricRating struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CriterionID uint   `gorm:"not null;uniqueIndex:idx_rating_criterion_position" json:"criterion_id"`
	Label       string `gorm:"size:100;not null" json:"label"`
	Description string `gorm:"type:text" json:"description"`
	Points      int    `gorm:"not null" json:"points"`
	Position    int    `gorm:"not null;default:0;uniqueIndex:idx_rating_criterion_position" json:"order"`
}

// RubricAssessment is an instructor's rubric evaluation of one submission.
// TotalScore is derived from the selected ratings, never set by callers.
type RubricAssessment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex:idx_assessment_submission_rubric" json:"submission_id"`
	RubricID     uint      `gorm:"not null;uniqueIndex:idx_assessment_submission_rubric" json:"rubric_id"`
	TotalScore   float64   `gorm:"type:decimal(7,2);not null;default:0" json:"total_score"`
	GradedBy     *uint     `json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`

	Rubric Rubric                 `gorm:"constraint:OnUpdate:CASCADE" json:"rubric,omitempty"`
	Scores []RubricCriterionScore `gorm:"foreignKey:AssessmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criterion_scores,omitempty"`
}

// RecalculateTotal derives the assessment total from the selected ratings.
// The SelectedRating association must be loaded.
func (a *RubricAssessment) RecalculateTotal() float64 {
	total := 0
	for _, score := range a.Scores {
		total += score.SelectedRating.Points
	}
	a.TotalScore = float64(total)
	return a.TotalScore
}

// RubricCriterionScore selects one rating for one criterion of an assessment.
type RubricCriterionScore struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AssessmentID     uint   `gorm:"not null;uniqueIndex:idx_score_assessment_criterion" json:"assessment_id"`
	CriterionID      uint   `gorm:"not null;uniqueIndex:idx_score_assessment_criterion" json:"criterion_id"`
	SelectedRatingID uint   `gorm:"not null" json:"selected_rating_id"`
	Comments         string `gorm:"type:text" json:"comments"`

	Criterion      RubricCriterion `gorm:"foreignKey:CriterionID" json:"criterion,omitempty"`
	SelectedRating RubricRating    `gorm:"foreignKey:SelectedRatingID" json:"selected_rating,omitempty"`
}
