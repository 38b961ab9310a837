package dto

import (
	"time"

	"github.com/syllabex/syllabex-api/internal/models"
)

// RubricRatingRequest is one performance level of a criterion payload.
type RubricRatingRequest struct {
	Label       string `json:"label" validate:"required,max=100"`
	Description string `json:"description"`
	Points      int    `json:"points" validate:"gte=0"`
	Order       int    `json:"order" validate:"gte=0"`
}

// RubricCriterionRequest is one criterion of a rubric payload. Criterion
// collections are submitted whole; updates replace the previous tree.
type RubricCriterionRequest struct {
	Title          string                `json:"title" validate:"required,max=255"`
	Description    string                `json:"description"`
	Order          int                   `json:"order" validate:"gte=0"`
	PointsPossible int                   `json:"points_possible" validate:"gte=0"`
	Ratings        []RubricRatingRequest `json:"ratings" validate:"min=1,dive"`
}

// RubricCreateRequest creates a rubric with its criterion tree.
type RubricCreateRequest struct {
	Title       string                   `json:"title" validate:"required,max=255"`
	Description string                   `json:"description"`
	IsReusable  *bool                    `json:"is_reusable"`
	Criteria    []RubricCriterionRequest `json:"criteria" validate:"min=1,dive"`
}

// RubricUpdateRequest mutates a rubric. A non-nil Criteria slice replaces the
// entire criterion tree.
type RubricUpdateRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,max=255"`
	Description *string                  `json:"description"`
	IsReusable  *bool                    `json:"is_reusable"`
	Criteria    []RubricCriterionRequest `json:"criteria" validate:"omitempty,min=1,dive"`
}

// CriterionScoreRequest selects one rating for one criterion in an assessment.
type CriterionScoreRequest struct {
	CriterionID uint   `json:"criterion_id" validate:"required,gt=0"`
	RatingID    uint   `json:"rating_id" validate:"required,gt=0"`
	Comments    string `json:"comments"`
}

// AssessSubmissionRequest grades a submission with the assignment's rubric.
// The score set is always submitted complete; reassessment overwrites fully.
type AssessSubmissionRequest struct {
	CriterionScores []CriterionScoreRequest `json:"criterion_scores" validate:"min=1,dive"`
}

// RubricRatingResponse mirrors a stored rating.
type RubricRatingResponse struct {
	ID          uint   `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Order       int    `json:"order"`
}

// RubricCriterionResponse mirrors a stored criterion.
type RubricCriterionResponse struct {
	ID             uint                   `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Order          int                    `json:"order"`
	PointsPossible int                    `json:"points_possible"`
	Ratings        []RubricRatingResponse `json:"ratings"`
}

// RubricResponse is returned to API clients when viewing rubrics.
type RubricResponse struct {
	ID                  uint                      `json:"id"`
	CourseID            uint                      `json:"course_id"`
	Title               string                    `json:"title"`
	Description         string                    `json:"description"`
	IsReusable          bool                      `json:"is_reusable"`
	TotalPointsPossible int                       `json:"total_points_possible"`
	Criteria            []RubricCriterionResponse `json:"criteria"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// NewRubricResponse converts a rubric model with its tree.
func NewRubricResponse(rubric models.Rubric) RubricResponse {
	response := RubricResponse{
		ID:                  rubric.ID,
		CourseID:            rubric.CourseID,
		Title:               rubric.Title,
		Description:         rubric.Description,
		IsReusable:          rubric.IsReusable,
		TotalPointsPossible: rubric.TotalPointsPossible(),
		CreatedAt:           rubric.CreatedAt,
		UpdatedAt:           rubric.UpdatedAt,
	}
	for _, criterion := range rubric.Criteria {
		criterionBody := RubricCriterionResponse{
			ID:             criterion.ID,
			Title:          criterion.Title,
			Description:    criterion.Description,
			Order:          criterion.Position,
			PointsPossible: criterion.PointsPossible,
		}
		for _, rating := range criterion.Ratings {
			criterionBody.Ratings = append(criterionBody.Ratings, RubricRatingResponse{
				ID:          rating.ID,
				Label:       rating.Label,
				Description: rating.Description,
				Points:      rating.Points,
				Order:       rating.Position,
			})
		}
		response.Criteria = append(response.Criteria, criterionBody)
	}
	return response
}

// NewRubricResponseSlice converts a list of rubrics.
func NewRubricResponseSlice(rubrics []models.Rubric) []RubricResponse {
	responses := make([]RubricResponse, 0, len(rubrics))
	for _, rubric := range rubrics {
		responses = append(responses, NewRubricResponse(rubric))
	}
	return responses
}

// CriterionScoreResponse mirrors one stored criterion score.
type CriterionScoreResponse struct {
	ID             uint   `json:"id"`
	CriterionID    uint   `json:"criterion_id"`
	CriterionTitle string `json:"criterion_title"`
	RatingID       uint   `json:"rating_id"`
	RatingLabel    string `json:"rating_label"`
	Points         int    `json:"points"`
	Comments       string `json:"comments"`
}

// AssessmentResponse is returned when viewing a rubric assessment.
type AssessmentResponse struct {
	ID              uint                     `json:"id"`
	SubmissionID    uint                     `json:"submission_id"`
	RubricID        uint                     `json:"rubric_id"`
	TotalScore      float64                  `json:"total_score"`
	GradedBy        *uint                    `json:"graded_by"`
	GradedAt        time.Time                `json:"graded_at"`
	CriterionScores []CriterionScoreResponse `json:"criterion_scores"`
}

// NewAssessmentResponse converts an assessment with loaded scores.
func NewAssessmentResponse(assessment models.RubricAssessment) AssessmentResponse {
	response := AssessmentResponse{
		ID:           assessment.ID,
		SubmissionID: assessment.SubmissionID,
		RubricID:     assessment.RubricID,
		TotalScore:   assessment.TotalScore,
		GradedBy:     assessment.GradedBy,
		GradedAt:     assessment.GradedAt,
	}
	for _, score := range assessment.Scores {
		response.CriterionScores = append(response.CriterionScores, CriterionScoreResponse{
			ID:             score.ID,
			CriterionID:    score.CriterionID,
			CriterionTitle: score.Criterion.Title,
			RatingID:       score.SelectedRatingID,
			RatingLabel:    score.SelectedRating.Label,
			Points:         score.SelectedRating.Points,
			Comments:       score.Comments,
		})
	}
	return response
}
