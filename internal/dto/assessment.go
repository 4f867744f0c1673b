package dto

// AssessmentEntry rates one dimension on the CBC scale.
type AssessmentEntry struct {
	Dimension string  `json:"dimension" validate:"required"`
	Rating    string  `json:"rating" validate:"required"`
	Comment   *string `json:"comment,omitempty"`
}

// SaveAssessmentRequest writes a rating sheet for a learner, kind, term and year.
type SaveAssessmentRequest struct {
	LearnerID    string            `json:"learner_id" validate:"required"`
	Kind         string            `json:"kind" validate:"required,oneof=COMPETENCY VALUE"`
	Term         int               `json:"term" validate:"required,min=1,max=3"`
	AcademicYear int               `json:"academic_year" validate:"required"`
	Entries      []AssessmentEntry `json:"entries" validate:"required,dive"`
}

// AssessmentQuery identifies a sheet to fetch.
type AssessmentQuery struct {
	Kind         string `form:"kind"`
	Term         int    `form:"term"`
	AcademicYear int    `form:"academic_year"`
}
