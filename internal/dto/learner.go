package dto

// CreateLearnerRequest registers a new learner.
type CreateLearnerRequest struct {
	AdmissionNumber string   `json:"admission_number" validate:"required"`
	FullName        string   `json:"full_name" validate:"required"`
	Gender          string   `json:"gender" validate:"required,oneof=M F"`
	BirthDate       *string  `json:"birth_date,omitempty"`
	Grade           string   `json:"grade" validate:"required"`
	Stream          string   `json:"stream" validate:"required"`
	GuardianIDs     []string `json:"guardian_ids,omitempty"`
}

// UpdateLearnerRequest edits an existing learner.
type UpdateLearnerRequest struct {
	AdmissionNumber string  `json:"admission_number" validate:"required"`
	FullName        string  `json:"full_name" validate:"required"`
	Gender          string  `json:"gender" validate:"required,oneof=M F"`
	BirthDate       *string `json:"birth_date,omitempty"`
	Grade           string  `json:"grade" validate:"required"`
	Stream          string  `json:"stream" validate:"required"`
	Status          string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// LearnerQuery carries list parameters from the HTTP layer.
type LearnerQuery struct {
	Search    string `form:"search"`
	Grade     string `form:"grade"`
	Stream    string `form:"stream"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
