package dto

// SaveParentRequest creates or updates a guardian. The phone number is
// normalised to E.164 before persistence.
type SaveParentRequest struct {
	FullName     string   `json:"full_name" validate:"required"`
	Relationship string   `json:"relationship" validate:"required"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone"`
	LearnerIDs   []string `json:"learner_ids"`
}

// ParentQuery carries list parameters from the HTTP layer.
type ParentQuery struct {
	Search    string `form:"search"`
	LearnerID string `form:"learner_id"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
