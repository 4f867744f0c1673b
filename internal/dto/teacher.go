package dto

// CreateTeacherRequest registers a staff member with login credentials.
type CreateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
	Subjects string `json:"subjects"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN TEACHER"`
}

// UpdateTeacherRequest edits a staff member. Email is not accepted here; it is
// fixed at creation. A blank password leaves the stored hash untouched.
type UpdateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Subjects string `json:"subjects"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN TEACHER"`
	Active   *bool  `json:"active,omitempty"`
}

// TeacherQuery carries list parameters from the HTTP layer.
type TeacherQuery struct {
	Search    string `form:"search"`
	Active    *bool  `form:"active"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
