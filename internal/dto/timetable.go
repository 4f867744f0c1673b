package dto

// SaveTimetableSlotRequest creates or updates a weekly slot.
type SaveTimetableSlotRequest struct {
	Grade     string `json:"grade" validate:"required"`
	Stream    string `json:"stream" validate:"required"`
	Day       int    `json:"day" validate:"required,min=1,max=5"`
	Period    int    `json:"period" validate:"required,min=1,max=10"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// TimetableQuery scopes slot listing.
type TimetableQuery struct {
	Grade     string `form:"grade"`
	Stream    string `form:"stream"`
	TeacherID string `form:"teacher_id"`
	Day       *int   `form:"day"`
}
