package dto

// MarkAttendanceRequest records one learner's status for a date.
type MarkAttendanceRequest struct {
	LearnerID string  `json:"learner_id" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"required"`
	Remark    *string `json:"remark,omitempty"`
}

// BulkMarkAttendanceRequest marks a whole class for a date. When MarkAllPresent
// is set, every active learner in the class without an explicit entry is
// recorded as PRESENT.
type BulkMarkAttendanceRequest struct {
	Grade          string                  `json:"grade" validate:"required"`
	Stream         string                  `json:"stream" validate:"required"`
	Date           string                  `json:"date" validate:"required,datetime=2006-01-02"`
	MarkAllPresent bool                    `json:"mark_all_present"`
	Entries        []MarkAttendanceRequest `json:"entries" validate:"dive"`
}

// AttendanceQuery carries list/stats parameters from the HTTP layer.
type AttendanceQuery struct {
	Grade     string `form:"grade"`
	Stream    string `form:"stream"`
	LearnerID string `form:"learner_id"`
	Status    string `form:"status"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
