package dto

// CreateAnnouncementRequest broadcasts a message to parents. A nil grade
// targets the whole school.
type CreateAnnouncementRequest struct {
	Title   string  `json:"title" validate:"required"`
	Content string  `json:"content" validate:"required"`
	Grade   *string `json:"grade,omitempty"`
}

// WhatsAppTestRequest previews the deep link for a raw phone number.
type WhatsAppTestRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message"`
}

// AssessmentNotificationRequest messages a learner's guardians once a term's
// ratings are saved.
type AssessmentNotificationRequest struct {
	LearnerID    string `json:"learner_id" validate:"required"`
	Term         int    `json:"term" validate:"required,min=1,max=3"`
	AcademicYear int    `json:"academic_year" validate:"required"`
}

// AnnouncementQuery carries list parameters from the HTTP layer.
type AnnouncementQuery struct {
	Grade    string `form:"grade"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
