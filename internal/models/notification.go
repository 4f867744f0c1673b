package models

import "time"

// Announcement is a persisted broadcast to parents, optionally scoped to a grade.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Grade     *string   `db:"grade" json:"grade,omitempty"`
	Sent      int       `db:"sent" json:"sent"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnnouncementFilter scopes announcement listing.
type AnnouncementFilter struct {
	Grade    string
	Page     int
	PageSize int
}

// WhatsAppLink is a ready-to-open deep link for a normalised phone number.
type WhatsAppLink struct {
	Phone string `json:"phone"`
	URL   string `json:"url"`
}
