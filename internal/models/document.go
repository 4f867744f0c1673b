package models

import "time"

// DocumentCategory is the fixed category set; free-form tags are also accepted
// and passed through unchanged.
const (
	DocumentCategoryPolicy     = "POLICY"
	DocumentCategoryCircular   = "CIRCULAR"
	DocumentCategoryReportCard = "REPORT_CARD"
	DocumentCategoryTimetable  = "TIMETABLE"
	DocumentCategoryOther      = "OTHER"
)

// Document holds file metadata; the binary lives in local storage and is
// served through signed URLs.
type Document struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Size       int64     `db:"size" json:"size"`
	MIMEType   string    `db:"mime_type" json:"type"`
	Category   string    `db:"category" json:"category"`
	StoredPath string    `db:"stored_path" json:"-"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	URL        string    `db:"-" json:"url,omitempty"`
}

// DocumentFilter scopes document listing.
type DocumentFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}
