package models

import (
	"time"

	"github.com/lib/pq"
)

// Parent represents a guardian with contact channels and learner linkage.
// Phone numbers are stored normalised to E.164.
type Parent struct {
	ID           string         `db:"id" json:"id"`
	FullName     string         `db:"full_name" json:"full_name"`
	Relationship string         `db:"relationship" json:"relationship"`
	Email        string         `db:"email" json:"email"`
	Phone        string         `db:"phone" json:"phone"`
	LearnerIDs   pq.StringArray `db:"learner_ids" json:"learner_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ParentFilter scopes parent listing. Search matches name, email or phone.
type ParentFilter struct {
	Search    string
	LearnerID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ParentContactSummary aggregates reachability of the parent body.
type ParentContactSummary struct {
	Total           int       `json:"total"`
	WithPhone       int       `json:"with_phone"`
	WithEmail       int       `json:"with_email"`
	WithBothMissing int       `json:"with_both_missing"`
	GeneratedAt     time.Time `json:"generated_at"`
}
