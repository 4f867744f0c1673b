package models

import "time"

// LearnerStatus is the enrolment state of a learner.
type LearnerStatus string

const (
	LearnerStatusActive   LearnerStatus = "ACTIVE"
	LearnerStatusInactive LearnerStatus = "INACTIVE"
)

// Valid returns true when the status is a supported value.
func (s LearnerStatus) Valid() bool {
	return s == LearnerStatusActive || s == LearnerStatusInactive
}

// Learner represents a student registered in the school.
type Learner struct {
	ID              string        `db:"id" json:"id"`
	AdmissionNumber string        `db:"admission_number" json:"admission_number"`
	FullName        string        `db:"full_name" json:"full_name"`
	Gender          string        `db:"gender" json:"gender"`
	BirthDate       *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	Grade           string        `db:"grade" json:"grade"`
	Stream          string        `db:"stream" json:"stream"`
	Status          LearnerStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// LearnerFilter encapsulates allowed search parameters for listing learners.
// All active dimensions are combined conjunctively; empty values are ignored.
type LearnerFilter struct {
	Search    string
	Grade     string
	Stream    string
	Status    *LearnerStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// LearnerDetail joins a learner with its guardian linkage.
type LearnerDetail struct {
	Learner
	GuardianIDs []string `json:"guardian_ids,omitempty"`
}
