package models

import "time"

// AttendanceStatus is the canonical status enumeration. The API boundary accepts
// and returns these fixed upper-case codes; display labels are derived.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
	AttendanceStatusSick    AttendanceStatus = "SICK"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate,
		AttendanceStatusExcused, AttendanceStatusSick:
		return true
	default:
		return false
	}
}

// Label returns the human-readable form of the status code.
func (s AttendanceStatus) Label() string {
	switch s {
	case AttendanceStatusPresent:
		return "Present"
	case AttendanceStatusAbsent:
		return "Absent"
	case AttendanceStatusLate:
		return "Late"
	case AttendanceStatusExcused:
		return "Excused"
	case AttendanceStatusSick:
		return "Sick"
	default:
		return string(s)
	}
}

// AttendanceRecord is a single daily attendance row keyed by (learner, date).
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	LearnerID string           `db:"learner_id" json:"learner_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remark    *string          `db:"remark" json:"remark,omitempty"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	MarkedAt  time.Time        `db:"marked_at" json:"marked_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordDetail extends a record with learner metadata.
type AttendanceRecordDetail struct {
	AttendanceRecord
	LearnerName     string `db:"learner_name" json:"learner_name"`
	AdmissionNumber string `db:"admission_number" json:"admission_number"`
	Grade           string `db:"grade" json:"grade"`
	Stream          string `db:"stream" json:"stream"`
}

// AttendanceFilter defines conjunctive query filters for listing records.
type AttendanceFilter struct {
	Grade     string
	Stream    string
	LearnerID string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// DayReportRow captures one learner's status for a class day report.
type DayReportRow struct {
	LearnerID       string           `db:"learner_id" json:"learner_id"`
	LearnerName     string           `db:"learner_name" json:"learner_name"`
	AdmissionNumber string           `db:"admission_number" json:"admission_number"`
	Status          AttendanceStatus `db:"status" json:"status"`
	Remark          *string          `db:"remark" json:"remark,omitempty"`
}

// AttendanceStats aggregates counts over a filtered set of records.
// Percentage is round(100*present/total), defined as 0 when total is 0.
type AttendanceStats struct {
	Present      int `json:"present"`
	Absent       int `json:"absent"`
	Late         int `json:"late"`
	Excused      int `json:"excused"`
	Sick         int `json:"sick"`
	Total        int `json:"total"`
	DistinctDays int `json:"distinct_days"`
	Percentage   int `json:"percentage"`
}
