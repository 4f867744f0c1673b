package models

import "time"

// RatingCode is the 8-point CBC ordinal scale, best to worst:
// EE1, EE2, ME1, ME2, AE1, AE2, BE1, BE2. A lower numeric suffix is the
// stronger performance within the same band.
type RatingCode string

const (
	RatingEE1 RatingCode = "EE1"
	RatingEE2 RatingCode = "EE2"
	RatingME1 RatingCode = "ME1"
	RatingME2 RatingCode = "ME2"
	RatingAE1 RatingCode = "AE1"
	RatingAE2 RatingCode = "AE2"
	RatingBE1 RatingCode = "BE1"
	RatingBE2 RatingCode = "BE2"
)

var ratingRanks = map[RatingCode]int{
	RatingEE1: 1, RatingEE2: 2,
	RatingME1: 3, RatingME2: 4,
	RatingAE1: 5, RatingAE2: 6,
	RatingBE1: 7, RatingBE2: 8,
}

// Valid returns true when the code is on the scale.
func (r RatingCode) Valid() bool {
	_, ok := ratingRanks[r]
	return ok
}

// Rank returns the ordinal position, 1 (best) to 8 (worst); 0 for unknown codes.
func (r RatingCode) Rank() int {
	return ratingRanks[r]
}

// Band returns the two-letter band (EE, ME, AE, BE) of the code.
func (r RatingCode) Band() string {
	if len(r) < 2 {
		return ""
	}
	return string(r[:2])
}

// AssessmentKind separates competency ratings from core-value ratings.
type AssessmentKind string

const (
	AssessmentKindCompetency AssessmentKind = "COMPETENCY"
	AssessmentKindValue      AssessmentKind = "VALUE"
)

// Competencies are the fixed rated dimensions for competency assessments.
var Competencies = []string{
	"Communication and Collaboration",
	"Critical Thinking and Problem Solving",
	"Creativity and Imagination",
	"Citizenship",
	"Digital Literacy",
	"Learning to Learn",
}

// CoreValues are the fixed rated dimensions for values assessments.
var CoreValues = []string{
	"Love",
	"Responsibility",
	"Respect",
	"Unity",
	"Peace",
	"Patriotism",
	"Integrity",
}

// Dimensions returns the fixed dimension list for a kind.
func (k AssessmentKind) Dimensions() []string {
	if k == AssessmentKindValue {
		return CoreValues
	}
	return Competencies
}

// Valid returns true for supported kinds.
func (k AssessmentKind) Valid() bool {
	return k == AssessmentKindCompetency || k == AssessmentKindValue
}

// AssessmentKey identifies one assessment sheet.
type AssessmentKey struct {
	LearnerID    string         `json:"learner_id"`
	Kind         AssessmentKind `json:"kind"`
	Term         int            `json:"term"`
	AcademicYear int            `json:"academic_year"`
}

// AssessmentRating is one rated dimension persisted for a key. Rows are keyed
// by (learner, kind, term, year, dimension) so repeated saves overwrite.
type AssessmentRating struct {
	ID           string         `db:"id" json:"id"`
	LearnerID    string         `db:"learner_id" json:"learner_id"`
	Kind         AssessmentKind `db:"kind" json:"kind"`
	Term         int            `db:"term" json:"term"`
	AcademicYear int            `db:"academic_year" json:"academic_year"`
	Dimension    string         `db:"dimension" json:"dimension"`
	Rating       RatingCode     `db:"rating" json:"rating"`
	Comment      *string        `db:"comment" json:"comment,omitempty"`
	AssessedBy   string         `db:"assessed_by" json:"assessed_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AssessmentSheet is the full rating set for a key; missing dimensions carry
// an empty rating so a sheet is always total over the fixed dimension list.
type AssessmentSheet struct {
	Key     AssessmentKey        `json:"key"`
	Entries []AssessmentSheetRow `json:"entries"`
	Found   bool                 `json:"found"`
}

// AssessmentSheetRow is one dimension of a sheet.
type AssessmentSheetRow struct {
	Dimension string     `json:"dimension"`
	Rating    RatingCode `json:"rating"`
	Comment   *string    `json:"comment,omitempty"`
}

// RatingDistribution counts ratings per band for reporting.
type RatingDistribution struct {
	Band  string `db:"band" json:"band"`
	Count int    `db:"count" json:"count"`
}
