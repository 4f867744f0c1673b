package models

import "time"

// TransferDirection distinguishes inbound and outbound transfers.
type TransferDirection string

const (
	TransferDirectionIn  TransferDirection = "IN"
	TransferDirectionOut TransferDirection = "OUT"
)

// Valid returns true for supported directions.
func (d TransferDirection) Valid() bool {
	return d == TransferDirectionIn || d == TransferDirectionOut
}

// TransferStatus captures workflow states. Transitions are monotonic:
// PENDING may become APPROVED or REJECTED; terminal states never change.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "PENDING"
	TransferStatusApproved TransferStatus = "APPROVED"
	TransferStatusRejected TransferStatus = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferStatusApproved || s == TransferStatusRejected
}

// OutboundTransferReasons is the fixed reason list for outbound transfers.
// Inbound transfers carry a free-form reason.
var OutboundTransferReasons = []string{
	"Family Relocation",
	"School Preference",
	"Fee Constraints",
	"Disciplinary",
	"Other",
}

// ValidOutboundReason checks membership in the fixed reason list.
func ValidOutboundReason(reason string) bool {
	for _, r := range OutboundTransferReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// TransferRecord is a learner transfer request awaiting review.
type TransferRecord struct {
	ID          string            `db:"id" json:"id"`
	LearnerID   string            `db:"learner_id" json:"learner_id"`
	Direction   TransferDirection `db:"direction" json:"direction"`
	School      string            `db:"school" json:"school"`
	Reason      string            `db:"reason" json:"reason"`
	Status      TransferStatus    `db:"status" json:"status"`
	RequestedBy string            `db:"requested_by" json:"requested_by"`
	ReviewedBy  *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RequestedAt time.Time         `db:"requested_at" json:"requested_at"`
	ReviewedAt  *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Note        *string           `db:"note" json:"note,omitempty"`
}

// TransferDetail joins a record with learner metadata.
type TransferDetail struct {
	TransferRecord
	LearnerName     string `db:"learner_name" json:"learner_name"`
	AdmissionNumber string `db:"admission_number" json:"admission_number"`
	Grade           string `db:"grade" json:"grade"`
}

// TransferFilter constrains listing queries.
type TransferFilter struct {
	Status    *TransferStatus
	Direction *TransferDirection
	LearnerID string
	Page      int
	PageSize  int
}

// TransferStats counts requests per workflow status.
type TransferStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
