package dto

// CreateTransferRequest files a new transfer request for a learner.
type CreateTransferRequest struct {
	LearnerID string `json:"learner_id" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=IN OUT"`
	School    string `json:"school" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// ReviewTransferRequest approves or rejects a pending transfer.
type ReviewTransferRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   string `json:"note"`
}

// TransferQuery carries list parameters from the HTTP layer.
type TransferQuery struct {
	Status    string `form:"status"`
	Direction string `form:"direction"`
	LearnerID string `form:"learner_id"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
