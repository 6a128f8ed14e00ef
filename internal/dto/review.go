package dto

// DecisionRequest opens the confirmation step for a row.
type DecisionRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ConfirmDecisionRequest carries the rejection reason, ignored for approvals.
type ConfirmDecisionRequest struct {
	Reason string `json:"reason"`
}
