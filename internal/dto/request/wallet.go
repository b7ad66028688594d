package request

type PayoutRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type BonusRequest struct {
	Amount      string `json:"amount" validate:"required,numeric"`
	Description string `json:"description" validate:"required,max=255"`
}

type FailPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}
