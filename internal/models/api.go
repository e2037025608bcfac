package models

// Operation result types returned by the settlement engine and the reward
// transfer service to controller-layer collaborators.

// FundResult is the outcome of initiating a funding payment.
type FundResult struct {
	CheckoutURL string   `json:"checkout_url"`
	Payment     *Payment `json:"payment,omitempty"`
}

// CallbackResult is the outcome of reconciling a provider redirect callback.
type CallbackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// WithdrawResult is the outcome of a completed withdrawal attempt.
type WithdrawResult struct {
	Payment *Payment          `json:"payment"`
	Gateway *TransferResponse `json:"gateway"`
}

// RefundResult is the outcome of a completed refund attempt.
type RefundResult struct {
	Message string `json:"message"`
}

// ApprovalResult is the outcome of an administrative payment approval.
type ApprovalResult struct {
	Approved bool `json:"approved"`
}

// WebhookResult is the outcome of a server-approval webhook delivery.
type WebhookResult struct {
	Status string `json:"status"`
}

// SubmitResult is the outcome of a response submission.
type SubmitResult struct {
	Message    string `json:"message"`
	ResponseId string `json:"responseId"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// SurveyAnswers is the reporting view of a survey's questions and answers.
type SurveyAnswers struct {
	SurveyId   string     `json:"surveyId"`
	Questions  []Question `json:"questions"`
	Answers    []Answer   `json:"answers"`
	Pagination Pagination `json:"pagination"`
}
