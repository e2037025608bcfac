package models

// Wire types for the payment provider's REST API. Only the fields the
// settlement engine reads are modeled.

// InitializeRequest initializes a hosted-checkout transaction.
type InitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
}

// InitializeResponse carries the hosted checkout URL on success.
type InitializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// VerifyResponse is the provider's answer to a transaction verification.
// Both the envelope status and the nested data status must read "success"
// for a transaction to count as settled.
type VerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// TransferRequest initiates an outbound bank transfer. The reference doubles
// as the provider-facing idempotency key.
type TransferRequest struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	BankCode      string `json:"bank_code"`
}

// TransferResponse is the synchronous answer to a transfer initiation or
// verification.
type TransferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Bank is one entry of the provider's bank directory.
type Bank struct {
	Id       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// BanksResponse is the provider's bank directory listing.
type BanksResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []Bank `json:"data"`
}

// WebhookPayload is the body the provider posts to the server-approval
// endpoint, authenticated by an HMAC signature header.
type WebhookPayload struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}
