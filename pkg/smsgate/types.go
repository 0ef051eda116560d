package smsgate

// Reason classifies the outcome of an admission decision.
type Reason string

const (
	// ReasonAllowed admits the message.
	ReasonAllowed Reason = "allowed"
	// ReasonInvalidNumber rejects a malformed phone number.
	ReasonInvalidNumber Reason = "invalid_phone_number"
	// ReasonNumberLimit rejects a number that reached its ceiling.
	ReasonNumberLimit Reason = "number_limit_exceeded"
	// ReasonAccountLimit rejects because the account reached its ceiling.
	ReasonAccountLimit Reason = "account_limit_exceeded"
)

// Retryable reports whether the rejection clears after a reset or sweep.
func (r Reason) Retryable() bool {
	return r == ReasonNumberLimit || r == ReasonAccountLimit
}

// Window describes how a rate query selected timestamps.
type Window string

const (
	// WindowUnrestricted uses every timestamp for the selection.
	WindowUnrestricted Window = "unrestricted"
	// WindowRange restricts timestamps to an inclusive [from, to] range.
	WindowRange Window = "range"
)

// SendResult is the outcome of a send admission check.
type SendResult struct {
	Allowed bool   `json:"success"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// ResetResult is the outcome of clearing all usage.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ForgetResult is the outcome of removing a single number.
type ForgetResult struct {
	Success bool   `json:"success"`
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}

// RateResult reports messages per second for a selection.
// Rate is carried as "count" on the wire.
type RateResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Rate    float64 `json:"count"`
	Matched int     `json:"matched"`
	Window  Window  `json:"window,omitempty"`
}

// RateQuery selects timestamps for a rate computation.
// Empty fields leave the selection unrestricted.
type RateQuery struct {
	PhoneNumber string `json:"phoneNumber"`
	FromDate    string `json:"fromDate"`
	ToDate      string `json:"toDate"`
}

// Usage reports the current counters for one number.
type Usage struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	Count          int    `json:"count"`
	AccountTotal   int    `json:"accountTotal"`
	MaxPerNumber   int    `json:"maxPerNumber"`
	MaxPerAccount  int    `json:"maxPerAccount"`
	TrackedNumbers int    `json:"trackedNumbers"`
}
