package smsgate

// Result messages returned to callers. Clients match on these texts, so
// they must stay stable.
const (
	MsgInvalidNumber = "Invalid phone number"
	MsgNumberLimit   = "Limit exceeded for this phone number"
	MsgAccountLimit  = "Limit exceeded for the entire account"
	MsgAllowed       = "SMS message allowed"

	MsgReset = "SMS limit reset."

	MsgNoMessages      = "No messages have been processed"
	MsgFromAfterTo     = "From date later than To date"
	MsgNoMatches       = "No message matches the criteria"
	MsgRateComputed    = "Messages processed per second"
	MsgNumberRemoved   = "Phone number removed"
	MsgNumberUntracked = "Phone number not tracked"
	MsgUsage           = "Current usage"
)
