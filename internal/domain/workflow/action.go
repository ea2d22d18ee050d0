package workflow

// Action is a state-changing operation requested on a voucher
type Action string

const (
	ActionCreate          Action = "create"
	ActionGMVerify        Action = "gm_verify"
	ActionGMReject        Action = "gm_reject"
	ActionUploaderApprove Action = "uploader_approve"
	ActionUploaderReject  Action = "uploader_reject"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Activity log action tags, matching the audit vocabulary of the voucher
// database. GM rejection and uploader rejection share a tag; the log row's
// user_role column tells them apart.
const (
	LogVoucherCreated  = "voucher_created"
	LogVoucherVerified = "voucher_verified"
	LogVoucherRejected = "voucher_rejected"
	LogVoucherApproved = "voucher_approved"
)

// Audience identifies who must be notified after a transition commits
type Audience string

const (
	AudienceGM         Audience = "gm"
	AudienceAccountant Audience = "accountant"
	AudienceUploader   Audience = "uploader"
)
