package workflow

// GMStatus is the general manager's disposition of a voucher
type GMStatus string

const (
	GMPending  GMStatus = "pending"
	GMVerified GMStatus = "verified"
	GMRejected GMStatus = "rejected"
)

var validGMStatuses = map[GMStatus]bool{
	GMPending:  true,
	GMVerified: true,
	GMRejected: true,
}

// IsValid returns true if the status is a valid GM status
func (s GMStatus) IsValid() bool {
	return validGMStatuses[s]
}

// String returns the string representation of the status
func (s GMStatus) String() string {
	return string(s)
}

// UploaderStatus is the assigned uploader's disposition of a voucher
type UploaderStatus string

const (
	UploaderPending  UploaderStatus = "pending"
	UploaderApproved UploaderStatus = "approved"
	UploaderRejected UploaderStatus = "rejected"
)

var validUploaderStatuses = map[UploaderStatus]bool{
	UploaderPending:  true,
	UploaderApproved: true,
	UploaderRejected: true,
}

// IsValid returns true if the status is a valid uploader status
func (s UploaderStatus) IsValid() bool {
	return validUploaderStatuses[s]
}

// String returns the string representation of the status
func (s UploaderStatus) String() string {
	return string(s)
}

// Status is the full workflow state of a voucher: the (gmStatus,
// uploaderStatus) pair. The reachable combinations are
// (pending,pending), (verified,pending), (rejected,pending),
// (verified,approved) and (verified,rejected).
type Status struct {
	GM       GMStatus
	Uploader UploaderStatus
}

// Initial returns the state a freshly created voucher starts in
func Initial() Status {
	return Status{GM: GMPending, Uploader: UploaderPending}
}

// Settled reports whether the voucher has reached a final disposition: the
// GM rejected it, or the assigned uploader has acted. Note that uploader
// actions stay fireable from a settled verified voucher; see the rule table.
func (s Status) Settled() bool {
	return s.GM == GMRejected || s.Uploader != UploaderPending
}
