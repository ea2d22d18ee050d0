package workflow

import "fmt"

// Request carries everything the rule table needs to decide a transition.
// Identity resolution happens upstream: the caller passes the actor's role
// and, for GM verification, the role of the user the uploader_id parameter
// resolved to (nil when the parameter is missing or the user is unknown).
type Request struct {
	Action       Action
	ActorRole    Role
	AssigneeRole *Role
}

// Outcome describes the effect of an accepted transition. Nil status fields
// mean "leave unchanged". The caller persists the change, writes the log
// entry and fans notifications out to the listed audiences.
type Outcome struct {
	GMStatus       *GMStatus
	UploaderStatus *UploaderStatus
	AssignUploader bool
	LogAction      string
	OldStatus      string
	NewStatus      string
	Notify         []Audience
}

// GuardFunc evaluates whether a transition is allowed from the current state
type GuardFunc func(req Request, cur Status) error

type rule struct {
	capability Capability
	guard      GuardFunc
	outcome    func(req Request, cur Status) Outcome
}

var rules = map[Action]rule{
	ActionCreate: {
		capability: CapabilityAccountant,
		guard:      func(Request, Status) error { return nil },
		outcome: func(Request, Status) Outcome {
			return Outcome{
				LogAction: LogVoucherCreated,
				NewStatus: GMPending.String(),
				Notify:    []Audience{AudienceGM},
			}
		},
	},
	ActionGMVerify: {
		capability: CapabilityGM,
		guard: func(req Request, cur Status) error {
			if cur.GM != GMPending {
				return fmt.Errorf("%w: voucher is %s, expected pending", ErrInvalidTransition, cur.GM)
			}
			if req.AssigneeRole == nil {
				return fmt.Errorf("%w: an uploader must be selected when verifying", ErrValidation)
			}
			if req.AssigneeRole.Capability() != CapabilityUploader {
				return fmt.Errorf("%w: assignee role %s is not an uploader", ErrValidation, *req.AssigneeRole)
			}
			return nil
		},
		outcome: func(req Request, cur Status) Outcome {
			verified := GMVerified
			return Outcome{
				GMStatus:       &verified,
				AssignUploader: true,
				LogAction:      LogVoucherVerified,
				OldStatus:      cur.GM.String(),
				NewStatus:      verified.String(),
				Notify:         []Audience{AudienceAccountant, AudienceUploader},
			}
		},
	},
	ActionGMReject: {
		capability: CapabilityGM,
		guard: func(_ Request, cur Status) error {
			if cur.GM != GMPending {
				return fmt.Errorf("%w: voucher is %s, expected pending", ErrInvalidTransition, cur.GM)
			}
			return nil
		},
		outcome: func(_ Request, cur Status) Outcome {
			rejected := GMRejected
			return Outcome{
				GMStatus:  &rejected,
				LogAction: LogVoucherRejected,
				OldStatus: cur.GM.String(),
				NewStatus: rejected.String(),
				Notify:    []Audience{AudienceAccountant},
			}
		},
	},
	ActionUploaderApprove: {
		capability: CapabilityUploader,
		guard:      requireGMVerified,
		outcome: func(_ Request, cur Status) Outcome {
			approved := UploaderApproved
			return Outcome{
				UploaderStatus: &approved,
				LogAction:      LogVoucherApproved,
				OldStatus:      cur.Uploader.String(),
				NewStatus:      approved.String(),
				Notify:         []Audience{AudienceGM},
			}
		},
	},
	ActionUploaderReject: {
		capability: CapabilityUploader,
		guard:      requireGMVerified,
		outcome: func(_ Request, cur Status) Outcome {
			rejected := UploaderRejected
			return Outcome{
				UploaderStatus: &rejected,
				LogAction:      LogVoucherRejected,
				OldStatus:      cur.Uploader.String(),
				NewStatus:      rejected.String(),
				Notify:         []Audience{AudienceGM},
			}
		},
	},
}

// requireGMVerified gates both uploader actions. The current uploader status
// is deliberately not checked: an uploader action on an already settled
// voucher is accepted and overwrites the previous disposition.
func requireGMVerified(_ Request, cur Status) error {
	if cur.GM != GMVerified {
		return fmt.Errorf("%w: voucher must be verified by GM first", ErrInvalidTransition)
	}
	return nil
}

// Evaluate checks the request against the rule table and, if the actor's
// capability and the voucher's current state allow it, returns the effect to
// apply. It never mutates anything itself; a returned error means the caller
// must not change state, log, or notify.
func Evaluate(req Request, cur Status) (Outcome, error) {
	r, ok := rules[req.Action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}
	if !req.ActorRole.IsValid() {
		return Outcome{}, fmt.Errorf("%w: unknown role %q", ErrValidation, req.ActorRole)
	}
	if req.ActorRole.Capability() != r.capability {
		return Outcome{}, fmt.Errorf("%w: role %s cannot perform %s", ErrForbidden, req.ActorRole, req.Action)
	}
	if err := r.guard(req, cur); err != nil {
		return Outcome{}, err
	}
	return r.outcome(req, cur), nil
}

// CanFire reports whether the action could be accepted for the given role
// and state, without evaluating parameter-level validation.
func CanFire(action Action, role Role, cur Status) bool {
	r, ok := rules[action]
	if !ok || role.Capability() != r.capability {
		return false
	}
	switch action {
	case ActionGMVerify, ActionGMReject:
		return cur.GM == GMPending
	case ActionUploaderApprove, ActionUploaderReject:
		return cur.GM == GMVerified
	default:
		return true
	}
}
