package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// allocateRetries bounds how many times creation re-allocates a number after
// losing a concurrent insert race on the unique constraint.
const allocateRetries = 3

// Report status filters accepted by Report
var reportStatuses = map[string]bool{
	"approved": true,
	"rejected": true,
	"pending":  true,
	"verified": true,
	"all":      true,
}

// VoucherService is the transition engine: it validates role authorization
// and state preconditions, applies the atomic status update, and triggers
// the audit log and notification side effects.
type VoucherService interface {
	NextVoucherNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, actor entity.Actor, voucherNumber string, payload json.RawMessage) (*entity.Voucher, error)
	GMAction(ctx context.Context, actor entity.Actor, voucherID int64, verdict string, uploaderID *int64) (*entity.Voucher, error)
	UploaderAction(ctx context.Context, actor entity.Actor, voucherID int64, verdict string) (*entity.Voucher, error)
	Get(ctx context.Context, voucherID int64) (*entity.Voucher, error)
	ListForActor(ctx context.Context, actor entity.Actor) ([]*entity.Voucher, error)
	Report(ctx context.Context, actor entity.Actor, status string) ([]*entity.Voucher, error)
}

type voucherServiceImpl struct {
	voucherRepo port.VoucherRepository
	userRepo    port.UserRepository
	txManager   port.TransactionManager
	allocator   *NumberAllocator
	activity    ActivityService
	notifier    NotificationService
	logger      Logger
	now         func() time.Time
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo port.VoucherRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	allocator *NumberAllocator,
	activity ActivityService,
	notifier NotificationService,
	logger Logger,
) VoucherService {
	return &voucherServiceImpl{
		voucherRepo: voucherRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		allocator:   allocator,
		activity:    activity,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// NextVoucherNumber previews the number the next creation would receive
func (s *voucherServiceImpl) NextVoucherNumber(ctx context.Context) (string, error) {
	return s.allocator.Next(ctx)
}

// Create makes a new voucher in the initial (pending, pending) state. An
// empty voucherNumber means allocate one; an explicit duplicate fails with
// ErrConflict, an allocated one retries the allocation.
func (s *voucherServiceImpl) Create(ctx context.Context, actor entity.Actor, voucherNumber string, payload json.RawMessage) (*entity.Voucher, error) {
	outcome, err := workflow.Evaluate(workflow.Request{
		Action:    workflow.ActionCreate,
		ActorRole: actor.Role,
	}, workflow.Initial())
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: voucher data is required", workflow.ErrValidation)
	}

	allocated := voucherNumber == ""
	var voucher *entity.Voucher
	for attempt := 0; ; attempt++ {
		if allocated {
			voucherNumber, err = s.allocator.Next(ctx)
			if err != nil {
				return nil, err
			}
		}

		voucher = &entity.Voucher{
			VoucherNumber:  voucherNumber,
			AccountantID:   actor.ID,
			GMStatus:       workflow.GMPending,
			UploaderStatus: workflow.UploaderPending,
			Payload:        payload,
		}
		err = s.voucherRepo.Create(ctx, voucher)
		if err == nil {
			break
		}
		if allocated && errors.Is(err, workflow.ErrConflict) && attempt < allocateRetries {
			s.logger.Warn("Voucher number taken, reallocating",
				"voucher_number", voucherNumber, "attempt", attempt+1)
			continue
		}
		s.logger.Error("Failed to create voucher", "error", err, "voucher_number", voucherNumber)
		return nil, err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		VoucherID:   &voucher.ID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      outcome.LogAction,
		Description: fmt.Sprintf("Voucher %s created", voucher.VoucherNumber),
		OldStatus:   outcome.OldStatus,
		NewStatus:   outcome.NewStatus,
	})

	s.notifyGM(ctx, NoticeSubmitted, actor.Role, voucher.VoucherNumber)

	s.logger.Info("Voucher created",
		"voucher_id", voucher.ID,
		"voucher_number", voucher.VoucherNumber,
		"accountant_id", actor.ID,
	)
	return s.Get(ctx, voucher.ID)
}

// GMAction verifies a pending voucher, assigning it to an uploader, or
// rejects it. verdict is "verified" or "rejected" as submitted by the GM.
func (s *voucherServiceImpl) GMAction(ctx context.Context, actor entity.Actor, voucherID int64, verdict string, uploaderID *int64) (*entity.Voucher, error) {
	var action workflow.Action
	switch verdict {
	case workflow.GMVerified.String():
		action = workflow.ActionGMVerify
	case workflow.GMRejected.String():
		action = workflow.ActionGMReject
	default:
		return nil, fmt.Errorf("%w: action must be %q or %q", workflow.ErrValidation,
			workflow.GMVerified, workflow.GMRejected)
	}

	var (
		outcome     workflow.Outcome
		voucher     *entity.Voucher
		assignee    *entity.User
		description string
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		voucher, err = s.voucherRepo.GetByID(txCtx, voucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return fmt.Errorf("%w: voucher %d", workflow.ErrNotFound, voucherID)
		}

		req := workflow.Request{Action: action, ActorRole: actor.Role}
		if action == workflow.ActionGMVerify && uploaderID != nil {
			assignee, err = s.userRepo.GetByID(txCtx, *uploaderID)
			if err != nil {
				return err
			}
			if assignee != nil {
				role := assignee.Role
				req.AssigneeRole = &role
			}
		}

		outcome, err = workflow.Evaluate(req, voucher.Status())
		if err != nil {
			return err
		}

		var assignTo *int64
		if outcome.AssignUploader {
			assignTo = uploaderID
			description = fmt.Sprintf("Voucher verified and assigned to %s", assignee.Name)
		} else {
			description = "Voucher rejected by GM"
		}
		return s.voucherRepo.ApplyGMAction(txCtx, voucherID, *outcome.GMStatus, assignTo, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		VoucherID:   &voucherID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      outcome.LogAction,
		Description: description,
		OldStatus:   outcome.OldStatus,
		NewStatus:   outcome.NewStatus,
	})

	for _, audience := range outcome.Notify {
		switch audience {
		case workflow.AudienceAccountant:
			if voucher.AccountantEmail != "" {
				s.notifier.Dispatch(Notification{
					Recipient:     voucher.AccountantEmail,
					Kind:          verdict, // NoticeVerified or NoticeRejected
					ActorRole:     actor.Role,
					VoucherNumber: voucher.VoucherNumber,
				})
			}
		case workflow.AudienceUploader:
			s.notifier.Dispatch(Notification{
				Recipient:     assignee.Email,
				Kind:          NoticeAssigned,
				ActorRole:     actor.Role,
				VoucherNumber: voucher.VoucherNumber,
			})
		}
	}

	s.logger.Info("GM action applied",
		"voucher_id", voucherID, "verdict", verdict, "gm_id", actor.ID)
	return s.Get(ctx, voucherID)
}

// UploaderAction approves or rejects a GM-verified voucher. verdict is
// "approved" or "rejected". The current uploader status is not re-checked,
// so a second uploader action overwrites the first.
func (s *voucherServiceImpl) UploaderAction(ctx context.Context, actor entity.Actor, voucherID int64, verdict string) (*entity.Voucher, error) {
	var action workflow.Action
	switch verdict {
	case workflow.UploaderApproved.String():
		action = workflow.ActionUploaderApprove
	case workflow.UploaderRejected.String():
		action = workflow.ActionUploaderReject
	default:
		return nil, fmt.Errorf("%w: action must be %q or %q", workflow.ErrValidation,
			workflow.UploaderApproved, workflow.UploaderRejected)
	}

	var (
		outcome workflow.Outcome
		voucher *entity.Voucher
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		voucher, err = s.voucherRepo.GetByID(txCtx, voucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return fmt.Errorf("%w: voucher %d", workflow.ErrNotFound, voucherID)
		}

		outcome, err = workflow.Evaluate(workflow.Request{
			Action:    action,
			ActorRole: actor.Role,
		}, voucher.Status())
		if err != nil {
			return err
		}
		return s.voucherRepo.ApplyUploaderAction(txCtx, voucherID, *outcome.UploaderStatus, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		VoucherID:   &voucherID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      outcome.LogAction,
		Description: fmt.Sprintf("Voucher %s by uploader", verdict),
		OldStatus:   outcome.OldStatus,
		NewStatus:   outcome.NewStatus,
	})

	kind := NoticeApproved
	if action == workflow.ActionUploaderReject {
		kind = NoticeRejected
	}
	s.notifyGM(ctx, kind, actor.Role, voucher.VoucherNumber)

	s.logger.Info("Uploader action applied",
		"voucher_id", voucherID, "verdict", verdict, "uploader_id", actor.ID)
	return s.Get(ctx, voucherID)
}

// Get returns a single voucher with joined user info
func (s *voucherServiceImpl) Get(ctx context.Context, voucherID int64) (*entity.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, fmt.Errorf("%w: voucher %d", workflow.ErrNotFound, voucherID)
	}
	return voucher, nil
}

// ListForActor returns the vouchers visible to the actor. Accountants see
// their own, the GM sees pending and verified ones, uploaders see verified
// ones assigned to them or not yet assigned. Admin is not a listing role.
func (s *voucherServiceImpl) ListForActor(ctx context.Context, actor entity.Actor) ([]*entity.Voucher, error) {
	if actor.Role.Capability() == workflow.CapabilityAdmin {
		return nil, fmt.Errorf("%w: admin does not list vouchers", workflow.ErrForbidden)
	}
	return s.voucherRepo.ListForRole(ctx, actor.Role, actor.ID)
}

// Report returns role-scoped vouchers filtered by report status for the
// Excel report renderer.
func (s *voucherServiceImpl) Report(ctx context.Context, actor entity.Actor, status string) ([]*entity.Voucher, error) {
	if actor.Role.Capability() == workflow.CapabilityAdmin {
		return nil, fmt.Errorf("%w: admin does not download voucher reports", workflow.ErrForbidden)
	}
	if !reportStatuses[status] {
		return nil, fmt.Errorf("%w: unknown report status %q", workflow.ErrValidation, status)
	}
	return s.voucherRepo.ListForReport(ctx, actor.Role, actor.ID, status)
}

// notifyGM routes a notice to the GM account, when one exists
func (s *voucherServiceImpl) notifyGM(ctx context.Context, kind string, actorRole workflow.Role, voucherNumber string) {
	gm, err := s.userRepo.GetByRole(ctx, workflow.RoleGM)
	if err != nil {
		s.logger.Error("Failed to look up GM for notification", "error", err)
		return
	}
	if gm == nil {
		s.logger.Warn("No GM account found, skipping notification", "voucher_number", voucherNumber)
		return
	}
	s.notifier.Dispatch(Notification{
		Recipient:     gm.Email,
		Kind:          kind,
		ActorRole:     actorRole,
		VoucherNumber: voucherNumber,
	})
}
