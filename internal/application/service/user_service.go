package service

import (
	"context"
	"fmt"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
	"github.com/Sadiqmanga/voucher-system/pkg/utils"
)

// UserService manages user accounts (admin operations) and the uploader
// listing the GM uses when assigning a voucher.
type UserService interface {
	List(ctx context.Context) ([]*entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	ListUploaders(ctx context.Context) ([]*entity.User, error)
	Create(ctx context.Context, actor entity.Actor, u *entity.User) (*entity.User, error)
	Update(ctx context.Context, actor entity.Actor, id int64, email, password, name, role string) (*entity.User, error)
	Delete(ctx context.Context, actor entity.Actor, id int64) error
}

type userServiceImpl struct {
	userRepo    port.UserRepository
	voucherRepo port.VoucherRepository
	activity    ActivityService
	logger      Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, voucherRepo port.VoucherRepository, activity ActivityService, logger Logger) UserService {
	return &userServiceImpl{userRepo: userRepo, voucherRepo: voucherRepo, activity: activity, logger: logger}
}

func (s *userServiceImpl) List(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userServiceImpl) Get(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", workflow.ErrNotFound, id)
	}
	return user, nil
}

func (s *userServiceImpl) ListUploaders(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.ListUploaders(ctx)
}

func (s *userServiceImpl) Create(ctx context.Context, actor entity.Actor, u *entity.User) (*entity.User, error) {
	if u.Email == "" || u.Password == "" || u.Name == "" || u.Role == "" {
		return nil, fmt.Errorf("%w: email, password, name, and role are required", workflow.ErrValidation)
	}
	if err := utils.ValidateEmail(u.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
	}
	if !u.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", workflow.ErrValidation, u.Role)
	}

	existing, err := s.userRepo.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", workflow.ErrConflict, u.Email)
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", u.Email)
		return nil, err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      "user_created",
		Description: fmt.Sprintf("User %s created with role %s", u.Email, u.Role),
	})

	s.logger.Info("User created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *userServiceImpl) Update(ctx context.Context, actor entity.Actor, id int64, email, password, name, role string) (*entity.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if role != "" {
		parsed, err := workflow.ParseRole(role)
		if err != nil {
			return nil, err
		}
		user.Role = parsed
	}
	if email != "" && email != user.Email {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
		taken, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, fmt.Errorf("%w: email %s", workflow.ErrConflict, email)
		}
		user.Email = email
	}
	if password != "" {
		user.Password = password
	}
	if name != "" {
		user.Name = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      "user_updated",
		Description: fmt.Sprintf("User %s updated", user.Email),
	})
	return user, nil
}

func (s *userServiceImpl) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return fmt.Errorf("%w: cannot delete your own account", workflow.ErrValidation)
	}

	// Vouchers keep a foreign key to their accountant and uploader, so a
	// referenced user cannot be removed without breaking the trail.
	count, err := s.voucherRepo.CountForUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete user, %d voucher(s) are associated with this account", workflow.ErrValidation, count)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete user", "error", err, "user_id", id)
		return err
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserRole:    actor.Role.String(),
		Action:      "user_deleted",
		Description: fmt.Sprintf("User %s (%s) deleted", user.Email, user.Role),
	})
	return nil
}
