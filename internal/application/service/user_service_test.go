package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

var admin = entity.Actor{ID: 9, Name: "Root", Role: workflow.RoleAdmin}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name     string
		user     entity.User
		existing *entity.User
		wantErr  error
	}{
		{
			name: "creates uploader account",
			user: entity.User{Email: "new@example.com", Password: "hashed", Name: "New", Role: workflow.RoleUploader2},
		},
		{
			name:    "missing fields",
			user:    entity.User{Email: "new@example.com", Role: workflow.RoleUploader2},
			wantErr: workflow.ErrValidation,
		},
		{
			name:    "malformed email",
			user:    entity.User{Email: "not-an-email", Password: "hashed", Name: "New", Role: workflow.RoleUploader2},
			wantErr: workflow.ErrValidation,
		},
		{
			name:    "unknown role",
			user:    entity.User{Email: "new@example.com", Password: "hashed", Name: "New", Role: workflow.Role("supervisor")},
			wantErr: workflow.ErrValidation,
		},
		{
			name:     "duplicate email",
			user:     entity.User{Email: "taken@example.com", Password: "hashed", Name: "New", Role: workflow.RoleUploader2},
			existing: &entity.User{ID: 4, Email: "taken@example.com"},
			wantErr:  workflow.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepo{
				getByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
					return tt.existing, nil
				},
			}
			logRepo := &mockLogRepo{}
			svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(logRepo, &mockLogger{}), &mockLogger{})

			u := tt.user
			created, err := svc.Create(context.Background(), admin, &u)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				if len(logRepo.recorded()) != 0 {
					t.Error("failed creation must not be logged")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if created.ID == 0 {
				t.Error("created user has no ID")
			}

			logs := logRepo.recorded()
			if len(logs) != 1 || logs[0].Action != "user_created" {
				t.Errorf("logs = %+v, want one user_created entry", logs)
			}
			if logs[0].VoucherID != nil {
				t.Error("user management entries carry no voucher reference")
			}
		})
	}
}

func TestUserService_Update(t *testing.T) {
	base := entity.User{ID: 4, Email: "old@example.com", Password: "old", Name: "Old", Role: workflow.RoleUploader1}

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		var saved *entity.User
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				u := base
				return &u, nil
			},
			updateFunc: func(ctx context.Context, u *entity.User) error {
				saved = u
				return nil
			},
		}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(&mockLogRepo{}, &mockLogger{}), &mockLogger{})

		updated, err := svc.Update(context.Background(), admin, 4, "", "", "Renamed", "uploader2")
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if saved.Name != "Renamed" || saved.Role != workflow.RoleUploader2 {
			t.Errorf("saved = %+v, want renamed uploader2", saved)
		}
		if saved.Email != "old@example.com" || saved.Password != "old" {
			t.Errorf("unset fields changed: %+v", saved)
		}
		if updated.ID != 4 {
			t.Errorf("updated.ID = %d, want 4", updated.ID)
		}
	})

	t.Run("email change checks uniqueness", func(t *testing.T) {
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				u := base
				return &u, nil
			},
			getByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
				return &entity.User{ID: 5, Email: email}, nil
			},
		}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(&mockLogRepo{}, &mockLogger{}), &mockLogger{})

		_, err := svc.Update(context.Background(), admin, 4, "taken@example.com", "", "", "")
		if !errors.Is(err, workflow.ErrConflict) {
			t.Errorf("Update() error = %v, want ErrConflict", err)
		}
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				u := base
				return &u, nil
			},
		}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(&mockLogRepo{}, &mockLogger{}), &mockLogger{})

		_, err := svc.Update(context.Background(), admin, 4, "", "", "", "supervisor")
		if !errors.Is(err, workflow.ErrValidation) {
			t.Errorf("Update() error = %v, want ErrValidation", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				return nil, nil
			},
		}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(&mockLogRepo{}, &mockLogger{}), &mockLogger{})

		_, err := svc.Update(context.Background(), admin, 404, "", "", "X", "")
		if !errors.Is(err, workflow.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("deletes and logs", func(t *testing.T) {
		deleted := int64(0)
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				return &entity.User{ID: id, Email: "gone@example.com", Role: workflow.RoleUploader1}, nil
			},
			deleteFunc: func(ctx context.Context, id int64) error {
				deleted = id
				return nil
			},
		}
		logRepo := &mockLogRepo{}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(logRepo, &mockLogger{}), &mockLogger{})

		if err := svc.Delete(context.Background(), admin, 4); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted != 4 {
			t.Errorf("deleted id = %d, want 4", deleted)
		}

		logs := logRepo.recorded()
		if len(logs) != 1 || logs[0].Action != "user_deleted" {
			t.Errorf("logs = %+v, want one user_deleted entry", logs)
		}
	})

	t.Run("self-deletion rejected", func(t *testing.T) {
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				return &entity.User{ID: id, Email: "root@example.com", Role: workflow.RoleAdmin}, nil
			},
		}
		svc := NewUserService(userRepo, &mockVoucherRepo{}, NewActivityService(&mockLogRepo{}, &mockLogger{}), &mockLogger{})

		err := svc.Delete(context.Background(), admin, admin.ID)
		if !errors.Is(err, workflow.ErrValidation) {
			t.Errorf("Delete() error = %v, want ErrValidation", err)
		}
	})

	t.Run("rejected while vouchers reference the user", func(t *testing.T) {
		deleteCalled := false
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
				return &entity.User{ID: id, Email: "busy@example.com", Role: workflow.RoleAccountant}, nil
			},
			deleteFunc: func(ctx context.Context, id int64) error {
				deleteCalled = true
				return nil
			},
		}
		voucherRepo := &mockVoucherRepo{
			countForUserFunc: func(ctx context.Context, userID int64) (int, error) {
				return 3, nil
			},
		}
		logRepo := &mockLogRepo{}
		svc := NewUserService(userRepo, voucherRepo, NewActivityService(logRepo, &mockLogger{}), &mockLogger{})

		err := svc.Delete(context.Background(), admin, 4)
		if !errors.Is(err, workflow.ErrValidation) {
			t.Fatalf("Delete() error = %v, want ErrValidation", err)
		}
		if !strings.Contains(err.Error(), "3 voucher(s)") {
			t.Errorf("Delete() error = %v, want voucher count in message", err)
		}
		if deleteCalled {
			t.Error("Delete() removed a user with associated vouchers")
		}
		if logs := logRepo.recorded(); len(logs) != 0 {
			t.Errorf("logs = %+v, want none", logs)
		}
	})
}
