package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = "id, email, password, name, role, created_at"

// GetByID returns the user, or nil if absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByEmail returns the user, or nil if absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, email))
}

// GetByRole returns one user holding the role, or nil if none does
func (r *UserRepository) GetByRole(ctx context.Context, role workflow.Role) (*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role = ? LIMIT 1"
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, role.String()))
}

// ListUploaders returns all users with either uploader role
func (r *UserRepository) ListUploaders(ctx context.Context) ([]*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role IN (?, ?) ORDER BY role"
	return r.queryUsers(ctx, query, workflow.RoleUploader1.String(), workflow.RoleUploader2.String())
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC"
	return r.queryUsers(ctx, query)
}

// Create inserts a user; a taken email maps to ErrConflict
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := "INSERT INTO users (email, password, name, role) VALUES (?, ?, ?, ?)"
	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		u.Email, u.Password, u.Name, u.Role.String())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: email %s", workflow.ErrConflict, u.Email)
		}
		r.logger.Error("Failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

// Update overwrites the user's mutable fields
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query := "UPDATE users SET email = ?, password = ?, name = ?, role = ? WHERE id = ?"
	_, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		u.Email, u.Password, u.Name, u.Role.String(), u.ID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: email %s", workflow.ErrConflict, u.Email)
		}
		r.logger.Error("Failed to update user", zap.Int64("id", u.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes the user row. Activity log rows keep their denormalized
// user snapshot, so audit history is unaffected.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := executorFor(ctx, r.db).ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete user", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	var (
		u    entity.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = workflow.Role(role)
	return &u, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, params ...interface{}) ([]*entity.User, error) {
	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, params...)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		var (
			u    entity.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = workflow.Role(role)
		users = append(users, &u)
	}
	return users, rows.Err()
}

var _ port.UserRepository = (*UserRepository)(nil)
