package entity

import (
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// User is a system account. Passwords arrive pre-hashed from the
// authentication boundary and are treated as opaque here.
type User struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	Password  string        `json:"-"`
	Name      string        `json:"name"`
	Role      workflow.Role `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
}

// Actor is the snapshot of the authenticated user attached to a request.
// Transitions record this snapshot in the activity log rather than a live
// user reference, so audit history survives later account changes.
type Actor struct {
	ID   int64
	Name string
	Role workflow.Role
}

// ActorFor builds the request snapshot for a user
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}
