package workflow

import "fmt"

// Role is a user role as stored in the users table
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleGM         Role = "gm"
	RoleAccountant Role = "accountant"
	RoleUploader1  Role = "uploader1"
	RoleUploader2  Role = "uploader2"
)

// Capability is the permission class a role belongs to. The two uploader
// roles are equivalent members of CapabilityUploader; transition rules are
// keyed by capability, never by individual role.
type Capability string

const (
	CapabilityAdmin      Capability = "admin"
	CapabilityGM         Capability = "gm"
	CapabilityAccountant Capability = "accountant"
	CapabilityUploader   Capability = "uploader"
)

var roleCapabilities = map[Role]Capability{
	RoleAdmin:      CapabilityAdmin,
	RoleGM:         CapabilityGM,
	RoleAccountant: CapabilityAccountant,
	RoleUploader1:  CapabilityUploader,
	RoleUploader2:  CapabilityUploader,
}

// IsValid returns true if the role is a member of the closed role set
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capability returns the permission class for the role
func (r Role) Capability() Capability {
	return roleCapabilities[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}
