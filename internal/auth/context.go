package auth

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Role grants access to groups of site operations
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleProcurement     Role = "procurement"
	RoleSiteManager     Role = "site_manager"
	RoleWarehouseKeeper Role = "warehouse_keeper"
	RoleWorker          Role = "worker"
	RoleSystem          Role = "system"
)

// SystemUserID identifies requests authenticated with the API key
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Roles       []Role
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// Actor returns the user id and display name to stamp on ledger rows. Unauthenticated calls (jobs) act as the system user.
func Actor(ctx context.Context) (uuid.UUID, string) {
	if user, ok := FromContext(ctx); ok {
		return user.UserID, user.DisplayName
	}
	return SystemUserID, "System"
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles. Admin and system users pass every check.
func (u *UserContext) HasAnyRole(roles ...Role) bool {
	if u.HasRole(RoleAdmin) || u.HasRole(RoleSystem) {
		return true
	}
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the user may act on other users' custody inventory
func (u *UserContext) IsPrivileged() bool {
	return u.HasAnyRole(RoleProcurement, RoleSiteManager, RoleWarehouseKeeper)
}

// Initials returns up to two uppercase initials from the display name
func (u *UserContext) Initials() string {
	var out []rune
	for _, part := range strings.Fields(u.DisplayName) {
		out = append(out, unicode.ToUpper([]rune(part)[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// RolesAsStrings returns roles for logging
func (u *UserContext) RolesAsStrings() []string {
	out := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		out[i] = string(r)
	}
	return out
}
