// Package auth derives the two pieces of per-request auth state the portal
// needs: which role the bearer holds (Resolver) and whether the session is
// still accepted (Verifier).  Neither caches anything; every page request
// is a fresh mount and re-asks the backend.
package auth

import (
	"context"

	"github.com/iliyamo/school-portal/internal/model"
)

// PermissionSource is the backend call behind the Resolver.
type PermissionSource interface {
	UserPermission(ctx context.Context, token string) (string, error)
}

// PermissionState is the resolver output.  Resolving is true while the
// backend round trip has not been applied; consumers must not render
// role-gated content in that state.
type PermissionState struct {
	Role      model.Role
	Resolving bool
	// Err is the failure that collapsed the role to RoleNone, kept for
	// logging only.
	Err error
}

// Pending is the state before resolution starts.
func Pending() PermissionState { return PermissionState{Resolving: true} }

// Resolver determines the caller's role once per mount.
type Resolver struct {
	src PermissionSource
}

func NewResolver(src PermissionSource) *Resolver { return &Resolver{src: src} }

// Resolve maps token onto a role.  A missing token resolves to RoleNone
// without a network call.  Any failure (transport, non-2xx, malformed body,
// unknown role) also resolves to RoleNone; there is no retry.  If ctx is
// cancelled before the answer arrives the result is discarded and the
// returned state is still Resolving.
func (r *Resolver) Resolve(ctx context.Context, token string) PermissionState {
	if token == "" {
		return PermissionState{Role: model.RoleNone}
	}
	perm, err := r.src.UserPermission(ctx, token)
	if ctx.Err() != nil {
		return Pending()
	}
	if err != nil {
		return PermissionState{Role: model.RoleNone, Err: err}
	}
	return PermissionState{Role: model.ParseRole(perm)}
}
