// Package access holds the authorization guards shared by the services.
// Each guard is a plain function returning a domain error, called before any
// store mutation.
package access

import "github.com/docvault/document-service/internal/core/domain"

// RequireAdmin fails unless u is an administrator.
func RequireAdmin(u *domain.User) error {
	if u == nil {
		return domain.ErrTokenMissing
	}
	if !u.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}

// RequireOwnerOrAdmin fails unless u owns the resource or is an administrator.
func RequireOwnerOrAdmin(u *domain.User, ownerID int64) error {
	if u == nil {
		return domain.ErrTokenMissing
	}
	if u.IsAdmin() || u.ID == ownerID {
		return nil
	}
	return domain.ErrAccessDenied
}

// OwnerScope returns the owner filter a listing must apply. Non-admins are
// always narrowed to themselves; admins get whatever they asked for.
func OwnerScope(u *domain.User, requested *int64) *int64 {
	if u.IsAdmin() {
		return requested
	}
	id := u.ID
	return &id
}
