// Package access decides who may see what on behalf of whom.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/user"
)

var (
	// errors
	ErrPermissionDenied = errors.New("permission denied")
	ErrBadTarget        = errors.New("unknown user")
	ErrTargetNotFound   = errors.New("user not found")
)

type (
	// Restricted is implemented by content that may be hidden from non-staff users.
	Restricted interface {
		StaffOnly() bool
	}

	// UserGetter resolves usernames to users.
	UserGetter interface {
		GetByUsername(ctx context.Context, uname string) (user.User, error)
	}
)

// CanView reports whether requester may query data on behalf of target.
func CanView(requester, target user.User) bool {
	if requester.IsAnonymous() {
		return target.IsAnonymous()
	}
	if requester.ID == target.ID {
		return true
	}
	return requester.IsStaff
}

// IsVisible reports whether content is visible to viewer. Anonymous users are never staff.
func IsVisible(content Restricted, viewer user.User) bool {
	return !content.StaffOnly() || (viewer.IsStaff && !viewer.IsAnonymous())
}

// EffectiveUser resolves the user that requester acts on behalf of.
//
// An empty targetUsername designates the anonymous user, which anyone may act as since it only narrows
// what is visible. When the target cannot be resolved, ErrTargetNotFound is returned to staff and
// ErrBadTarget to everyone else.
func EffectiveUser(ctx context.Context, users UserGetter, requester user.User, targetUsername string) (user.User, error) {
	uname := core.CleanString(targetUsername, true /* lower */)

	if uname == "" {
		return user.Anonymous(), nil
	}

	var target user.User
	switch {
	case !requester.IsAnonymous() && uname == requester.Username:
		target = requester
	default:
		usr, err := users.GetByUsername(ctx, uname)
		if err != nil {
			if errors.Cause(err) != user.ErrNotFound {
				return user.User{}, errors.Wrap(err, "finding user by username")
			}
			if requester.IsStaff && !requester.IsAnonymous() {
				return user.User{}, ErrTargetNotFound
			}
			return user.User{}, ErrBadTarget
		}
		target = usr
	}

	if !CanView(requester, target) {
		return user.User{}, ErrPermissionDenied
	}
	return target, nil
}
