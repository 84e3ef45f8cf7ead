package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	// Store is the content store: the source of truth for courses.
	Store interface {
		// QueryCourses returns all courses in the store's order.
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, key Key) (Course, error)
		HasCourse(ctx context.Context, key Key) (bool, error)
		SaveCourse(ctx context.Context, c Course) (Course, error)
	}

	ServiceInterface interface {
		List(ctx context.Context, requester user.User, targetUsername string) ([]Course, error)
		Detail(ctx context.Context, requester user.User, targetUsername string, key Key) (Course, error)
		Save(ctx context.Context, nc NewCourse) (Course, error)
	}

	Service struct {
		store Store
		users access.UserGetter
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(store Store, users access.UserGetter) *Service {
	return &Service{store: store, users: users}
}

// List returns the courses visible to the user named targetUsername, as seen by requester.
func (svc *Service) List(ctx context.Context, requester user.User, targetUsername string) ([]Course, error) {
	target, err := access.EffectiveUser(ctx, svc.users, requester, targetUsername)
	if err != nil {
		return nil, err
	}

	courses, err := svc.store.QueryCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	visible := make([]Course, 0, len(courses))
	for _, c := range courses {
		if access.IsVisible(c, target) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// Detail returns the course identified by key if the user named targetUsername may see it.
// Hidden courses are reported as ErrNotFound.
func (svc *Service) Detail(ctx context.Context, requester user.User, targetUsername string, key Key) (Course, error) {
	target, err := access.EffectiveUser(ctx, svc.users, requester, targetUsername)
	if err != nil {
		return Course{}, err
	}

	c, err := svc.store.GetCourse(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Course{}, ErrNotFound
		}
		return Course{}, errors.Wrap(err, "getting course")
	}
	if !access.IsVisible(c, target) {
		return Course{}, ErrNotFound
	}
	return c, nil
}

// Save creates or replaces a course. nc must have been validated.
func (svc *Service) Save(ctx context.Context, nc NewCourse) (Course, error) {
	c := nc.Course()
	if orig, err := svc.store.GetCourse(ctx, c.Key); err == nil {
		c.CreatedAt = orig.CreatedAt
	} else if errors.Cause(err) != ErrNotFound {
		return Course{}, errors.Wrap(err, "getting course")
	}
	return svc.store.SaveCourse(ctx, c)
}
