// Package courseinfo assembles the course info page: updates, enrollment prompt and last accessed section.
package courseinfo

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
)

var (
	// errors
	ErrNoPosition = errors.New("no position recorded")
	ErrAnonymous  = errors.New("anonymous users have no position")
)

type (
	Repository interface {
		// QueryUpdates returns the updates of a course, in any order.
		QueryUpdates(ctx context.Context, key course.Key) ([]Update, error)
		SaveUpdates(ctx context.Context, key course.Key, updates []Update) error
		GetPosition(ctx context.Context, userID string, key course.Key) (Position, error)
		SavePosition(ctx context.Context, pos Position) (Position, error)
	}

	// EnrollmentChecker tells whether a user is actively enrolled. It must not create enrollments.
	EnrollmentChecker interface {
		IsEnrolled(ctx context.Context, usr user.User, key course.Key) (bool, error)
	}

	ServiceInterface interface {
		Get(ctx context.Context, viewer user.User, key course.Key) (Info, error)
		RecordPosition(ctx context.Context, viewer user.User, key course.Key, chapter, section string) (Position, error)
	}

	Service struct {
		courses     course.Store
		repo        Repository
		enrollments EnrollmentChecker
		configs     configmodel.Source
		conf        *core.Config
	}
)

var (
	_ ServiceInterface = (*Service)(nil)

	// mockable
	nowFunc = func() time.Time { return time.Now().UTC() }
)

func NewService(
	courses course.Store,
	repo Repository,
	enrollments EnrollmentChecker,
	configs configmodel.Source,
	conf *core.Config,
) *Service {
	return &Service{
		courses:     courses,
		repo:        repo,
		enrollments: enrollments,
		configs:     configs,
		conf:        conf,
	}
}

func (svc *Service) getCourse(ctx context.Context, viewer user.User, key course.Key) (course.Course, error) {
	c, err := svc.courses.GetCourse(ctx, key)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	if !access.IsVisible(c, viewer) {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

// Get returns the course info page as seen by viewer.
//
// A course that has not started yet yields a *NotLiveError, unless viewer is staff or start dates are disabled.
func (svc *Service) Get(ctx context.Context, viewer user.User, key course.Key) (Info, error) {
	c, err := svc.getCourse(ctx, viewer, key)
	if err != nil {
		return Info{}, err
	}
	if !svc.conf.Features.DisableStartDates && !viewer.IsStaff && !c.HasStarted(nowFunc()) {
		return Info{}, &NotLiveError{Start: c.Start.Time}
	}

	info := Info{
		Course:  course.NewOverview(c),
		Updates: []Update{},
	}
	if viewer.IsAnonymous() {
		return info, nil
	}

	if info.Updates, err = svc.visibleUpdates(ctx, key); err != nil {
		return Info{}, err
	}

	enrolled, err := svc.enrollments.IsEnrolled(ctx, viewer, key)
	if err != nil {
		return Info{}, errors.Wrap(err, "checking enrollment")
	}
	info.ShowEnrollPrompt = !enrolled

	snap, err := svc.configs.Current(ctx)
	if err != nil {
		return Info{}, errors.Wrap(err, "loading configuration")
	}
	if snap.SelfPaced.EnableCourseHomeImprovements {
		pos, err := svc.repo.GetPosition(ctx, viewer.ID, key)
		switch errors.Cause(err) {
		case nil:
			info.LastAccessedURL = pos.URL()
		case ErrNoPosition:
		default:
			return Info{}, errors.Wrap(err, "getting position")
		}
	}
	return info, nil
}

// visibleUpdates returns the visible updates of a course, newest first.
func (svc *Service) visibleUpdates(ctx context.Context, key course.Key) ([]Update, error) {
	updates, err := svc.repo.QueryUpdates(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "querying updates")
	}
	visible := make([]Update, 0, len(updates))
	for _, u := range updates {
		if u.Status == StatusVisible {
			visible = append(visible, u)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		ti, tj := visible[i].Time(), visible[j].Time()
		if ti.Equal(tj) {
			return visible[i].ID > visible[j].ID
		}
		return ti.After(tj)
	})
	return visible, nil
}

// RecordPosition remembers the last section of the course visited by viewer.
func (svc *Service) RecordPosition(ctx context.Context, viewer user.User, key course.Key, chapter, section string) (Position, error) {
	if viewer.IsAnonymous() {
		return Position{}, ErrAnonymous
	}
	c, err := svc.getCourse(ctx, viewer, key)
	if err != nil {
		return Position{}, err
	}
	pos := Position{
		UserID:    viewer.ID,
		CourseKey: c.Key,
		Chapter:   core.CleanString(chapter),
		Section:   core.CleanString(section),
		UpdatedAt: nowFunc(),
	}
	return svc.repo.SavePosition(ctx, pos)
}
