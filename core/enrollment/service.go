package enrollment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
)

var (
	// errors
	ErrNotFound  = errors.New("enrollment not found")
	ErrAnonymous = errors.New("anonymous users cannot enroll")
)

type (
	Repository interface {
		GetEnrollment(ctx context.Context, userID string, key course.Key) (Enrollment, error)
		QueryUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		SaveEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	}

	ServiceInterface interface {
		// IsEnrolled reports whether usr holds an active enrollment. It never creates one.
		IsEnrolled(ctx context.Context, usr user.User, key course.Key) (bool, error)
		Get(ctx context.Context, usr user.User, key course.Key) (Enrollment, error)
		Query(ctx context.Context, usr user.User) ([]Enrollment, error)
		Enroll(ctx context.Context, usr user.User, key course.Key, mode string) (Enrollment, error)
		Unenroll(ctx context.Context, usr user.User, key course.Key) (Enrollment, error)
	}

	Service struct {
		repo    Repository
		courses course.Store
		mailSvc core.EmailService
		conf    *core.Config
	}

	emailData struct {
		Name       string
		CourseID   string
		CourseName string
		Start      string
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses course.Store, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) IsEnrolled(ctx context.Context, usr user.User, key course.Key) (bool, error) {
	if usr.IsAnonymous() {
		return false, nil
	}
	e, err := svc.repo.GetEnrollment(ctx, usr.ID, key)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting enrollment")
	}
	return e.IsActive, nil
}

func (svc *Service) Get(ctx context.Context, usr user.User, key course.Key) (Enrollment, error) {
	if usr.IsAnonymous() {
		return Enrollment{}, ErrNotFound
	}
	return svc.repo.GetEnrollment(ctx, usr.ID, key)
}

func (svc *Service) Query(ctx context.Context, usr user.User) ([]Enrollment, error) {
	if usr.IsAnonymous() {
		return []Enrollment{}, nil
	}
	return svc.repo.QueryUserEnrollments(ctx, usr.ID)
}

// Enroll creates or reactivates the enrollment of usr in the course & notifies them by email.
func (svc *Service) Enroll(ctx context.Context, usr user.User, key course.Key, mode string) (Enrollment, error) {
	if usr.IsAnonymous() {
		return Enrollment{}, ErrAnonymous
	}
	if mode == "" {
		mode = DefaultMode
	}

	c, err := svc.courses.GetCourse(ctx, key)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return Enrollment{}, course.ErrNotFound
		}
		return Enrollment{}, errors.Wrap(err, "getting course")
	}
	if c.VisibleToStaffOnly && !usr.IsStaff {
		return Enrollment{}, course.ErrNotFound
	}

	now := time.Now().UTC()
	e, err := svc.repo.GetEnrollment(ctx, usr.ID, key)
	switch errors.Cause(err) {
	case nil:
		if e.IsActive && e.Mode == mode {
			return e, nil
		}
	case ErrNotFound:
		e = Enrollment{UserID: usr.ID, CourseKey: c.Key, CreatedAt: now}
	default:
		return Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	wasActive := e.IsActive
	e.Mode = mode
	e.IsActive = true
	e.UpdatedAt = now

	e, err = svc.repo.SaveEnrollment(ctx, e)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	if !wasActive {
		svc.sendEnrollmentMail(usr, c)
	}
	return e, nil
}

// Unenroll deactivates the enrollment of usr in the course.
func (svc *Service) Unenroll(ctx context.Context, usr user.User, key course.Key) (Enrollment, error) {
	e, err := svc.Get(ctx, usr, key)
	if err != nil {
		return Enrollment{}, err
	}
	if !e.IsActive {
		return e, nil
	}
	e.IsActive = false
	e.UpdatedAt = time.Now().UTC()
	e, err = svc.repo.SaveEnrollment(ctx, e)
	return e, errors.Wrap(err, "saving enrollment")
}

func (svc *Service) sendEnrollmentMail(usr user.User, c course.Course) {
	if !svc.conf.Features.SendEnrollmentEmails || usr.Email == "" {
		return
	}
	name := usr.Name
	if name == "" {
		name = usr.Username
	}
	data := emailData{
		Name:       name,
		CourseID:   c.Key.String(),
		CourseName: c.DisplayName,
	}
	if disp := c.StartDisplay(); disp.Valid {
		data.Start = disp.String
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("You have enrolled in %s", c.DisplayName),
		TemplateName: "enrollment",
		TemplateData: data,
	})
}
