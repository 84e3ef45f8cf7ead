// Package certificate manages the certificates earned in courses and their public views.
package certificate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
)

const linkedInSourceDashboard = "o"

var (
	// errors
	ErrNotFound = errors.New("certificate not found")
)

type (
	Repository interface {
		GetCertificate(ctx context.Context, userID string, key course.Key) (Certificate, error)
		SaveCertificate(ctx context.Context, cert Certificate) (Certificate, error)
		// GetWhitelist returns ErrNotFound when the user is not on the whitelist of the course.
		GetWhitelist(ctx context.Context, userID string, key course.Key) (Whitelist, error)
		SaveWhitelist(ctx context.Context, wl Whitelist) (Whitelist, error)
	}

	ServiceInterface interface {
		Get(ctx context.Context, requester user.User, targetUsername string, key course.Key) (View, error)
		Issue(ctx context.Context, nc NewCertificate) (Certificate, error)
		SetWhitelist(ctx context.Context, nw NewWhitelist) (Whitelist, error)
		IsWhitelisted(ctx context.Context, usr user.User, key course.Key) (bool, error)
	}

	Service struct {
		repo    Repository
		courses course.Store
		users   access.UserGetter
		configs configmodel.Source
		conf    *core.Config
	}
)

var (
	_ ServiceInterface = (*Service)(nil)

	// mockable
	newUUID = func() string { return strings.ReplaceAll(uuid.New().String(), "-", "") }
)

func NewService(
	repo Repository,
	courses course.Store,
	users access.UserGetter,
	configs configmodel.Source,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		users:   users,
		configs: configs,
		conf:    conf,
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

// URL is the public web view of a certificate.
func (svc *Service) URL(cert Certificate) string {
	return svc.conf.LMSBaseURL + "/certificates/" + cert.VerifyUUID
}

// Get returns the certificate of the user named targetUsername in a course, as seen by requester.
func (svc *Service) Get(ctx context.Context, requester user.User, targetUsername string, key course.Key) (View, error) {
	target, err := access.EffectiveUser(ctx, svc.users, requester, targetUsername)
	if err != nil {
		return View{}, err
	}
	if target.IsAnonymous() {
		return View{}, ErrNotFound
	}
	c, err := svc.getCourse(ctx, target, key)
	if err != nil {
		return View{}, err
	}

	cert, err := svc.repo.GetCertificate(ctx, target.ID, c.Key)
	if err != nil {
		return View{}, err
	}
	snap, err := svc.configs.Current(ctx)
	if err != nil {
		return View{}, errors.Wrap(err, "loading configuration")
	}

	view := View{
		Username:    target.Username,
		Certificate: cert,
		CourseName:  c.DisplayName,
		HTMLContext: snap.CertificateHTMLView.Context(cert.Mode, ""),
	}
	if cert.IsDownloadable() {
		view.CertificateURL = svc.URL(cert)
		if snap.LinkedIn.Enabled && snap.LinkedIn.CompanyIdentifier != "" {
			view.LinkedInURL = snap.LinkedIn.AddToProfileURL(
				svc.conf.PlatformName, c.Key.String(), c.DisplayName, cert.Mode, view.CertificateURL,
				linkedInSourceDashboard, "certificate",
			)
		}
	}
	return view, nil
}

// Issue creates or updates the certificate of a user. Whitelisted users always pass.
// nc must have been validated.
func (svc *Service) Issue(ctx context.Context, nc NewCertificate) (Certificate, error) {
	usr, err := svc.users.GetByUsername(ctx, nc.Username)
	if err != nil {
		return Certificate{}, err
	}
	key := course.MustParseKey(nc.CourseKey)
	if _, err := svc.getCourse(ctx, usr, key); err != nil {
		return Certificate{}, err
	}

	status := nc.Status
	if status == StatusNotPassing {
		whitelisted, err := svc.IsWhitelisted(ctx, usr, key)
		if err != nil {
			return Certificate{}, err
		}
		if whitelisted {
			status = StatusDownloadable
		}
	}

	now := time.Now().UTC()
	cert, err := svc.repo.GetCertificate(ctx, usr.ID, key)
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		cert = Certificate{
			UserID:       usr.ID,
			CourseKey:    key,
			VerifyUUID:   newUUID(),
			DownloadUUID: newUUID(),
			CreatedAt:    now,
		}
	default:
		return Certificate{}, errors.Wrap(err, "getting certificate")
	}
	cert.Name = usr.Name
	cert.Grade = nc.Grade
	cert.Mode = nc.Mode
	cert.Status = status
	cert.ModifiedAt = now
	return svc.repo.SaveCertificate(ctx, cert)
}

// SetWhitelist adds (or removes) a user to the whitelist of a course. nw must have been validated.
func (svc *Service) SetWhitelist(ctx context.Context, nw NewWhitelist) (Whitelist, error) {
	usr, err := svc.users.GetByUsername(ctx, nw.Username)
	if err != nil {
		return Whitelist{}, err
	}
	key := course.MustParseKey(nw.CourseKey)
	if _, err := svc.getCourse(ctx, usr, key); err != nil {
		return Whitelist{}, err
	}

	wl, err := svc.repo.GetWhitelist(ctx, usr.ID, key)
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		wl = Whitelist{UserID: usr.ID, CourseKey: key, CreatedAt: time.Now().UTC()}
	default:
		return Whitelist{}, errors.Wrap(err, "getting whitelist")
	}
	wl.Whitelist = nw.Whitelist == nil || *nw.Whitelist
	wl.Notes = null.NewString(nw.Notes, nw.Notes != "")
	return svc.repo.SaveWhitelist(ctx, wl)
}

func (svc *Service) IsWhitelisted(ctx context.Context, usr user.User, key course.Key) (bool, error) {
	if usr.IsAnonymous() {
		return false, nil
	}
	wl, err := svc.repo.GetWhitelist(ctx, usr.ID, key)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting whitelist")
	}
	return wl.Whitelist, nil
}
