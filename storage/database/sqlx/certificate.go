package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/course"
)

const (
	certificateColumns = `id, user_id, course_id, verify_uuid, download_uuid, download_url, grade, mode, status,
		name, error_reason, created_at, modified_at`
	whitelistColumns = `id, user_id, course_id, whitelist, notes, created_at`
)

type certificateRow struct {
	ID           int        `db:"id"`
	UserID       string     `db:"user_id"`
	CourseKey    course.Key `db:"course_id"`
	VerifyUUID   string     `db:"verify_uuid"`
	DownloadUUID string     `db:"download_uuid"`
	DownloadURL  string     `db:"download_url"`
	Grade        string     `db:"grade"`
	Mode         string     `db:"mode"`
	Status       string     `db:"status"`
	Name         string     `db:"name"`
	ErrorReason  string     `db:"error_reason"`
	CreatedAt    time.Time  `db:"created_at"`
	ModifiedAt   time.Time  `db:"modified_at"`
}

type whitelistRow struct {
	ID        int         `db:"id"`
	UserID    string      `db:"user_id"`
	CourseKey course.Key  `db:"course_id"`
	Whitelist bool        `db:"whitelist"`
	Notes     null.String `db:"notes"`
	CreatedAt time.Time   `db:"created_at"`
}

type certificateRepository struct {
	exec core.DBExecutor
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(exec core.DBExecutor) *certificateRepository {
	return &certificateRepository{exec: exec}
}

func (repo certificateRepository) GetCertificate(ctx context.Context, userID string, key course.Key) (certificate.Certificate, error) {
	var row certificateRow
	q := `SELECT ` + certificateColumns + ` FROM certificate WHERE user_id = $1 AND course_id = $2`
	if err := repo.exec.GetContext(ctx, &row, q, userID, key); err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "finding certificate")
	}
	cert := certificate.Certificate(row)
	cert.CreatedAt, cert.ModifiedAt = cert.CreatedAt.UTC(), cert.ModifiedAt.UTC()
	return cert, nil
}

func (repo certificateRepository) SaveCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	row := certificateRow(cert)
	q := `INSERT INTO certificate (user_id, course_id, verify_uuid, download_uuid, download_url, grade, mode,
			status, name, error_reason, created_at, modified_at)
		VALUES (:user_id, :course_id, :verify_uuid, :download_uuid, :download_url, :grade, :mode,
			:status, :name, :error_reason, :created_at, :modified_at)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			download_url = EXCLUDED.download_url, grade = EXCLUDED.grade, mode = EXCLUDED.mode,
			status = EXCLUDED.status, name = EXCLUDED.name, error_reason = EXCLUDED.error_reason,
			modified_at = EXCLUDED.modified_at
		RETURNING id`
	bound, args, err := repo.exec.BindNamed(q, row)
	if err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "binding certificate")
	}
	if err = repo.exec.QueryRowxContext(ctx, bound, args...).Scan(&cert.ID); err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "saving certificate")
	}
	return cert, nil
}

func (repo certificateRepository) GetWhitelist(ctx context.Context, userID string, key course.Key) (certificate.Whitelist, error) {
	var row whitelistRow
	q := `SELECT ` + whitelistColumns + ` FROM certificate_whitelist WHERE user_id = $1 AND course_id = $2`
	if err := repo.exec.GetContext(ctx, &row, q, userID, key); err != nil {
		return certificate.Whitelist{}, trapNoRowsErr(err, certificate.ErrNotFound, "finding whitelist")
	}
	wl := certificate.Whitelist(row)
	wl.CreatedAt = wl.CreatedAt.UTC()
	return wl, nil
}

func (repo certificateRepository) SaveWhitelist(ctx context.Context, wl certificate.Whitelist) (certificate.Whitelist, error) {
	row := whitelistRow(wl)
	q := `INSERT INTO certificate_whitelist (user_id, course_id, whitelist, notes, created_at)
		VALUES (:user_id, :course_id, :whitelist, :notes, :created_at)
		ON CONFLICT (user_id, course_id) DO UPDATE SET whitelist = EXCLUDED.whitelist, notes = EXCLUDED.notes
		RETURNING id`
	bound, args, err := repo.exec.BindNamed(q, row)
	if err != nil {
		return certificate.Whitelist{}, errors.Wrap(err, "binding whitelist")
	}
	if err = repo.exec.QueryRowxContext(ctx, bound, args...).Scan(&wl.ID); err != nil {
		return certificate.Whitelist{}, errors.Wrap(err, "saving whitelist")
	}
	return wl, nil
}
