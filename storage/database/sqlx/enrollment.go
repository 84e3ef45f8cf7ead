package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/enrollment"
)

const enrollmentColumns = `user_id, course_id, mode, is_active, created_at, updated_at`

type enrollmentRow struct {
	UserID    string     `db:"user_id"`
	CourseKey course.Key `db:"course_id"`
	Mode      string     `db:"mode"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r enrollmentRow) enrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		UserID:    r.UserID,
		CourseKey: r.CourseKey,
		Mode:      r.Mode,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type enrollmentRepository struct {
	exec core.DBExecutor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, userID string, key course.Key) (enrollment.Enrollment, error) {
	var row enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 AND course_id = $2`
	if err := repo.exec.GetContext(ctx, &row, q, userID, key); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo enrollmentRepository) QueryUserEnrollments(ctx context.Context, userID string) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 ORDER BY created_at`
	if err := repo.exec.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo enrollmentRepository) SaveEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	q := `INSERT INTO enrollment (` + enrollmentColumns + `)
		VALUES (:user_id, :course_id, :mode, :is_active, :created_at, :updated_at)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			mode = EXCLUDED.mode, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`
	row := enrollmentRow{
		UserID:    e.UserID,
		CourseKey: e.CourseKey,
		Mode:      e.Mode,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if _, err := namedExec(ctx, repo.exec, q, row); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	return row.enrollment(), nil
}
