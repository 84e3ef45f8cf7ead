package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
)

const courseColumns = `id, display_name, description, course_image, start, advertised_start, "end",
	enrollment_start, enrollment_end, visible_to_staff_only, self_paced, created_at, updated_at`

type courseRow struct {
	ID                 course.Key  `db:"id"`
	DisplayName        string      `db:"display_name"`
	Description        string      `db:"description"`
	CourseImage        string      `db:"course_image"`
	Start              null.Time   `db:"start"`
	AdvertisedStart    null.String `db:"advertised_start"`
	End                null.Time   `db:"end"`
	EnrollmentStart    null.Time   `db:"enrollment_start"`
	EnrollmentEnd      null.Time   `db:"enrollment_end"`
	VisibleToStaffOnly bool        `db:"visible_to_staff_only"`
	SelfPaced          bool        `db:"self_paced"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:                 c.Key,
		DisplayName:        c.DisplayName,
		Description:        c.Description,
		CourseImage:        c.CourseImage,
		Start:              c.Start,
		AdvertisedStart:    c.AdvertisedStart,
		End:                c.End,
		EnrollmentStart:    c.EnrollmentStart,
		EnrollmentEnd:      c.EnrollmentEnd,
		VisibleToStaffOnly: c.VisibleToStaffOnly,
		SelfPaced:          c.SelfPaced,
		CreatedAt:          c.CreatedAt.UTC(),
		UpdatedAt:          c.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		Key:                r.ID,
		DisplayName:        r.DisplayName,
		Description:        r.Description,
		CourseImage:        r.CourseImage,
		Start:              r.Start,
		AdvertisedStart:    r.AdvertisedStart,
		End:                r.End,
		EnrollmentStart:    r.EnrollmentStart,
		EnrollmentEnd:      r.EnrollmentEnd,
		VisibleToStaffOnly: r.VisibleToStaffOnly,
		SelfPaced:          r.SelfPaced,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

type courseStore struct {
	exec core.DBExecutor
}

var _ course.Store = (*courseStore)(nil) // interface compliance check

func NewCourseStore(exec core.DBExecutor) *courseStore {
	return &courseStore{exec: exec}
}

// QueryCourses returns the courses in creation order.
func (s courseStore) QueryCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := s.exec.SelectContext(ctx, &rows, `SELECT `+courseColumns+` FROM course ORDER BY seq`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (s courseStore) GetCourse(ctx context.Context, key course.Key) (course.Course, error) {
	var row courseRow
	if err := s.exec.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, key); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (s courseStore) HasCourse(ctx context.Context, key course.Key) (bool, error) {
	var exists bool
	if err := s.exec.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course WHERE id = $1)`, key); err != nil {
		return false, errors.Wrap(err, "checking course")
	}
	return exists, nil
}

func (s courseStore) SaveCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := toCourseRow(c)
	q := `INSERT INTO course (` + courseColumns + `)
		VALUES (:id, :display_name, :description, :course_image, :start, :advertised_start, :end,
			:enrollment_start, :enrollment_end, :visible_to_staff_only, :self_paced, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name, description = EXCLUDED.description,
			course_image = EXCLUDED.course_image, start = EXCLUDED.start,
			advertised_start = EXCLUDED.advertised_start, "end" = EXCLUDED."end",
			enrollment_start = EXCLUDED.enrollment_start, enrollment_end = EXCLUDED.enrollment_end,
			visible_to_staff_only = EXCLUDED.visible_to_staff_only, self_paced = EXCLUDED.self_paced,
			updated_at = EXCLUDED.updated_at`
	if _, err := namedExec(ctx, s.exec, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "saving course")
	}
	return row.course(), nil
}
