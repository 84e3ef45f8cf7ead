package memdbrepos

import (
	"context"

	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/enrollment"
)

type enrollmentRecord struct {
	UserID     string
	CourseID   string
	Enrollment enrollment.Enrollment
}

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) GetEnrollment(_ context.Context, userID string, key course.Key) (enrollment.Enrollment, error) {
	if userID == "" {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	raw, err := repo.db.first(tableEnrollment, pk, userID, key.String())
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	if raw == nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return raw.(*enrollmentRecord).Enrollment, nil
}

func (repo enrollmentRepository) QueryUserEnrollments(_ context.Context, userID string) ([]enrollment.Enrollment, error) {
	enrollments := make([]enrollment.Enrollment, 0)
	if userID == "" {
		return enrollments, nil
	}
	objs, err := repo.db.all(tableEnrollment, "user_id", userID)
	if err != nil {
		return nil, err
	}
	for _, raw := range objs {
		enrollments = append(enrollments, raw.(*enrollmentRecord).Enrollment)
	}
	return enrollments, nil
}

func (repo enrollmentRepository) SaveEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	rec := &enrollmentRecord{UserID: e.UserID, CourseID: e.CourseKey.String(), Enrollment: e}
	if err := repo.db.insert(tableEnrollment, rec); err != nil {
		return enrollment.Enrollment{}, err
	}
	return e, nil
}

// CountEnrollments returns the number of enrollment records, active or not.
func (repo enrollmentRepository) CountEnrollments() (int, error) {
	objs, err := repo.db.all(tableEnrollment, pk)
	return len(objs), err
}
