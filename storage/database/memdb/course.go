package memdbrepos

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/course"
)

type courseRecord struct {
	ID     string
	Seq    int
	Course course.Course
}

func (r *courseRecord) recordID() int { return r.Seq }

type courseStore struct {
	db *DB
}

var _ course.Store = (*courseStore)(nil) // interface compliance check

func NewCourseStore(db *DB) *courseStore {
	return &courseStore{db: db}
}

// QueryCourses returns the courses in creation order.
func (s courseStore) QueryCourses(_ context.Context) ([]course.Course, error) {
	objs, err := s.db.all(tableCourse, "seq")
	if err != nil {
		return nil, err
	}
	records := make([]*courseRecord, 0, len(objs))
	for _, raw := range objs {
		records = append(records, raw.(*courseRecord))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	courses := make([]course.Course, 0, len(records))
	for _, rec := range records {
		courses = append(courses, rec.Course)
	}
	return courses, nil
}

func (s courseStore) GetCourse(_ context.Context, key course.Key) (course.Course, error) {
	raw, err := s.db.first(tableCourse, pk, key.String())
	if err != nil {
		return course.Course{}, err
	}
	if raw == nil {
		return course.Course{}, course.ErrNotFound
	}
	return raw.(*courseRecord).Course, nil
}

func (s courseStore) HasCourse(ctx context.Context, key course.Key) (bool, error) {
	_, err := s.GetCourse(ctx, key)
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case course.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (s courseStore) SaveCourse(_ context.Context, c course.Course) (course.Course, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	rec := &courseRecord{ID: c.Key.String(), Course: c}
	existing, err := txn.First(tableCourse, pk, rec.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	if existing != nil {
		rec.Seq = existing.(*courseRecord).Seq
	} else if rec.Seq, err = nextSeq(txn, tableCourse, "seq"); err != nil {
		return course.Course{}, err
	}

	if err = txn.Insert(tableCourse, rec); err != nil {
		return course.Course{}, errors.Wrap(err, "saving course")
	}
	txn.Commit()
	return c, nil
}
