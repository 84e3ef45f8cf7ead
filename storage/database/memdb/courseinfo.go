package memdbrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
)

type (
	updateRecord struct {
		CourseID string
		ID       int
		Update   courseinfo.Update
	}

	positionRecord struct {
		UserID   string
		CourseID string
		Position courseinfo.Position
	}
)

type courseInfoRepository struct {
	db *DB
}

var _ courseinfo.Repository = (*courseInfoRepository)(nil) // interface compliance check

func NewCourseInfoRepository(db *DB) *courseInfoRepository {
	return &courseInfoRepository{db: db}
}

func (repo courseInfoRepository) QueryUpdates(_ context.Context, key course.Key) ([]courseinfo.Update, error) {
	objs, err := repo.db.all(tableUpdate, "course_id", key.String())
	if err != nil {
		return nil, err
	}
	updates := make([]courseinfo.Update, 0, len(objs))
	for _, raw := range objs {
		updates = append(updates, raw.(*updateRecord).Update)
	}
	return updates, nil
}

// SaveUpdates replaces all the updates of a course.
func (repo courseInfoRepository) SaveUpdates(_ context.Context, key course.Key, updates []courseinfo.Update) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tableUpdate, "course_id", key.String()); err != nil {
		return errors.Wrap(err, "deleting course updates")
	}
	for _, u := range updates {
		if err := txn.Insert(tableUpdate, &updateRecord{CourseID: key.String(), ID: u.ID, Update: u}); err != nil {
			return errors.Wrap(err, "inserting course update")
		}
	}
	txn.Commit()
	return nil
}

func (repo courseInfoRepository) GetPosition(_ context.Context, userID string, key course.Key) (courseinfo.Position, error) {
	if userID == "" {
		return courseinfo.Position{}, courseinfo.ErrNoPosition
	}
	raw, err := repo.db.first(tablePosition, pk, userID, key.String())
	if err != nil {
		return courseinfo.Position{}, err
	}
	if raw == nil {
		return courseinfo.Position{}, courseinfo.ErrNoPosition
	}
	return raw.(*positionRecord).Position, nil
}

func (repo courseInfoRepository) SavePosition(_ context.Context, pos courseinfo.Position) (courseinfo.Position, error) {
	rec := &positionRecord{UserID: pos.UserID, CourseID: pos.CourseKey.String(), Position: pos}
	if err := repo.db.insert(tablePosition, rec); err != nil {
		return courseinfo.Position{}, err
	}
	return pos, nil
}
