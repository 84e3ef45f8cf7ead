package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
)

type courseInfoRepository struct {
	db core.DB
}

var _ courseinfo.Repository = (*courseInfoRepository)(nil) // interface compliance check

func NewCourseInfoRepository(db core.DB) *courseInfoRepository {
	return &courseInfoRepository{db: db}
}

type updateRow struct {
	CourseKey course.Key `db:"course_id"`
	ID        int        `db:"id"`
	Date      string     `db:"date"`
	Content   string     `db:"content"`
	Status    string     `db:"status"`
}

type positionRow struct {
	UserID    string     `db:"user_id"`
	CourseKey course.Key `db:"course_id"`
	Chapter   string     `db:"chapter"`
	Section   string     `db:"section"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (repo courseInfoRepository) QueryUpdates(ctx context.Context, key course.Key) ([]courseinfo.Update, error) {
	var rows []updateRow
	q := `SELECT course_id, id, date, content, status FROM course_update WHERE course_id = $1 ORDER BY id`
	if err := repo.db.SelectContext(ctx, &rows, q, key); err != nil {
		return nil, errors.Wrap(err, "querying course updates")
	}
	updates := make([]courseinfo.Update, 0, len(rows))
	for _, r := range rows {
		updates = append(updates, courseinfo.Update{ID: r.ID, Date: r.Date, Content: r.Content, Status: r.Status})
	}
	return updates, nil
}

// SaveUpdates replaces all the updates of a course.
func (repo courseInfoRepository) SaveUpdates(ctx context.Context, key course.Key, updates []courseinfo.Update) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_update WHERE course_id = $1`, key); err != nil {
		return errors.Wrap(err, "deleting course updates")
	}
	for _, u := range updates {
		row := updateRow{CourseKey: key, ID: u.ID, Date: u.Date, Content: u.Content, Status: u.Status}
		q := `INSERT INTO course_update (course_id, id, date, content, status)
			VALUES (:course_id, :id, :date, :content, :status)`
		if _, err = namedExec(ctx, tx, q, row); err != nil {
			return errors.Wrap(err, "inserting course update")
		}
	}
	return errors.Wrap(tx.Commit(), "committing course updates")
}

func (repo courseInfoRepository) GetPosition(ctx context.Context, userID string, key course.Key) (courseinfo.Position, error) {
	var row positionRow
	q := `SELECT user_id, course_id, chapter, section, updated_at FROM course_position WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, userID, key); err != nil {
		return courseinfo.Position{}, trapNoRowsErr(err, courseinfo.ErrNoPosition, "finding position")
	}
	return courseinfo.Position(row), nil
}

func (repo courseInfoRepository) SavePosition(ctx context.Context, pos courseinfo.Position) (courseinfo.Position, error) {
	row := positionRow(pos)
	q := `INSERT INTO course_position (user_id, course_id, chapter, section, updated_at)
		VALUES (:user_id, :course_id, :chapter, :section, :updated_at)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			chapter = EXCLUDED.chapter, section = EXCLUDED.section, updated_at = EXCLUDED.updated_at`
	if _, err := namedExec(ctx, repo.db, q, row); err != nil {
		return courseinfo.Position{}, errors.Wrap(err, "saving position")
	}
	return pos, nil
}
