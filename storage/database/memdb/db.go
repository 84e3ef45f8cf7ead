// Package memdbrepos implements the repositories on an in-memory go-memdb database.
//
// It backs the tests and the "memory" database engine; data is lost when the process exits.
package memdbrepos

import (
	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"
)

const (
	tableUser        = "user"
	tableCourse      = "course"
	tableUpdate      = "course_update"
	tableEnrollment  = "enrollment"
	tablePosition    = "course_position"
	tableCertificate = "certificate"
	tableWhitelist   = "certificate_whitelist"

	tablePrograms            = "programs_api_config"
	tableCertificateHTMLView = "certificate_html_view_config"
	tableLinkedIn            = "linkedin_config"
	tableSelfPaced           = "self_paced_config"

	pk = "id"
)

func userCourseIndex(unique bool) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:   pk,
		Unique: unique,
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "UserID"},
				&memdb.StringFieldIndex{Field: "CourseID"},
			},
		},
	}
}

func intPK() *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: pk, Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}}
}

func configTable(name string) *memdb.TableSchema {
	return &memdb.TableSchema{Name: name, Indexes: map[string]*memdb.IndexSchema{pk: intPK()}}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUser: {
				Name: tableUser,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {Name: pk, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"username": {
						Name:         "username",
						Unique:       true,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Username", Lowercase: true},
					},
					"email": {
						Name:         "email",
						Unique:       true,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			tableCourse: {
				Name: tableCourse,
				Indexes: map[string]*memdb.IndexSchema{
					pk:    {Name: pk, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"seq": {Name: "seq", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "Seq"}},
				},
			},
			tableUpdate: {
				Name: tableUpdate,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:   pk,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "CourseID"},
								&memdb.IntFieldIndex{Field: "ID"},
							},
						},
					},
					"course_id": {Name: "course_id", Indexer: &memdb.StringFieldIndex{Field: "CourseID"}},
				},
			},
			tableEnrollment: {
				Name: tableEnrollment,
				Indexes: map[string]*memdb.IndexSchema{
					pk:        userCourseIndex(true),
					"user_id": {Name: "user_id", Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
				},
			},
			tablePosition: {
				Name:    tablePosition,
				Indexes: map[string]*memdb.IndexSchema{pk: userCourseIndex(true)},
			},
			tableCertificate: {
				Name: tableCertificate,
				Indexes: map[string]*memdb.IndexSchema{
					pk: intPK(),
					"user_course": {
						Name:   "user_course",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "UserID"},
								&memdb.StringFieldIndex{Field: "CourseID"},
							},
						},
					},
				},
			},
			tableWhitelist: {
				Name: tableWhitelist,
				Indexes: map[string]*memdb.IndexSchema{
					pk: intPK(),
					"user_course": {
						Name:   "user_course",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "UserID"},
								&memdb.StringFieldIndex{Field: "CourseID"},
							},
						},
					},
				},
			},
			tablePrograms:            configTable(tablePrograms),
			tableCertificateHTMLView: configTable(tableCertificateHTMLView),
			tableLinkedIn:            configTable(tableLinkedIn),
			tableSelfPaced:           configTable(tableSelfPaced),
		},
	}
}

// DB is an in-memory database holding every table of the app.
type DB struct {
	*memdb.MemDB
}

func Open() (*DB, error) {
	mdb, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, errors.Wrap(err, "creating memdb")
	}
	return &DB{MemDB: mdb}, nil
}

// MustOpen is like Open but panics on error.
func MustOpen() *DB {
	db, err := Open()
	if err != nil {
		panic(err)
	}
	return db
}

// record is an object of an int-keyed table.
type record interface {
	recordID() int
}

// last returns the record of table with the highest ID, nil if there is none.
// Int indexes do not iterate in numeric order, hence the scan.
func last(txn *memdb.Txn, table, index string) (record, error) {
	it, err := txn.Get(table, index)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	var max record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if r := raw.(record); max == nil || r.recordID() > max.recordID() {
			max = r
		}
	}
	return max, nil
}

// nextSeq returns the next auto-increment value of an int index. Write txns are serialized.
func nextSeq(txn *memdb.Txn, table, index string) (int, error) {
	r, err := last(txn, table, index)
	if err != nil {
		return 0, errors.Wrapf(err, "finding last %s", table)
	}
	if r == nil {
		return 1, nil
	}
	return r.recordID() + 1, nil
}

// insert inserts obj in a write txn & commits it.
func (db *DB) insert(table string, obj interface{}) error {
	txn := db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(table, obj); err != nil {
		return errors.Wrapf(err, "inserting into %s", table)
	}
	txn.Commit()
	return nil
}

// first returns the first object matching the index args, nil if none.
func (db *DB) first(table, index string, args ...interface{}) (interface{}, error) {
	txn := db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	return raw, nil
}

// all returns every object matching the index args, in index order.
func (db *DB) all(table, index string, args ...interface{}) ([]interface{}, error) {
	txn := db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	var objs []interface{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		objs = append(objs, raw)
	}
	return objs, nil
}
