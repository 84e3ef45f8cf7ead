package memdbrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/course"
)

type (
	certificateRecord struct {
		ID          int
		UserID      string
		CourseID    string
		Certificate certificate.Certificate
	}

	whitelistRecord struct {
		ID        int
		UserID    string
		CourseID  string
		Whitelist certificate.Whitelist
	}
)

func (r *certificateRecord) recordID() int { return r.ID }
func (r *whitelistRecord) recordID() int   { return r.ID }

type certificateRepository struct {
	db *DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) *certificateRepository {
	return &certificateRepository{db: db}
}

func (repo certificateRepository) GetCertificate(_ context.Context, userID string, key course.Key) (certificate.Certificate, error) {
	raw, err := repo.db.first(tableCertificate, "user_course", userID, key.String())
	if err != nil {
		return certificate.Certificate{}, err
	}
	if raw == nil {
		return certificate.Certificate{}, certificate.ErrNotFound
	}
	return raw.(*certificateRecord).Certificate, nil
}

func (repo certificateRepository) SaveCertificate(_ context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableCertificate, "user_course", cert.UserID, cert.CourseKey.String())
	if err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "finding certificate")
	}
	if existing != nil {
		cert.ID = existing.(*certificateRecord).ID
	} else if cert.ID, err = nextSeq(txn, tableCertificate, pk); err != nil {
		return certificate.Certificate{}, err
	}

	rec := &certificateRecord{ID: cert.ID, UserID: cert.UserID, CourseID: cert.CourseKey.String(), Certificate: cert}
	if err = txn.Insert(tableCertificate, rec); err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "saving certificate")
	}
	txn.Commit()
	return cert, nil
}

func (repo certificateRepository) GetWhitelist(_ context.Context, userID string, key course.Key) (certificate.Whitelist, error) {
	raw, err := repo.db.first(tableWhitelist, "user_course", userID, key.String())
	if err != nil {
		return certificate.Whitelist{}, err
	}
	if raw == nil {
		return certificate.Whitelist{}, certificate.ErrNotFound
	}
	return raw.(*whitelistRecord).Whitelist, nil
}

func (repo certificateRepository) SaveWhitelist(_ context.Context, wl certificate.Whitelist) (certificate.Whitelist, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableWhitelist, "user_course", wl.UserID, wl.CourseKey.String())
	if err != nil {
		return certificate.Whitelist{}, errors.Wrap(err, "finding whitelist")
	}
	if existing != nil {
		wl.ID = existing.(*whitelistRecord).ID
	} else if wl.ID, err = nextSeq(txn, tableWhitelist, pk); err != nil {
		return certificate.Whitelist{}, err
	}

	rec := &whitelistRecord{ID: wl.ID, UserID: wl.UserID, CourseID: wl.CourseKey.String(), Whitelist: wl}
	if err = txn.Insert(tableWhitelist, rec); err != nil {
		return certificate.Whitelist{}, errors.Wrap(err, "saving whitelist")
	}
	txn.Commit()
	return wl, nil
}
