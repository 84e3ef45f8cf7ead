package memdbrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/configmodel"
)

type configRecord struct {
	ID     int
	Config interface{}
}

func (r *configRecord) recordID() int { return r.ID }

type configRepository struct {
	db *DB
}

var _ configmodel.Repository = (*configRepository)(nil) // interface compliance check

func NewConfigRepository(db *DB) *configRepository {
	return &configRepository{db: db}
}

// current returns the latest config of table, nil when there is none.
func (repo configRepository) current(table string) (interface{}, error) {
	txn := repo.db.Txn(false)
	defer txn.Abort()
	r, err := last(txn, table, pk)
	if err != nil {
		return nil, errors.Wrapf(err, "loading current %s", table)
	}
	if r == nil {
		return nil, nil
	}
	return r.(*configRecord).Config, nil
}

// add inserts the config built with the next ID of table.
func (repo configRepository) add(table string, build func(id int) interface{}) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	id, err := nextSeq(txn, table, pk)
	if err != nil {
		return err
	}
	if err = txn.Insert(table, &configRecord{ID: id, Config: build(id)}); err != nil {
		return errors.Wrapf(err, "inserting %s", table)
	}
	txn.Commit()
	return nil
}

func (repo configRepository) CurrentProgramsConfig(_ context.Context) (configmodel.ProgramsAPIConfig, error) {
	cfg, err := repo.current(tablePrograms)
	if cfg == nil || err != nil {
		return configmodel.ProgramsAPIConfig{}, err
	}
	return cfg.(configmodel.ProgramsAPIConfig), nil
}

func (repo configRepository) AddProgramsConfig(_ context.Context, cfg configmodel.ProgramsAPIConfig) (configmodel.ProgramsAPIConfig, error) {
	err := repo.add(tablePrograms, func(id int) interface{} {
		cfg.ID = id
		return cfg
	})
	return cfg, err
}

func (repo configRepository) CurrentCertificateHTMLViewConfig(_ context.Context) (configmodel.CertificateHTMLViewConfig, error) {
	cfg, err := repo.current(tableCertificateHTMLView)
	if cfg == nil || err != nil {
		return configmodel.CertificateHTMLViewConfig{}, err
	}
	return cfg.(configmodel.CertificateHTMLViewConfig), nil
}

func (repo configRepository) AddCertificateHTMLViewConfig(_ context.Context, cfg configmodel.CertificateHTMLViewConfig) (configmodel.CertificateHTMLViewConfig, error) {
	err := repo.add(tableCertificateHTMLView, func(id int) interface{} {
		cfg.ID = id
		return cfg
	})
	return cfg, err
}

func (repo configRepository) CurrentLinkedInConfig(_ context.Context) (configmodel.LinkedInConfig, error) {
	cfg, err := repo.current(tableLinkedIn)
	if cfg == nil || err != nil {
		return configmodel.LinkedInConfig{}, err
	}
	return cfg.(configmodel.LinkedInConfig), nil
}

func (repo configRepository) AddLinkedInConfig(_ context.Context, cfg configmodel.LinkedInConfig) (configmodel.LinkedInConfig, error) {
	err := repo.add(tableLinkedIn, func(id int) interface{} {
		cfg.ID = id
		return cfg
	})
	return cfg, err
}

func (repo configRepository) CurrentSelfPacedConfig(_ context.Context) (configmodel.SelfPacedConfig, error) {
	cfg, err := repo.current(tableSelfPaced)
	if cfg == nil || err != nil {
		return configmodel.SelfPacedConfig{}, err
	}
	return cfg.(configmodel.SelfPacedConfig), nil
}

func (repo configRepository) AddSelfPacedConfig(_ context.Context, cfg configmodel.SelfPacedConfig) (configmodel.SelfPacedConfig, error) {
	err := repo.add(tableSelfPaced, func(id int) interface{} {
		cfg.ID = id
		return cfg
	})
	return cfg, err
}
