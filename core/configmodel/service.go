package configmodel

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/user"
)

// Model names, as used by the admin API.
const (
	ModelPrograms            = "programs"
	ModelCertificateHTMLView = "certificate-html-view"
	ModelLinkedIn            = "linkedin"
	ModelSelfPaced           = "self-paced"
)

var (
	// errors
	ErrUnknownModel = errors.New("unknown configuration model")
)

type (
	// Repository stores every version of the configuration records.
	// Current* return the zero record (disabled) when no row exists.
	Repository interface {
		CurrentProgramsConfig(ctx context.Context) (ProgramsAPIConfig, error)
		CurrentCertificateHTMLViewConfig(ctx context.Context) (CertificateHTMLViewConfig, error)
		CurrentLinkedInConfig(ctx context.Context) (LinkedInConfig, error)
		CurrentSelfPacedConfig(ctx context.Context) (SelfPacedConfig, error)

		AddProgramsConfig(ctx context.Context, cfg ProgramsAPIConfig) (ProgramsAPIConfig, error)
		AddCertificateHTMLViewConfig(ctx context.Context, cfg CertificateHTMLViewConfig) (CertificateHTMLViewConfig, error)
		AddLinkedInConfig(ctx context.Context, cfg LinkedInConfig) (LinkedInConfig, error)
		AddSelfPacedConfig(ctx context.Context, cfg SelfPacedConfig) (SelfPacedConfig, error)
	}

	// Source provides the current configuration records.
	Source interface {
		Current(ctx context.Context) (Snapshot, error)
	}

	ServiceInterface interface {
		Source
		// Get returns the current record of the named model.
		Get(ctx context.Context, model string) (interface{}, error)
		// Add validates & appends a new version of the named model, changed by usr.
		Add(ctx context.Context, usr user.User, model string, cfg interface{}) (interface{}, error)
		// New returns a pointer to an empty record of the named model, to decode into.
		New(model string) (interface{}, error)
	}

	// Cache keeps the last loaded Snapshot for ttl. It is safe for concurrent use.
	Cache struct {
		repo Repository
		ttl  time.Duration

		mu   sync.RWMutex
		snap *Snapshot
	}

	Service struct {
		cache    *Cache
		repo     Repository
		validate *validator.Validate
	}
)

var (
	_ Source           = (*Cache)(nil)
	_ ServiceInterface = (*Service)(nil)

	// mockable
	nowFunc = func() time.Time { return time.Now().UTC() }
)

// NewCache returns a Cache over repo. A non-positive ttl disables caching.
func NewCache(repo Repository, ttl time.Duration) *Cache {
	return &Cache{repo: repo, ttl: ttl}
}

// Current returns the cached Snapshot, reloading it once it is older than the ttl.
func (c *Cache) Current(ctx context.Context) (Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil && nowFunc().Sub(snap.LoadedAt) < c.ttl {
		return *snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && nowFunc().Sub(c.snap.LoadedAt) < c.ttl { // reloaded meanwhile
		return *c.snap, nil
	}
	loaded, err := Load(ctx, c.repo)
	if err != nil {
		return Snapshot{}, err
	}
	c.snap = &loaded
	return loaded, nil
}

// Invalidate drops the cached Snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Load reads every current record from repo.
func Load(ctx context.Context, repo Repository) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Programs, err = repo.CurrentProgramsConfig(ctx); err != nil {
		return Snapshot{}, errors.Wrap(err, "loading programs config")
	}
	if snap.CertificateHTMLView, err = repo.CurrentCertificateHTMLViewConfig(ctx); err != nil {
		return Snapshot{}, errors.Wrap(err, "loading certificate html view config")
	}
	if snap.LinkedIn, err = repo.CurrentLinkedInConfig(ctx); err != nil {
		return Snapshot{}, errors.Wrap(err, "loading linkedin config")
	}
	if snap.SelfPaced, err = repo.CurrentSelfPacedConfig(ctx); err != nil {
		return Snapshot{}, errors.Wrap(err, "loading self-paced config")
	}
	snap.LoadedAt = nowFunc()
	return snap, nil
}

func NewService(cache *Cache, repo Repository, validate *validator.Validate) *Service {
	return &Service{cache: cache, repo: repo, validate: validate}
}

func (svc *Service) Current(ctx context.Context) (Snapshot, error) {
	return svc.cache.Current(ctx)
}

func (svc *Service) New(model string) (interface{}, error) {
	switch model {
	case ModelPrograms:
		return new(ProgramsAPIConfig), nil
	case ModelCertificateHTMLView:
		return new(CertificateHTMLViewConfig), nil
	case ModelLinkedIn:
		return new(LinkedInConfig), nil
	case ModelSelfPaced:
		return new(SelfPacedConfig), nil
	default:
		return nil, ErrUnknownModel
	}
}

func (svc *Service) Get(ctx context.Context, model string) (interface{}, error) {
	snap, err := svc.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	switch model {
	case ModelPrograms:
		return snap.Programs, nil
	case ModelCertificateHTMLView:
		return snap.CertificateHTMLView, nil
	case ModelLinkedIn:
		return snap.LinkedIn, nil
	case ModelSelfPaced:
		return snap.SelfPaced, nil
	default:
		return nil, ErrUnknownModel
	}
}

func (svc *Service) Add(ctx context.Context, usr user.User, model string, cfg interface{}) (interface{}, error) {
	if err := svc.validate.Struct(cfg); err != nil {
		return nil, err
	}
	now := nowFunc()

	var (
		saved interface{}
		err   error
	)
	switch c := cfg.(type) {
	case *ProgramsAPIConfig:
		if model != ModelPrograms {
			return nil, ErrUnknownModel
		}
		c.setChange(usr.ID, now)
		saved, err = svc.repo.AddProgramsConfig(ctx, *c)
	case *CertificateHTMLViewConfig:
		if model != ModelCertificateHTMLView {
			return nil, ErrUnknownModel
		}
		c.setChange(usr.ID, now)
		saved, err = svc.repo.AddCertificateHTMLViewConfig(ctx, *c)
	case *LinkedInConfig:
		if model != ModelLinkedIn {
			return nil, ErrUnknownModel
		}
		c.setChange(usr.ID, now)
		saved, err = svc.repo.AddLinkedInConfig(ctx, *c)
	case *SelfPacedConfig:
		if model != ModelSelfPaced {
			return nil, ErrUnknownModel
		}
		c.setChange(usr.ID, now)
		saved, err = svc.repo.AddSelfPacedConfig(ctx, *c)
	default:
		return nil, ErrUnknownModel
	}
	if err != nil {
		return nil, errors.Wrapf(err, "adding %s config", model)
	}
	svc.cache.Invalidate()
	return saved, nil
}
