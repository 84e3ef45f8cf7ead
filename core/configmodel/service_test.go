package configmodel

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/user"
)

type fakeRepo struct {
	loads     int
	programs  []ProgramsAPIConfig
	certViews []CertificateHTMLViewConfig
	linkedIns []LinkedInConfig
	selfPaced []SelfPacedConfig
}

func (r *fakeRepo) CurrentProgramsConfig(_ context.Context) (ProgramsAPIConfig, error) {
	r.loads++
	if len(r.programs) == 0 {
		return ProgramsAPIConfig{}, nil
	}
	return r.programs[len(r.programs)-1], nil
}

func (r *fakeRepo) CurrentCertificateHTMLViewConfig(_ context.Context) (CertificateHTMLViewConfig, error) {
	if len(r.certViews) == 0 {
		return CertificateHTMLViewConfig{}, nil
	}
	return r.certViews[len(r.certViews)-1], nil
}

func (r *fakeRepo) CurrentLinkedInConfig(_ context.Context) (LinkedInConfig, error) {
	if len(r.linkedIns) == 0 {
		return LinkedInConfig{}, nil
	}
	return r.linkedIns[len(r.linkedIns)-1], nil
}

func (r *fakeRepo) CurrentSelfPacedConfig(_ context.Context) (SelfPacedConfig, error) {
	if len(r.selfPaced) == 0 {
		return SelfPacedConfig{}, nil
	}
	return r.selfPaced[len(r.selfPaced)-1], nil
}

func (r *fakeRepo) AddProgramsConfig(_ context.Context, cfg ProgramsAPIConfig) (ProgramsAPIConfig, error) {
	cfg.ID = len(r.programs) + 1
	r.programs = append(r.programs, cfg)
	return cfg, nil
}

func (r *fakeRepo) AddCertificateHTMLViewConfig(_ context.Context, cfg CertificateHTMLViewConfig) (CertificateHTMLViewConfig, error) {
	cfg.ID = len(r.certViews) + 1
	r.certViews = append(r.certViews, cfg)
	return cfg, nil
}

func (r *fakeRepo) AddLinkedInConfig(_ context.Context, cfg LinkedInConfig) (LinkedInConfig, error) {
	cfg.ID = len(r.linkedIns) + 1
	r.linkedIns = append(r.linkedIns, cfg)
	return cfg, nil
}

func (r *fakeRepo) AddSelfPacedConfig(_ context.Context, cfg SelfPacedConfig) (SelfPacedConfig, error) {
	cfg.ID = len(r.selfPaced) + 1
	r.selfPaced = append(r.selfPaced, cfg)
	return cfg, nil
}

func mockNow(t *testing.T, now *time.Time) {
	nowFunc = func() time.Time { return *now }
	t.Cleanup(func() { nowFunc = func() time.Time { return time.Now().UTC() } })
}

func TestCache_Current(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	mockNow(t, &now)

	repo := new(fakeRepo)
	cache := NewCache(repo, time.Minute)
	ctx := context.Background()

	snap, err := cache.Current(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, now, snap.LoadedAt)
		assert.False(t, snap.Programs.Enabled)
	}
	assert.Equal(t, 1, repo.loads)

	now = now.Add(30 * time.Second)
	_, _ = cache.Current(ctx)
	assert.Equal(t, 1, repo.loads, "cached")

	now = now.Add(time.Minute)
	_, _ = cache.Current(ctx)
	assert.Equal(t, 2, repo.loads, "expired")

	cache.Invalidate()
	_, _ = cache.Current(ctx)
	assert.Equal(t, 3, repo.loads, "invalidated")

	noCache := NewCache(repo, 0)
	_, _ = noCache.Current(ctx)
	_, _ = noCache.Current(ctx)
	assert.Equal(t, 5, repo.loads, "caching disabled")
}

func newTestService(repo Repository) *Service {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return NewService(NewCache(repo, time.Hour), repo, validate)
}

func TestService_New(t *testing.T) {
	svc := newTestService(new(fakeRepo))

	tests := []struct {
		model   string
		want    interface{}
		wantErr error
	}{
		{model: ModelPrograms, want: new(ProgramsAPIConfig)},
		{model: ModelCertificateHTMLView, want: new(CertificateHTMLViewConfig)},
		{model: ModelLinkedIn, want: new(LinkedInConfig)},
		{model: ModelSelfPaced, want: new(SelfPacedConfig)},
		{model: "lol", wantErr: ErrUnknownModel},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := svc.New(tt.model)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Add(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	mockNow(t, &now)

	repo := new(fakeRepo)
	svc := newTestService(repo)
	ctx := context.Background()
	admin := user.User{ID: "42", Username: "admin", IsStaff: true}

	// warm the cache before adding
	got, err := svc.Get(ctx, ModelSelfPaced)
	if assert.NoError(t, err) {
		assert.Equal(t, SelfPacedConfig{}, got)
	}

	t.Run("unknown model", func(t *testing.T) {
		_, err := svc.Add(ctx, admin, "lol", &SelfPacedConfig{})
		assert.Equal(t, ErrUnknownModel, err)
		_, err = svc.Get(ctx, "lol")
		assert.Equal(t, ErrUnknownModel, err)
	})

	t.Run("model mismatch", func(t *testing.T) {
		_, err := svc.Add(ctx, admin, ModelPrograms, &SelfPacedConfig{})
		assert.Equal(t, ErrUnknownModel, err)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.Add(ctx, admin, ModelCertificateHTMLView, &CertificateHTMLViewConfig{Configuration: "[1, 2]"})
		assert.IsType(t, validator.ValidationErrors{}, err)
		_, err = svc.Add(ctx, admin, ModelPrograms, &ProgramsAPIConfig{InternalServiceURL: "lol"})
		assert.IsType(t, validator.ValidationErrors{}, err)
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &SelfPacedConfig{Meta: Meta{ID: 99, Enabled: true}, EnableCourseHomeImprovements: true}
		saved, err := svc.Add(ctx, admin, ModelSelfPaced, cfg)
		if !assert.NoError(t, err) {
			return
		}
		sp := saved.(SelfPacedConfig)
		assert.Equal(t, 1, sp.ID)
		assert.Equal(t, now, sp.ChangeDate)
		assert.Equal(t, "42", sp.ChangedByID.String)

		got, err := svc.Get(ctx, ModelSelfPaced)
		if assert.NoError(t, err) {
			assert.True(t, got.(SelfPacedConfig).EnableCourseHomeImprovements)
		}
		snap, err := svc.Current(ctx)
		if assert.NoError(t, err) {
			assert.True(t, snap.SelfPaced.Enabled)
		}
	})
}
