// Package testutil provides fixtures shared by the tests of the apps.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	isStaff bool,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsStaff:   isStaff,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CourseOption customizes a course built by CreateCourse.
type CourseOption func(c *course.Course)

func StaffOnly() CourseOption {
	return func(c *course.Course) { c.VisibleToStaffOnly = true }
}

func SelfPaced() CourseOption {
	return func(c *course.Course) { c.SelfPaced = true }
}

func StartingAt(start time.Time) CourseOption {
	return func(c *course.Course) { c.Start = null.TimeFrom(start.UTC()) }
}

func CreateCourse(t *testing.T, store course.Store, key, name string, opts ...CourseOption) course.Course {
	now := time.Now().UTC()
	c := course.Course{
		Key:         course.MustParseKey(key),
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c, err := store.SaveCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

// NewValidator returns a validator with every custom validator of the apps registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	configmodel.InitValidators(validate, translator)
	return validate, translator
}
