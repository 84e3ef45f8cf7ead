package memdbrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/user"
)

type userRecord struct {
	ID       string
	Username string
	Email    string
	User     user.User
}

func newUserRecord(usr user.User) *userRecord {
	return &userRecord{ID: usr.ID, Username: usr.Username, Email: usr.Email, User: usr}
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) getBy(index, value string) (user.User, error) {
	if value == "" {
		return user.User{}, user.ErrNotFound
	}
	raw, err := repo.db.first(tableUser, index, value)
	if err != nil {
		return user.User{}, err
	}
	if raw == nil {
		return user.User{}, user.ErrNotFound
	}
	return raw.(*userRecord).User, nil
}

func (repo userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers []user.User) error {
	excluded := func(usr user.User) bool {
		for _, u := range excludedUsers {
			if u.ID == usr.ID {
				return true
			}
		}
		return false
	}

	if usr, err := repo.getBy("username", username); err == nil && !excluded(usr) {
		return user.ErrUsernameExists
	} else if err != nil && err != user.ErrNotFound {
		return err
	}
	if usr, err := repo.getBy("email", email); err == nil && !excluded(usr) {
		return user.ErrEmailExists
	} else if err != nil && err != user.ErrNotFound {
		return err
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.CheckUsernameUniqueness(ctx, usr.Username, usr.Email, nil); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = uuid.New().String()
	if err := repo.db.insert(tableUser, newUserRecord(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	switch {
	case filter.ID != "":
		return repo.getBy(pk, filter.ID)
	case filter.Username != "":
		return repo.getBy("username", filter.Username)
	case filter.Email != "":
		return repo.getBy("email", filter.Email)
	case filter.UsernameOrEmail != "":
		usr, err := repo.getBy("username", filter.UsernameOrEmail)
		if err == user.ErrNotFound && strings.Contains(filter.UsernameOrEmail, "@") {
			return repo.getBy("email", filter.UsernameOrEmail)
		}
		return usr, err
	default:
		return user.User{}, user.ErrNotFound
	}
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.getBy(pk, usr.ID); err != nil {
		return user.User{}, err
	}
	if err := repo.CheckUsernameUniqueness(ctx, usr.Username, usr.Email, []user.User{usr}); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err := repo.db.insert(tableUser, newUserRecord(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}
