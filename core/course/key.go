package course

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const keyPrefix = "course-v1:"

var (
	ErrInvalidKey = errors.New("invalid course key")

	keyPartRegex = regexp.MustCompile(`^[\w\-~.:]+$`)
)

// Key identifies a course: organization, course number & run.
//
// Keys parse from either the deprecated "org/course/run" form or "course-v1:org+course+run"
// and print back in the form they were parsed from.
type Key struct {
	Org        string
	Course     string
	Run        string
	deprecated bool
}

// NewKey returns a "course-v1:" Key.
func NewKey(org, course, run string) Key {
	return Key{Org: org, Course: course, Run: run}
}

// NewDeprecatedKey returns an "org/course/run" Key.
func NewDeprecatedKey(org, course, run string) Key {
	return Key{Org: org, Course: course, Run: run, deprecated: true}
}

func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)

	var parts []string
	deprecated := false
	if strings.HasPrefix(s, keyPrefix) {
		parts = strings.Split(strings.TrimPrefix(s, keyPrefix), "+")
	} else {
		parts = strings.Split(s, "/")
		deprecated = true
	}
	if len(parts) != 3 {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	for _, p := range parts {
		if !keyPartRegex.MatchString(p) {
			return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
		}
	}
	return Key{Org: parts[0], Course: parts[1], Run: parts[2], deprecated: deprecated}, nil
}

// MustParseKey is like ParseKey but panics on error.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) IsZero() bool { return k.Org == "" && k.Course == "" && k.Run == "" }

func (k Key) Deprecated() bool { return k.deprecated }

func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	if k.deprecated {
		return k.Org + "/" + k.Course + "/" + k.Run
	}
	return keyPrefix + k.Org + "+" + k.Course + "+" + k.Run
}

// AssetURL returns the static URL of the named course asset.
func (k Key) AssetURL(name string) string {
	if name == "" {
		return ""
	}
	if k.deprecated {
		return fmt.Sprintf("/c4x/%s/%s/asset/%s", k.Org, k.Course, name)
	}
	return fmt.Sprintf("/asset-v1:%s+%s+%s+type@asset+block@%s", k.Org, k.Course, k.Run, name)
}

// BlocksURL returns the URL of the course blocks API for this course.
func (k Key) BlocksURL() string {
	return "/api/courses/v1/blocks/?course_id=" + url.QueryEscape(k.String())
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}
	key, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// Value implements driver.Valuer.
func (k Key) Value() (driver.Value, error) {
	return k.String(), nil
}

// Scan implements sql.Scanner.
func (k *Key) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*k = Key{}
		return nil
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("course.Key: cannot scan %T", src)
	}
}
