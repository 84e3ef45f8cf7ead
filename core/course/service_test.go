package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
	memdbrepos "github.com/trezcool/lumen/storage/database/memdb"
	"github.com/trezcool/lumen/testutil"
)

func keys(courses []course.Course) []string {
	ks := make([]string, 0, len(courses))
	for _, c := range courses {
		ks = append(ks, c.Key.String())
	}
	return ks
}

func TestService(t *testing.T) {
	db := memdbrepos.MustOpen()
	usrRepo := memdbrepos.NewUserRepository(db)
	store := memdbrepos.NewCourseStore(db)
	svc := course.NewService(store, user.NewService(usrRepo))
	ctx := context.Background()

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)

	testutil.CreateCourse(t, store, "edX/toy/2012_Fall", "Toy Course")
	testutil.CreateCourse(t, store, "edX/hidden/2012_Fall", "Hidden Course", testutil.StaffOnly())
	testutil.CreateCourse(t, store, "course-v1:edX+DemoX+Demo_Course", "Demo Course")

	t.Run("List", func(t *testing.T) {
		tests := []struct {
			name      string
			requester user.User
			uname     string
			want      []string
			wantErr   error
		}{
			{name: "anonymous", requester: user.Anonymous(), want: []string{"edX/toy/2012_Fall", "course-v1:edX+DemoX+Demo_Course"}},
			{name: "student", requester: honor, uname: "honor", want: []string{"edX/toy/2012_Fall", "course-v1:edX+DemoX+Demo_Course"}},
			{
				name: "staff", requester: staff, uname: "staff",
				want: []string{"edX/toy/2012_Fall", "edX/hidden/2012_Fall", "course-v1:edX+DemoX+Demo_Course"},
			},
			{name: "staff as student", requester: staff, uname: "honor", want: []string{"edX/toy/2012_Fall", "course-v1:edX+DemoX+Demo_Course"}},
			{name: "student as anonymous", requester: honor, want: []string{"edX/toy/2012_Fall", "course-v1:edX+DemoX+Demo_Course"}},
			{name: "staff as anonymous", requester: staff, want: []string{"edX/toy/2012_Fall", "course-v1:edX+DemoX+Demo_Course"}},
			{name: "student as staff", requester: honor, uname: "staff", wantErr: access.ErrPermissionDenied},
			{name: "student as unknown", requester: honor, uname: "lol", wantErr: access.ErrBadTarget},
			{name: "staff as unknown", requester: staff, uname: "lol", wantErr: access.ErrTargetNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := svc.List(ctx, tt.requester, tt.uname)
				if err != tt.wantErr {
					t.Fatalf("List() error = %v, wantErr %v", err, tt.wantErr)
				}
				if tt.wantErr == nil {
					assert.Equal(t, tt.want, keys(got))
				}
			})
		}
	})

	t.Run("Detail", func(t *testing.T) {
		hidden := course.MustParseKey("edX/hidden/2012_Fall")

		c, err := svc.Detail(ctx, staff, "staff", hidden)
		if assert.NoError(t, err) {
			assert.Equal(t, "Hidden Course", c.DisplayName)
		}

		_, err = svc.Detail(ctx, honor, "honor", hidden)
		assert.Equal(t, course.ErrNotFound, err)

		_, err = svc.Detail(ctx, staff, "honor", hidden)
		assert.Equal(t, course.ErrNotFound, err)

		_, err = svc.Detail(ctx, staff, "", hidden)
		assert.Equal(t, course.ErrNotFound, err)

		c, err = svc.Detail(ctx, honor, "", course.MustParseKey("edX/toy/2012_Fall"))
		if assert.NoError(t, err) {
			assert.Equal(t, "Toy Course", c.DisplayName)
		}

		_, err = svc.Detail(ctx, user.Anonymous(), "", course.MustParseKey("edX/lol/2012_Fall"))
		assert.Equal(t, course.ErrNotFound, err)

		_, err = svc.Detail(ctx, user.Anonymous(), "honor", course.MustParseKey("edX/toy/2012_Fall"))
		assert.Equal(t, access.ErrPermissionDenied, err)
	})

	t.Run("Save", func(t *testing.T) {
		validate, _ := testutil.NewValidator()
		start := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

		nc := course.NewCourse{Key: " edX/toy/2012_Fall ", DisplayName: " Toy Course v2 ", Start: &start}
		if err := nc.Validate(ctx, validate); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		orig, err := store.GetCourse(ctx, course.MustParseKey("edX/toy/2012_Fall"))
		if err != nil {
			t.Fatalf("GetCourse() failed: %v", err)
		}

		c, err := svc.Save(ctx, nc)
		if assert.NoError(t, err) {
			assert.Equal(t, "Toy Course v2", c.DisplayName)
			assert.True(t, c.Start.Time.Equal(start))
			assert.True(t, c.CreatedAt.Equal(orig.CreatedAt))
		}

		// order is kept on replace
		all, err := svc.List(ctx, staff, "staff")
		if assert.NoError(t, err) {
			assert.Equal(t, "edX/toy/2012_Fall", all[0].Key.String())
		}

		invalid := course.NewCourse{Key: "lol", DisplayName: "  "}
		assert.Error(t, invalid.Validate(ctx, validate))
	})
}
