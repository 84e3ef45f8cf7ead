package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/lumen/apps/api/echo"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/testutil"
)

const (
	toyKey    = "edX/toy/2012_Fall"
	hiddenKey = "edX/hidden/2012_Fall"
)

var pastStart = time.Date(2012, time.September, 1, 0, 0, 0, 0, time.UTC)

func overviews(courses ...course.Course) []interface{} {
	objs := make([]interface{}, 0, len(courses))
	for _, c := range courses {
		objs = append(objs, course.NewOverview(c))
	}
	return objs
}

func Test_courseApi_list(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.cd", "", false, true)

	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))
	hidden := testutil.CreateCourse(t, courseStore, hiddenKey, "Hidden Course", testutil.StaffOnly())

	staffToken := getToken(t, staff)
	honorToken := getToken(t, honor)
	path := "/api/courses/v1/courses"

	runHTTPTests(t, []httpTest{
		{name: "anonymous", path: path, wantData: marchallList(t, overviews(toy)...)},
		{name: "anonymous as anonymous", path: path + "?username=", wantData: marchallList(t, overviews(toy)...)},
		{
			name: "anonymous on behalf of a user", path: path + "?username=honor",
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "anonymous on behalf of unknown user", path: path + "?username=lol",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "unknown user"}),
		},
		{name: "student (default target)", path: path, token: honorToken, wantData: marchallList(t, overviews(toy)...)},
		{name: "student as self", path: path + "?username=HONOR", token: honorToken, wantData: marchallList(t, overviews(toy)...)},
		{name: "student as anonymous", path: path + "?username=", token: honorToken, wantData: marchallList(t, overviews(toy)...)},
		{
			name: "student on behalf of other user", path: path + "?username=other", token: honorToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "student on behalf of unknown user", path: path + "?username=lol", token: honorToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "unknown user"}),
		},
		{name: "staff sees hidden courses", path: path, token: staffToken, wantData: marchallList(t, overviews(toy, hidden)...)},
		{name: "staff on behalf of student", path: path + "?username=honor", token: staffToken, wantData: marchallList(t, overviews(toy)...)},
		{name: "staff as anonymous", path: path + "?username=", token: staffToken, wantData: marchallList(t, overviews(toy)...)},
		{
			name: "staff on behalf of unknown user", path: path + "?username=lol", token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "invalid token", path: path, token: "lol",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
	})
}

func Test_courseApi_retrieve(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)

	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))
	hidden := testutil.CreateCourse(t, courseStore, hiddenKey, "Hidden Course", testutil.StaffOnly())
	demo := testutil.CreateCourse(t, courseStore, "course-v1:edX+DemoX+Demo_Course", "Demo Course")

	staffToken := getToken(t, staff)
	honorToken := getToken(t, honor)
	path := func(key string) string { return "/api/courses/v1/courses/" + key }
	notFound := marchallObj(t, httpErr{Error: "course not found"})

	runHTTPTests(t, []httpTest{
		{name: "anonymous", path: path(toyKey), wantData: marchallObj(t, course.NewOverview(toy))},
		{name: "new style key", path: path(demo.Key.String()), wantData: marchallObj(t, course.NewOverview(demo))},
		{name: "trailing slash", path: path(toyKey) + "/", wantData: marchallObj(t, course.NewOverview(toy))},
		{name: "anonymous: hidden", path: path(hiddenKey), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "student: hidden", path: path(hiddenKey), token: honorToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "staff: hidden", path: path(hiddenKey), token: staffToken, wantData: marchallObj(t, course.NewOverview(hidden))},
		{name: "student as anonymous", path: path(toyKey) + "?username=", token: honorToken, wantData: marchallObj(t, course.NewOverview(toy))},
		{
			name: "staff as anonymous: hidden", path: path(hiddenKey) + "?username=", token: staffToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "staff on behalf of student: hidden", path: path(hiddenKey) + "?username=honor", token: staffToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "student on behalf of staff", path: path(toyKey) + "?username=staff", token: honorToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "unknown course", path: path("edX/lol/2012_Fall"), wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "invalid key", path: path("lol"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid course key"}),
		},
	})
}

func Test_courseApi_save(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)

	start := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	path := "/api/courses/v1/courses/" + toyKey

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", token: getToken(t, honor), body: marchallObj(t, course.NewCourse{DisplayName: "Toy"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: getToken(t, staff), body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "end before start", token: getToken(t, staff),
			body:     marchallObj(t, course.NewCourse{DisplayName: "Toy", Start: &start, End: &end}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "created", token: getToken(t, staff),
			body: marchallObj(t, course.NewCourse{DisplayName: "Toy", Start: &start, VisibleToStaffOnly: true}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = path
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			checkCode(t, tt, rec)
		})
	}

	c, err := courseStore.GetCourse(context.Background(), course.MustParseKey(toyKey))
	if assert.NoError(t, err) {
		assert.Equal(t, "Toy", c.DisplayName)
		assert.True(t, c.VisibleToStaffOnly)
		assert.True(t, c.Start.Time.Equal(start))
	}
}

func Test_courseApi_info(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	enrolled := testutil.CreateUser(t, usrRepo, "Enrolled", "enrolled", "enrolled@test.cd", "", false, true)

	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))
	future := testutil.CreateCourse(t, courseStore, "edX/future/2099", "Future Course",
		testutil.StartingAt(time.Date(2099, time.March, 5, 0, 0, 0, 0, time.UTC)))

	updates := []courseinfo.Update{
		{ID: 1, Date: "January 1, 2013", Content: "first", Status: courseinfo.StatusVisible},
		{ID: 2, Date: "March 3, 2013", Content: "second", Status: courseinfo.StatusVisible},
		{ID: 3, Date: "April 4, 2013", Content: "removed", Status: courseinfo.StatusDeleted},
	}
	if err := infoRepo.SaveUpdates(ctx, toy.Key, updates); err != nil {
		t.Fatalf("SaveUpdates(): %v", err)
	}
	if _, err := enrollRepo.SaveEnrollment(ctx, enrollment.Enrollment{
		UserID: enrolled.ID, CourseKey: toy.Key, Mode: enrollment.ModeHonor, IsActive: true,
	}); err != nil {
		t.Fatalf("SaveEnrollment(): %v", err)
	}
	if _, err := infoRepo.SavePosition(ctx, courseinfo.Position{
		UserID: enrolled.ID, CourseKey: toy.Key, Chapter: "Overview", Section: "Welcome",
	}); err != nil {
		t.Fatalf("SavePosition(): %v", err)
	}

	visible := []courseinfo.Update{updates[1], updates[0]}
	path := func(key string) string { return "/api/courses/v1/info/" + key }

	runHTTPTests(t, []httpTest{
		{
			name: "anonymous: no updates", path: path(toyKey),
			wantData: marchallObj(t, courseinfo.Info{Course: course.NewOverview(toy), Updates: []courseinfo.Update{}}),
		},
		{
			name: "not enrolled: enroll prompt", path: path(toyKey), token: getToken(t, honor),
			wantData: marchallObj(t, courseinfo.Info{Course: course.NewOverview(toy), Updates: visible, ShowEnrollPrompt: true}),
		},
		{
			name: "enrolled: no last accessed link while disabled", path: path(toyKey), token: getToken(t, enrolled),
			wantData: marchallObj(t, courseinfo.Info{Course: course.NewOverview(toy), Updates: visible}),
		},
		{
			name: "not live", path: path("edX/future/2099"), token: getToken(t, honor),
			wantCode: http.StatusFound,
		},
		{
			name: "not live: staff", path: path("edX/future/2099"), token: getToken(t, staff),
			wantData: marchallObj(t, courseinfo.Info{Course: course.NewOverview(future), Updates: []courseinfo.Update{}, ShowEnrollPrompt: true}),
		},
	})

	t.Run("not live redirect", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("edX/future/2099"), getToken(t, honor))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard?notlive=Mar+05%2C+2099", rec.Header().Get("Location"))
	})

	t.Run("last accessed link", func(t *testing.T) {
		if _, err := configRepo.AddSelfPacedConfig(ctx, configmodel.SelfPacedConfig{EnableCourseHomeImprovements: true}); err != nil {
			t.Fatalf("AddSelfPacedConfig(): %v", err)
		}
		req, rec := newAuthRequest(http.MethodGet, path(toyKey), getToken(t, enrolled))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, courseinfo.Info{
				Course:          course.NewOverview(toy),
				Updates:         visible,
				LastAccessedURL: "/courses/edX/toy/2012_Fall/courseware/Overview/Welcome/",
			}),
		}, rec)
	})

	t.Run("no enrollment created", func(t *testing.T) {
		count, err := enrollRepo.CountEnrollments()
		if assert.NoError(t, err) {
			assert.Equal(t, 1, count)
		}
	})
}

func Test_courseApi_recordPosition(t *testing.T) {
	resetDB(t)

	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))
	testutil.CreateCourse(t, courseStore, hiddenKey, "Hidden Course", testutil.StaffOnly())

	path := func(key string) string { return "/api/courses/v1/positions/" + key }
	token := getToken(t, honor)

	runHTTPTests(t, []httpTest{
		{
			name: "auth required", method: http.MethodPut, path: path(toyKey),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", method: http.MethodPut, path: path(toyKey), token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PositionRequest{Chapter: "this field is required", Section: "this field is required"}),
		},
		{
			name: "hidden course", method: http.MethodPut, path: path(hiddenKey), token: token,
			body:     marchallObj(t, echoapi.PositionRequest{Chapter: "a", Section: "b"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "recorded", method: http.MethodPut, path: path(toyKey), token: token,
			body: marchallObj(t, echoapi.PositionRequest{Chapter: "Overview", Section: "Welcome"}),
		},
	})

	pos, err := infoRepo.GetPosition(context.Background(), honor.ID, course.MustParseKey(toyKey))
	if assert.NoError(t, err) {
		assert.Equal(t, "/courses/edX/toy/2012_Fall/courseware/Overview/Welcome/", pos.URL())
	}
}
