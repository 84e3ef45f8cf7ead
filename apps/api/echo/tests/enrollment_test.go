package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/testutil"
)

func Test_enrollmentApi(t *testing.T) {
	resetDB(t)

	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))
	testutil.CreateCourse(t, courseStore, hiddenKey, "Hidden Course", testutil.StaffOnly())

	token := getToken(t, honor)
	path := func(key string) string { return "/api/enrollment/v1/enrollments/" + key }

	runHTTPTests(t, []httpTest{
		{name: "auth required", path: "/api/enrollment/v1/enrollments", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no enrollments", path: "/api/enrollment/v1/enrollments", token: token, wantData: marchallList(t)},
		{
			name: "not enrolled", path: path(toyKey), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enrollment not found"}),
		},
		{
			name: "enroll in hidden course", method: http.MethodPost, path: path(hiddenKey), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "invalid mode", method: http.MethodPost, path: path(toyKey), token: token,
			body:     marchallObj(t, enrollment.Request{Mode: "lol"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unenroll when not enrolled", method: http.MethodDelete, path: path(toyKey), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enrollment not found"}),
		},
	})

	t.Run("enroll", func(t *testing.T) {
		mailSvc.Reset()

		req, rec := newAuthRequest(http.MethodPost, path(toyKey), token)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var e enrollment.Enrollment
		decode(t, rec, &e)
		assert.Equal(t, toy.Key, e.CourseKey)
		assert.Equal(t, enrollment.DefaultMode, e.Mode)
		assert.True(t, e.IsActive)

		sent := mailSvc.SentMessages()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, honor.Email, sent[0].To[0].Address)
			assert.True(t, strings.Contains(sent[0].TextContent, toy.DisplayName))
		}
	})

	t.Run("enroll again sends no email", func(t *testing.T) {
		mailSvc.Reset()

		req, rec := newAuthRequest(http.MethodPost, path(toyKey), token)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		assert.Empty(t, mailSvc.SentMessages())
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/enrollment/v1/enrollments", token)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var enrollments []enrollment.Enrollment
		decode(t, rec, &enrollments)
		if assert.Len(t, enrollments, 1) {
			assert.Equal(t, toy.Key, enrollments[0].CourseKey)
		}
	})

	t.Run("unenroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path(toyKey), token)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var e enrollment.Enrollment
		decode(t, rec, &e)
		assert.False(t, e.IsActive)
	})

	t.Run("enroll prompt shown again", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/courses/v1/info/"+toyKey, token)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var info struct {
			ShowEnrollPrompt bool `json:"show_enroll_prompt"`
		}
		decode(t, rec, &info)
		assert.True(t, info.ShowEnrollPrompt)
	})
}
