package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/testutil"
)

func Test_certificateApi(t *testing.T) {
	resetDB(t)

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.cd", "", false, true)
	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))

	staffToken := getToken(t, staff)
	honorToken := getToken(t, honor)
	issuePath := "/api/certificates/v1/certificates"
	viewPath := func(uname string) string { return "/api/certificates/v1/certificates/" + uname + "/courses/" + toyKey }

	runHTTPTests(t, []httpTest{
		{
			name: "issue: staff required", method: http.MethodPost, path: issuePath, token: honorToken,
			body:     marchallObj(t, certificate.NewCertificate{Username: "honor", CourseKey: toyKey, Mode: "honor", Status: "downloadable"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "issue: invalid", method: http.MethodPost, path: issuePath, token: staffToken,
			body:     marchallObj(t, certificate.NewCertificate{Username: "honor", CourseKey: "lol", Mode: "lol", Status: "lol"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "issue: unknown user", method: http.MethodPost, path: issuePath, token: staffToken,
			body:     marchallObj(t, certificate.NewCertificate{Username: "lol", CourseKey: toyKey, Mode: "honor", Status: "downloadable"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "view: no certificate", path: viewPath("honor"), token: honorToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "certificate not found"}),
		},
	})

	t.Run("issue", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, issuePath, staffToken, marchallObj(t, certificate.NewCertificate{
			Username: "HONOR", CourseKey: toyKey, Grade: "0.9", Mode: certificate.ModeHonor, Status: certificate.StatusDownloadable,
		}))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var cert certificate.Certificate
		decode(t, rec, &cert)
		assert.Len(t, cert.VerifyUUID, 32)
		assert.Len(t, cert.DownloadUUID, 32)
		assert.Equal(t, honor.Name, cert.Name)
		assert.Equal(t, certificate.StatusDownloadable, cert.Status)
	})

	cert, err := certRepo.GetCertificate(context.Background(), honor.ID, toy.Key)
	if err != nil {
		t.Fatalf("GetCertificate(): %v", err)
	}
	certURL := conf.LMSBaseURL + "/certificates/" + cert.VerifyUUID

	t.Run("view", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, viewPath("honor"), honorToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, certificate.View{
				Username:       honor.Username,
				Certificate:    cert,
				CourseName:     toy.DisplayName,
				CertificateURL: certURL,
				HTMLContext:    map[string]interface{}{},
			}),
		}, rec)
	})

	runHTTPTests(t, []httpTest{
		{
			name: "view: other user", path: viewPath("honor"), token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "view: staff", path: viewPath("honor"), token: staffToken},
	})

	t.Run("view with linkedin button", func(t *testing.T) {
		cfg := configmodel.LinkedInConfig{CompanyIdentifier: "0_mC_o2MizqdtZEmkVXjH4eYwMj4DnkCWrZP_D9", TrkPartnerName: "edx"}
		cfg.Enabled = true
		req, rec := newAuthRequest(http.MethodPost, "/api/config/v1/linkedin", staffToken, marchallObj(t, cfg))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)

		req, rec = newAuthRequest(http.MethodGet, viewPath("honor"), honorToken)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var view certificate.View
		decode(t, rec, &view)
		u, err := url.Parse(view.LinkedInURL)
		if assert.NoError(t, err) {
			q := u.Query()
			assert.Equal(t, "www.linkedin.com", u.Host)
			assert.Equal(t, cfg.CompanyIdentifier, q.Get("_ed"))
			assert.Equal(t, "Lumen Honor Code Certificate for Toy Course", q.Get("pfCertificationName"))
			assert.Equal(t, certURL, q.Get("pfCertificationUrl"))
			assert.Equal(t, "o", q.Get("source"))
			assert.Equal(t, "edx-edX/toy/2012_Fall-honor-certificate", q.Get("trk"))
		}
	})
}

func Test_certificateApi_whitelist(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	staff := testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "", true, true)
	honor := testutil.CreateUser(t, usrRepo, "Honor", "honor", "honor@test.cd", "", false, true)
	toy := testutil.CreateCourse(t, courseStore, toyKey, "Toy Course", testutil.StartingAt(pastStart))

	staffToken := getToken(t, staff)

	runHTTPTests(t, []httpTest{
		{
			name: "staff required", method: http.MethodPost, path: "/api/certificates/v1/whitelist", token: getToken(t, honor),
			body:     marchallObj(t, certificate.NewWhitelist{Username: "honor", CourseKey: toyKey}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/api/certificates/v1/whitelist", token: staffToken,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "course_id": "this field is required"}),
		},
		{
			name: "whitelisted", method: http.MethodPost, path: "/api/certificates/v1/whitelist", token: staffToken,
			body: marchallObj(t, certificate.NewWhitelist{Username: "honor", CourseKey: toyKey, Notes: "good"}),
		},
	})

	// whitelisted users pass regardless of their grade
	req, rec := newAuthRequest(http.MethodPost, "/api/certificates/v1/certificates", staffToken, marchallObj(t, certificate.NewCertificate{
		Username: "honor", CourseKey: toyKey, Grade: "0.1", Mode: certificate.ModeHonor, Status: certificate.StatusNotPassing,
	}))
	app.ServeHTTP(rec, req)
	checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

	cert, err := certRepo.GetCertificate(ctx, honor.ID, course.MustParseKey(toyKey))
	if assert.NoError(t, err) {
		assert.Equal(t, certificate.StatusDownloadable, cert.Status)
		assert.Equal(t, toy.Key, cert.CourseKey)
	}
}
