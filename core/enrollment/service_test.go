package enrollment_test

import (
	"context"
	"io/ioutil"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/core/user"
	emailsvc "github.com/trezcool/lumen/services/email"
	logsvc "github.com/trezcool/lumen/services/logger"
	memdbrepos "github.com/trezcool/lumen/storage/database/memdb"
	"github.com/trezcool/lumen/testutil"
)

type fixture struct {
	svc     *enrollment.Service
	mailSvc *emailsvc.ConsoleService
	conf    *core.Config
	student user.User
	staff   user.User
	toy     course.Course
	hidden  course.Course
}

func setup(t *testing.T) fixture {
	db := memdbrepos.MustOpen()
	usrRepo := memdbrepos.NewUserRepository(db)
	courseStore := memdbrepos.NewCourseStore(db)

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	return fixture{
		svc:     enrollment.NewService(memdbrepos.NewEnrollmentRepository(db), courseStore, mailSvc, conf),
		mailSvc: mailSvc,
		conf:    conf,
		student: testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "pwd", false, true),
		staff:   testutil.CreateUser(t, usrRepo, "Staff", "staff", "staff@test.cd", "pwd", true, true),
		toy:     testutil.CreateCourse(t, courseStore, "edX/toy/2012_Fall", "Toy"),
		hidden:  testutil.CreateCourse(t, courseStore, "course-v1:edX+hidden+2012_Fall", "Hidden", testutil.StaffOnly()),
	}
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		usr     user.User
		key     course.Key
		mode    string
		wantErr error
	}{
		{name: "anonymous", usr: user.Anonymous(), key: f.toy.Key, wantErr: enrollment.ErrAnonymous},
		{name: "unknown course", usr: f.student, key: course.MustParseKey("edX/nope/2012"), wantErr: course.ErrNotFound},
		{name: "hidden course: student", usr: f.student, key: f.hidden.Key, wantErr: course.ErrNotFound},
		{name: "hidden course: staff", usr: f.staff, key: f.hidden.Key, mode: enrollment.ModeAudit},
		{name: "default mode", usr: f.student, key: f.toy.Key},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := f.svc.Enroll(ctx, tt.usr, tt.key, tt.mode)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.usr.ID, e.UserID)
			assert.Equal(t, tt.key, e.CourseKey)
			assert.True(t, e.IsActive)
			if tt.mode == "" {
				assert.Equal(t, enrollment.DefaultMode, e.Mode)
			} else {
				assert.Equal(t, tt.mode, e.Mode)
			}
		})
	}
}

func TestService_lifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enrolled, err := f.svc.IsEnrolled(ctx, f.student, f.toy.Key)
	assert.NoError(t, err)
	assert.False(t, enrolled)

	e, err := f.svc.Enroll(ctx, f.student, f.toy.Key, "")
	if !assert.NoError(t, err) {
		return
	}
	created := e.CreatedAt
	if sent := f.mailSvc.SentMessages(); assert.Len(t, sent, 1) {
		assert.Equal(t, f.student.Email, sent[0].To[0].Address)
		assert.Equal(t, "You have enrolled in Toy", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "You have enrolled in Toy ("+f.toy.Key.String()+").")
		assert.Contains(t, sent[0].HTMLContent, "<strong>Toy</strong>")
	}

	enrolled, err = f.svc.IsEnrolled(ctx, f.student, f.toy.Key)
	assert.NoError(t, err)
	assert.True(t, enrolled)

	f.mailSvc.Reset()
	e, err = f.svc.Enroll(ctx, f.student, f.toy.Key, enrollment.ModeVerified)
	if assert.NoError(t, err) {
		assert.Equal(t, enrollment.ModeVerified, e.Mode)
		assert.Equal(t, created, e.CreatedAt)
	}
	assert.Empty(t, f.mailSvc.SentMessages(), "mode change on an active enrollment")

	e, err = f.svc.Unenroll(ctx, f.student, f.toy.Key)
	if assert.NoError(t, err) {
		assert.False(t, e.IsActive)
	}
	enrolled, err = f.svc.IsEnrolled(ctx, f.student, f.toy.Key)
	assert.NoError(t, err)
	assert.False(t, enrolled)

	enrollments, err := f.svc.Query(ctx, f.student)
	if assert.NoError(t, err) && assert.Len(t, enrollments, 1) {
		assert.False(t, enrollments[0].IsActive, "unenrolling keeps the record")
	}

	f.conf.Features.SendEnrollmentEmails = false
	e, err = f.svc.Enroll(ctx, f.student, f.toy.Key, "")
	if assert.NoError(t, err) {
		assert.True(t, e.IsActive)
		assert.Equal(t, enrollment.DefaultMode, e.Mode)
	}
	assert.Empty(t, f.mailSvc.SentMessages(), "enrollment emails disabled")
}

func TestService_anonymous(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	anon := user.Anonymous()

	enrolled, err := f.svc.IsEnrolled(ctx, anon, f.toy.Key)
	assert.NoError(t, err)
	assert.False(t, enrolled)

	_, err = f.svc.Get(ctx, anon, f.toy.Key)
	assert.Equal(t, enrollment.ErrNotFound, err)

	_, err = f.svc.Unenroll(ctx, anon, f.toy.Key)
	assert.Equal(t, enrollment.ErrNotFound, err)

	enrollments, err := f.svc.Query(ctx, anon)
	assert.NoError(t, err)
	assert.Empty(t, enrollments)
}

func TestService_Unenroll_notEnrolled(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Unenroll(context.Background(), f.student, f.toy.Key)
	assert.Equal(t, enrollment.ErrNotFound, errors.Cause(err))
}
