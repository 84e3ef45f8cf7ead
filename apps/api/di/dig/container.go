package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/lumen/apps/api/echo"
	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/core/user"
	emailsvc "github.com/trezcool/lumen/services/email"
	logsvc "github.com/trezcool/lumen/services/logger"
	"github.com/trezcool/lumen/storage/database"
	memdbrepos "github.com/trezcool/lumen/storage/database/memdb"
	sqlxrepos "github.com/trezcool/lumen/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are the storage backends of the services, all on the same database.
	Repositories struct {
		dig.Out

		DB           io.Closer
		Users        user.Repository
		Courses      course.Store
		Enrollments  enrollment.Repository
		CourseInfo   courseinfo.Repository
		Configs      configmodel.Repository
		Certificates certificate.Repository
	}

	closerFunc func() error
)

func (f closerFunc) Close() error { return f() }

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newMemoryRepositories() (Repositories, error) {
	db, err := memdbrepos.Open()
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{
		DB:           closerFunc(func() error { return nil }),
		Users:        memdbrepos.NewUserRepository(db),
		Courses:      memdbrepos.NewCourseStore(db),
		Enrollments:  memdbrepos.NewEnrollmentRepository(db),
		CourseInfo:   memdbrepos.NewCourseInfoRepository(db),
		Configs:      memdbrepos.NewConfigRepository(db),
		Certificates: memdbrepos.NewCertificateRepository(db),
	}, nil
}

func newPostgresRepositories(conf *core.Config) (Repositories, error) {
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		return Repositories{}, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, err
	}
	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return Repositories{}, err
	}

	return Repositories{
		DB:           db,
		Users:        sqlxrepos.NewUserRepository(db),
		Courses:      sqlxrepos.NewCourseStore(db),
		Enrollments:  sqlxrepos.NewEnrollmentRepository(db),
		CourseInfo:   sqlxrepos.NewCourseInfoRepository(db),
		Configs:      sqlxrepos.NewConfigRepository(db),
		Certificates: sqlxrepos.NewCertificateRepository(db),
	}, nil
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	var (
		repos Repositories
		err   error
	)
	if conf.Database.IsMemory() {
		repos, err = newMemoryRepositories()
	} else {
		repos, err = newPostgresRepositories(conf)
	}
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newConfigCache(conf *core.Config, repo configmodel.Repository) *configmodel.Cache {
	return configmodel.NewCache(repo, conf.ConfigCacheTTL)
}

func newConfigSource(cache *configmodel.Cache) configmodel.Source { return cache }

func newUserGetter(svc user.ServiceInterface) access.UserGetter { return svc }

func newEnrollmentChecker(svc enrollment.ServiceInterface) courseinfo.EnrollmentChecker { return svc }

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newConfigCache))
	must(c.Provide(newConfigSource))
	must(c.Provide(newUserGetter))
	must(c.Provide(newEnrollmentChecker))
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(course.NewService, dig.As(new(course.ServiceInterface))))
	must(c.Provide(enrollment.NewService, dig.As(new(enrollment.ServiceInterface))))
	must(c.Provide(courseinfo.NewService, dig.As(new(courseinfo.ServiceInterface))))
	must(c.Provide(certificate.NewService, dig.As(new(certificate.ServiceInterface))))
	must(c.Provide(configmodel.NewService, dig.As(new(configmodel.ServiceInterface))))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
