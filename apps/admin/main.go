package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
	logsvc "github.com/trezcool/lumen/services/logger"
	"github.com/trezcool/lumen/storage/database"
	memdbrepos "github.com/trezcool/lumen/storage/database/memdb"
	sqlxrepos "github.com/trezcool/lumen/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	cli := commandLine{validate: validate}

	// set up DB
	if conf.Database.IsMemory() {
		db, err := memdbrepos.Open()
		errAndDie(err)
		cli.usrRepo = memdbrepos.NewUserRepository(db)
		cli.courseSvc = course.NewService(memdbrepos.NewCourseStore(db), user.NewService(cli.usrRepo))
	} else {
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()
		cli.db = db.DB
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
		cli.courseSvc = course.NewService(sqlxrepos.NewCourseStore(db), user.NewService(cli.usrRepo))
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
