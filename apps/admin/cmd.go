package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errNoSQLDB  = errors.New("migrations require the postgres database engine")
	errBadStart = errors.New("start must be an RFC 3339 timestamp")
)

type commandLine struct {
	db        *sql.DB // nil with the memory engine
	usrRepo   user.Repository
	courseSvc course.ServiceInterface
	validate  *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-staff] - create or update a user")
	fmt.Println("  addcourse -id COURSE_ID -name NAME [-start RFC3339] [-staffonly] [-selfpaced] - create or replace a course")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserStaff := addUserCmd.Bool("staff", false, "Grant staff access.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ExitOnError)
	addCourseID := addCourseCmd.String("id", "", "The course key, e.g. course-v1:edX+DemoX+2014.")
	addCourseName := addCourseCmd.String("name", "", "The course display name.")
	addCourseStart := addCourseCmd.String("start", "", "The course start (RFC 3339).")
	addCourseStaffOnly := addCourseCmd.Bool("staffonly", false, "Make the course visible to staff only.")
	addCourseSelfPaced := addCourseCmd.Bool("selfpaced", false, "Make the course self-paced.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserStaff)

	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseID == "" || *addCourseName == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		nc := course.NewCourse{
			Key:                *addCourseID,
			DisplayName:        *addCourseName,
			VisibleToStaffOnly: *addCourseStaffOnly,
			SelfPaced:          *addCourseSelfPaced,
		}
		if *addCourseStart != "" {
			start, err := time.Parse(time.RFC3339, *addCourseStart)
			if err != nil {
				return errBadStart
			}
			nc.Start = &start
		}
		return cli.addCourse(nc)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}
