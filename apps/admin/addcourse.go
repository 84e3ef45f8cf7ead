package main

import (
	"context"

	"github.com/trezcool/lumen/core/course"
)

// addCourse creates or replaces a course.Course
func (cli *commandLine) addCourse(nc course.NewCourse) error {
	ctx := context.Background()
	if err := nc.Validate(ctx, cli.validate); err != nil {
		return err
	}
	_, err := cli.courseSvc.Save(ctx, nc)
	return err
}
