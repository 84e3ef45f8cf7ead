package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
)

const (
	StartTypeTimestamp = "timestamp"
	StartTypeString    = "string"
	StartTypeEmpty     = "empty"

	startDisplayLayout = "January 2, 2006"
)

// Course is a read-only view of a course as stored by the content store.
type Course struct {
	Key                Key         `json:"course_id"`
	DisplayName        string      `json:"name"`
	Description        string      `json:"description"`
	CourseImage        string      `json:"course_image"` // asset name
	Start              null.Time   `json:"start"`
	AdvertisedStart    null.String `json:"advertised_start"`
	End                null.Time   `json:"end"`
	EnrollmentStart    null.Time   `json:"enrollment_start"`
	EnrollmentEnd      null.Time   `json:"enrollment_end"`
	VisibleToStaffOnly bool        `json:"visible_to_staff_only"`
	SelfPaced          bool        `json:"self_paced"`
	CreatedAt          time.Time   `json:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"updated_at"` // UTC
}

func (c Course) Org() string    { return c.Key.Org }
func (c Course) Number() string { return c.Key.Course }

// StaffOnly implements access.Restricted.
func (c Course) StaffOnly() bool { return c.VisibleToStaffOnly }

// HasStarted reports whether the course start date is unset or in the past.
func (c Course) HasStarted(now time.Time) bool {
	return !c.Start.Valid || !now.Before(c.Start.Time)
}

// StartType tells how the course start should be displayed.
func (c Course) StartType() string {
	switch {
	case c.AdvertisedStart.Valid && c.AdvertisedStart.String != "":
		return StartTypeString
	case c.Start.Valid:
		return StartTypeTimestamp
	default:
		return StartTypeEmpty
	}
}

// StartDisplay returns the human readable start of the course; empty when unknown.
func (c Course) StartDisplay() null.String {
	switch c.StartType() {
	case StartTypeString:
		return c.AdvertisedStart
	case StartTypeTimestamp:
		return null.StringFrom(c.Start.Time.UTC().Format(startDisplayLayout))
	default:
		return null.String{}
	}
}

type (
	// Overview is the resource representation of a Course.
	Overview struct {
		CourseID        string      `json:"course_id"`
		Name            string      `json:"name"`
		Number          string      `json:"number"`
		Org             string      `json:"org"`
		Description     string      `json:"description"`
		Media           Media       `json:"media"`
		Start           null.Time   `json:"start"`
		StartType       string      `json:"start_type"`
		StartDisplay    null.String `json:"start_display"`
		End             null.Time   `json:"end"`
		EnrollmentStart null.Time   `json:"enrollment_start"`
		EnrollmentEnd   null.Time   `json:"enrollment_end"`
		BlocksURL       string      `json:"blocks_url"`
	}

	Media struct {
		CourseImage MediaItem `json:"course_image"`
	}

	MediaItem struct {
		URI string `json:"uri"`
	}
)

func utc(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(t.Time.UTC())
}

// NewOverview serializes a Course.
func NewOverview(c Course) Overview {
	return Overview{
		CourseID:        c.Key.String(),
		Name:            c.DisplayName,
		Number:          c.Number(),
		Org:             c.Org(),
		Description:     c.Description,
		Media:           Media{CourseImage: MediaItem{URI: c.Key.AssetURL(c.CourseImage)}},
		Start:           utc(c.Start),
		StartType:       c.StartType(),
		StartDisplay:    c.StartDisplay(),
		End:             utc(c.End),
		EnrollmentStart: utc(c.EnrollmentStart),
		EnrollmentEnd:   utc(c.EnrollmentEnd),
		BlocksURL:       c.Key.BlocksURL(),
	}
}

func NewOverviews(courses []Course) []Overview {
	overviews := make([]Overview, 0, len(courses))
	for _, c := range courses {
		overviews = append(overviews, NewOverview(c))
	}
	return overviews
}

// NewCourse contains information needed to create or replace a Course.
type NewCourse struct {
	Key                string     `json:"course_id" validate:"required,coursekey"`
	DisplayName        string     `json:"name" validate:"required,notblank"`
	Description        string     `json:"description"`
	CourseImage        string     `json:"course_image"`
	Start              *time.Time `json:"start"`
	AdvertisedStart    string     `json:"advertised_start"`
	End                *time.Time `json:"end" validate:"omitempty,gtfield=Start"`
	EnrollmentStart    *time.Time `json:"enrollment_start"`
	EnrollmentEnd      *time.Time `json:"enrollment_end" validate:"omitempty,gtfield=EnrollmentStart"`
	VisibleToStaffOnly bool       `json:"visible_to_staff_only"`
	SelfPaced          bool       `json:"self_paced"`
}

func (nc *NewCourse) Validate(_ context.Context, validate *validator.Validate) error {
	nc.Key = core.CleanString(nc.Key)
	nc.DisplayName = core.CleanString(nc.DisplayName)
	nc.AdvertisedStart = core.CleanString(nc.AdvertisedStart)
	return validate.Struct(nc)
}

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

// Course builds the Course described by nc. nc must have been validated.
func (nc NewCourse) Course() Course {
	now := time.Now().UTC()
	return Course{
		Key:                MustParseKey(nc.Key),
		DisplayName:        nc.DisplayName,
		Description:        nc.Description,
		CourseImage:        nc.CourseImage,
		Start:              nullTime(nc.Start),
		AdvertisedStart:    null.NewString(nc.AdvertisedStart, nc.AdvertisedStart != ""),
		End:                nullTime(nc.End),
		EnrollmentStart:    nullTime(nc.EnrollmentStart),
		EnrollmentEnd:      nullTime(nc.EnrollmentEnd),
		VisibleToStaffOnly: nc.VisibleToStaffOnly,
		SelfPaced:          nc.SelfPaced,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
