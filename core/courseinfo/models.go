package courseinfo

import (
	"fmt"
	"time"

	"github.com/trezcool/lumen/core/course"
)

const (
	StatusVisible = "visible"
	StatusDeleted = "deleted"

	// UpdateDateLayout is the layout of Update dates, e.g. "January 2, 2006".
	UpdateDateLayout = "January 2, 2006"
	notLiveLayout    = "Jan 02, 2006"
)

type (
	// Update is an entry of the course updates handout.
	Update struct {
		ID      int    `json:"id"`
		Date    string `json:"date"`
		Content string `json:"content"`
		Status  string `json:"status"`
	}

	// Position is the last section of a course visited by a user.
	Position struct {
		UserID    string     `json:"-"`
		CourseKey course.Key `json:"course_id"`
		Chapter   string     `json:"chapter" validate:"required,notblank"`
		Section   string     `json:"section" validate:"required,notblank"`
		UpdatedAt time.Time  `json:"updated_at"` // UTC
	}

	// Info is what the course info page shows to a viewer.
	Info struct {
		Course           course.Overview `json:"course"`
		Updates          []Update        `json:"updates"`
		ShowEnrollPrompt bool            `json:"show_enroll_prompt"`
		LastAccessedURL  string          `json:"last_accessed_url,omitempty"`
	}
)

// Time parses the Update date; the zero time is returned when it is not a date.
func (u Update) Time() time.Time {
	t, err := time.Parse(UpdateDateLayout, u.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// URL is the courseware URL of the position.
func (p Position) URL() string {
	return fmt.Sprintf("/courses/%s/courseware/%s/%s/", p.CourseKey, p.Chapter, p.Section)
}

// NotLiveError is returned when a course has not started yet.
type NotLiveError struct {
	Start time.Time
}

func (e *NotLiveError) Error() string {
	return "course has not started yet: starts on " + e.StartDisplay()
}

// StartDisplay is the start date as shown on the dashboard notice.
func (e *NotLiveError) StartDisplay() string {
	return e.Start.UTC().Format(notLiveLayout)
}
