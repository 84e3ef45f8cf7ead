package enrollment

import (
	"time"

	"github.com/trezcool/lumen/core/course"
)

// Modes
const (
	ModeAudit            = "audit"
	ModeHonor            = "honor"
	ModeVerified         = "verified"
	ModeProfessional     = "professional"
	ModeNoIDProfessional = "no-id-professional"
	DefaultMode          = ModeHonor
)

var Modes = []string{ModeAudit, ModeHonor, ModeVerified, ModeProfessional, ModeNoIDProfessional}

// Enrollment links a user to a course. Unenrolling deactivates it, the record is kept.
type Enrollment struct {
	UserID    string     `json:"user_id"`
	CourseKey course.Key `json:"course_id"`
	Mode      string     `json:"mode"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// Request is the payload of an enroll action.
type Request struct {
	Mode string `json:"mode" validate:"omitempty,oneof=audit honor verified professional no-id-professional"`
}
