package certificate

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core/course"
)

// Statuses of a Certificate.
const (
	StatusDeleted         = "deleted"
	StatusDeleting        = "deleting"
	StatusDownloadable    = "downloadable"
	StatusError           = "error"
	StatusGenerating      = "generating"
	StatusNotPassing      = "notpassing"
	StatusRegenerating    = "regenerating"
	StatusRestricted      = "restricted"
	StatusUnavailable     = "unavailable"
	StatusAuditing        = "auditing"
	StatusAuditPassing    = "audit_passing"
	StatusAuditNotPassing = "audit_notpassing"
)

// Modes of a Certificate.
const (
	ModeVerified         = "verified"
	ModeHonor            = "honor"
	ModeAudit            = "audit"
	ModeProfessional     = "professional"
	ModeNoIDProfessional = "no-id-professional"
)

var Statuses = []string{
	StatusDeleted, StatusDeleting, StatusDownloadable, StatusError, StatusGenerating, StatusNotPassing,
	StatusRegenerating, StatusRestricted, StatusUnavailable, StatusAuditing, StatusAuditPassing, StatusAuditNotPassing,
}

type (
	// Certificate is the certificate generated for a user in a course.
	Certificate struct {
		ID           int        `json:"-"`
		UserID       string     `json:"-"`
		CourseKey    course.Key `json:"course_id"`
		VerifyUUID   string     `json:"verify_uuid"`
		DownloadUUID string     `json:"download_uuid"`
		DownloadURL  string     `json:"download_url"`
		Grade        string     `json:"grade"`
		Mode         string     `json:"mode"`
		Status       string     `json:"status"`
		Name         string     `json:"name"`
		ErrorReason  string     `json:"error_reason"`
		CreatedAt    time.Time  `json:"created_date"`  // UTC
		ModifiedAt   time.Time  `json:"modified_date"` // UTC
	}

	// Whitelist grants a certificate to a user regardless of their grade.
	Whitelist struct {
		ID        int         `json:"id"`
		UserID    string      `json:"user_id"`
		CourseKey course.Key  `json:"course_id"`
		Whitelist bool        `json:"whitelist"`
		Notes     null.String `json:"notes"`
		CreatedAt time.Time   `json:"created"` // UTC
	}

	// NewWhitelist contains information needed to whitelist a user.
	NewWhitelist struct {
		Username  string `json:"username" validate:"required,notblank"`
		CourseKey string `json:"course_id" validate:"required,coursekey"`
		Whitelist *bool  `json:"whitelist"`
		Notes     string `json:"notes"`
	}

	// NewCertificate contains information needed to issue a certificate.
	NewCertificate struct {
		Username  string `json:"username" validate:"required,notblank"`
		CourseKey string `json:"course_id" validate:"required,coursekey"`
		Grade     string `json:"grade"`
		Mode      string `json:"mode" validate:"required,oneof=verified honor audit professional no-id-professional"`
		Status    string `json:"status" validate:"required,oneof=deleted deleting downloadable error generating notpassing regenerating restricted unavailable auditing audit_passing audit_notpassing"`
	}

	// View is the resource representation of a certificate.
	View struct {
		Username       string                 `json:"username"`
		Certificate    Certificate            `json:"certificate"`
		CourseName     string                 `json:"course_name"`
		CertificateURL string                 `json:"certificate_url"`
		HTMLContext    map[string]interface{} `json:"html_context"`
		LinkedInURL    string                 `json:"linkedin_url,omitempty"`
	}
)

func (c Certificate) IsDownloadable() bool { return c.Status == StatusDownloadable }
