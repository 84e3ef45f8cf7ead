// Package configmodel holds the administrator-managed configuration records.
//
// Every record is versioned: saving appends a new row and the latest row is the current one.
package configmodel

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/volatiletech/null/v8"
)

// Meta is shared by all configuration records.
type Meta struct {
	ID          int         `json:"id"`
	ChangeDate  time.Time   `json:"change_date"` // UTC
	ChangedByID null.String `json:"changed_by_id"`
	Enabled     bool        `json:"enabled"`
}

func (m *Meta) setChange(changedByID string, now time.Time) {
	m.ID = 0
	m.ChangeDate = now
	m.ChangedByID = null.NewString(changedByID, changedByID != "")
}

// ProgramsAPIConfig manages the connection to the Programs service & its API.
type ProgramsAPIConfig struct {
	Meta

	APIVersionNumber       int         `json:"api_version_number" validate:"required,min=1"`
	InternalServiceURL     string      `json:"internal_service_url" validate:"required,url"`
	PublicServiceURL       string      `json:"public_service_url" validate:"required,url"`
	AuthoringAppJSPath     null.String `json:"authoring_app_js_path"`
	AuthoringAppCSSPath    null.String `json:"authoring_app_css_path"`
	EnableStudentDashboard bool        `json:"enable_student_dashboard"`
	EnableStudioTab        bool        `json:"enable_studio_tab"`
}

// AuthoringAppConfig locates the Programs authoring app assets.
type AuthoringAppConfig struct {
	JSURL  string `json:"js_url"`
	CSSURL string `json:"css_url"`
}

// urlJoin resolves ref against base the way a browser would. An empty ref yields base.
func urlJoin(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base
	}
	return b.ResolveReference(r).String()
}

func (c ProgramsAPIConfig) apiPath() string {
	return fmt.Sprintf("/api/v%d/", c.APIVersionNumber)
}

// InternalAPIURL is the API root on the internal service URL.
func (c ProgramsAPIConfig) InternalAPIURL() string {
	return urlJoin(c.InternalServiceURL, c.apiPath())
}

// PublicAPIURL is the API root on the public service URL.
func (c ProgramsAPIConfig) PublicAPIURL() string {
	return urlJoin(c.PublicServiceURL, c.apiPath())
}

func (c ProgramsAPIConfig) IsStudentDashboardEnabled() bool {
	return c.Enabled && c.EnableStudentDashboard
}

func (c ProgramsAPIConfig) AuthoringAppConfig() AuthoringAppConfig {
	return AuthoringAppConfig{
		JSURL:  urlJoin(c.PublicServiceURL, c.AuthoringAppJSPath.String),
		CSSURL: urlJoin(c.PublicServiceURL, c.AuthoringAppCSSPath.String),
	}
}

func (c ProgramsAPIConfig) IsStudioTabEnabled() bool {
	return c.Enabled && c.EnableStudioTab &&
		c.AuthoringAppJSPath.String != "" && c.AuthoringAppCSSPath.String != ""
}

// CertificateHTMLViewConfig holds the JSON configuration of the web certificates.
//
// The document has a "default" section, one section per certificate mode
// and a "microsites" section keyed by microsite.
type CertificateHTMLViewConfig struct {
	Meta

	Configuration string `json:"configuration" validate:"required,jsonobject"`
}

// Config returns the parsed configuration; empty when disabled or invalid.
func (c CertificateHTMLViewConfig) Config() map[string]interface{} {
	cfg := make(map[string]interface{})
	if !c.Enabled || c.Configuration == "" {
		return cfg
	}
	if err := json.Unmarshal([]byte(c.Configuration), &cfg); err != nil {
		return make(map[string]interface{})
	}
	return cfg
}

// Context returns the "default" section overridden by the mode section, then by the microsite section.
func (c CertificateHTMLViewConfig) Context(mode, microsite string) map[string]interface{} {
	cfg := c.Config()
	ctx := make(map[string]interface{})
	merge := func(section interface{}) {
		if m, ok := section.(map[string]interface{}); ok {
			for k, v := range m {
				ctx[k] = v
			}
		}
	}

	merge(cfg["default"])
	if mode != "" && mode != "default" && mode != "microsites" {
		merge(cfg[mode])
	}
	if microsite != "" {
		if sites, ok := cfg["microsites"].(map[string]interface{}); ok {
			merge(sites[microsite])
		}
	}
	return ctx
}

// LinkedInConfig configures the "Add to profile" LinkedIn button of certificates.
type LinkedInConfig struct {
	Meta

	CompanyIdentifier     string `json:"company_identifier" validate:"required"`
	DashboardTrackingCode string `json:"dashboard_tracking_code"`
	TrkPartnerName        string `json:"trk_partner_name"`
}

// SelfPacedConfig toggles the course home improvements of self-paced courses.
type SelfPacedConfig struct {
	Meta

	EnableCourseHomeImprovements bool `json:"enable_course_home_improvements"`
}

// Snapshot is the set of current configuration records at some point in time.
type Snapshot struct {
	Programs            ProgramsAPIConfig         `json:"programs"`
	CertificateHTMLView CertificateHTMLViewConfig `json:"certificate_html_view"`
	LinkedIn            LinkedInConfig            `json:"linkedin"`
	SelfPaced           SelfPacedConfig           `json:"self_paced"`
	LoadedAt            time.Time                 `json:"loaded_at"`
}
