package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/configmodel"
)

const (
	metaColumns = `id, change_date, changed_by_id, enabled`

	programsColumns = metaColumns + `, api_version_number, internal_service_url, public_service_url,
		authoring_app_js_path, authoring_app_css_path, enable_student_dashboard, enable_studio_tab`
	certificateHTMLViewColumns = metaColumns + `, configuration`
	linkedInColumns            = metaColumns + `, company_identifier, dashboard_tracking_code, trk_partner_name`
	selfPacedColumns           = metaColumns + `, enable_course_home_improvements`
)

type metaRow struct {
	ID          int         `db:"id"`
	ChangeDate  time.Time   `db:"change_date"`
	ChangedByID null.String `db:"changed_by_id"`
	Enabled     bool        `db:"enabled"`
}

func (r metaRow) meta() configmodel.Meta {
	return configmodel.Meta{ID: r.ID, ChangeDate: r.ChangeDate.UTC(), ChangedByID: r.ChangedByID, Enabled: r.Enabled}
}

func toMetaRow(m configmodel.Meta) metaRow {
	return metaRow{ChangeDate: m.ChangeDate.UTC(), ChangedByID: m.ChangedByID, Enabled: m.Enabled}
}

type (
	programsRow struct {
		metaRow
		APIVersionNumber       int         `db:"api_version_number"`
		InternalServiceURL     string      `db:"internal_service_url"`
		PublicServiceURL       string      `db:"public_service_url"`
		AuthoringAppJSPath     null.String `db:"authoring_app_js_path"`
		AuthoringAppCSSPath    null.String `db:"authoring_app_css_path"`
		EnableStudentDashboard bool        `db:"enable_student_dashboard"`
		EnableStudioTab        bool        `db:"enable_studio_tab"`
	}

	certificateHTMLViewRow struct {
		metaRow
		Configuration string `db:"configuration"`
	}

	linkedInRow struct {
		metaRow
		CompanyIdentifier     string `db:"company_identifier"`
		DashboardTrackingCode string `db:"dashboard_tracking_code"`
		TrkPartnerName        string `db:"trk_partner_name"`
	}

	selfPacedRow struct {
		metaRow
		EnableCourseHomeImprovements bool `db:"enable_course_home_improvements"`
	}
)

type configRepository struct {
	exec core.DBExecutor
}

var _ configmodel.Repository = (*configRepository)(nil) // interface compliance check

func NewConfigRepository(exec core.DBExecutor) *configRepository {
	return &configRepository{exec: exec}
}

// current loads the latest row of table into dest; it reports false when the table is empty.
func (repo configRepository) current(ctx context.Context, dest interface{}, table, columns string) (bool, error) {
	q := `SELECT ` + columns + ` FROM ` + table + ` ORDER BY id DESC LIMIT 1`
	if err := repo.exec.GetContext(ctx, dest, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrapf(err, "loading current %s", table)
	}
	return true, nil
}

// add inserts a row & returns its id.
func (repo configRepository) add(ctx context.Context, row interface{}, table, columns, values string) (int, error) {
	q, args, err := repo.exec.BindNamed(`INSERT INTO `+table+` (`+columns+`) VALUES (`+values+`) RETURNING id`, row)
	if err != nil {
		return 0, errors.Wrapf(err, "binding %s", table)
	}
	var id int
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "inserting %s", table)
	}
	return id, nil
}

func (repo configRepository) CurrentProgramsConfig(ctx context.Context) (configmodel.ProgramsAPIConfig, error) {
	var row programsRow
	found, err := repo.current(ctx, &row, "programs_api_config", programsColumns)
	if err != nil || !found {
		return configmodel.ProgramsAPIConfig{}, err
	}
	return configmodel.ProgramsAPIConfig{
		Meta:                   row.meta(),
		APIVersionNumber:       row.APIVersionNumber,
		InternalServiceURL:     row.InternalServiceURL,
		PublicServiceURL:       row.PublicServiceURL,
		AuthoringAppJSPath:     row.AuthoringAppJSPath,
		AuthoringAppCSSPath:    row.AuthoringAppCSSPath,
		EnableStudentDashboard: row.EnableStudentDashboard,
		EnableStudioTab:        row.EnableStudioTab,
	}, nil
}

func (repo configRepository) AddProgramsConfig(ctx context.Context, cfg configmodel.ProgramsAPIConfig) (configmodel.ProgramsAPIConfig, error) {
	row := programsRow{
		metaRow:                toMetaRow(cfg.Meta),
		APIVersionNumber:       cfg.APIVersionNumber,
		InternalServiceURL:     cfg.InternalServiceURL,
		PublicServiceURL:       cfg.PublicServiceURL,
		AuthoringAppJSPath:     cfg.AuthoringAppJSPath,
		AuthoringAppCSSPath:    cfg.AuthoringAppCSSPath,
		EnableStudentDashboard: cfg.EnableStudentDashboard,
		EnableStudioTab:        cfg.EnableStudioTab,
	}
	id, err := repo.add(ctx, row, "programs_api_config",
		`change_date, changed_by_id, enabled, api_version_number, internal_service_url, public_service_url,
			authoring_app_js_path, authoring_app_css_path, enable_student_dashboard, enable_studio_tab`,
		`:change_date, :changed_by_id, :enabled, :api_version_number, :internal_service_url, :public_service_url,
			:authoring_app_js_path, :authoring_app_css_path, :enable_student_dashboard, :enable_studio_tab`)
	if err != nil {
		return configmodel.ProgramsAPIConfig{}, err
	}
	cfg.ID = id
	return cfg, nil
}

func (repo configRepository) CurrentCertificateHTMLViewConfig(ctx context.Context) (configmodel.CertificateHTMLViewConfig, error) {
	var row certificateHTMLViewRow
	found, err := repo.current(ctx, &row, "certificate_html_view_config", certificateHTMLViewColumns)
	if err != nil || !found {
		return configmodel.CertificateHTMLViewConfig{}, err
	}
	return configmodel.CertificateHTMLViewConfig{Meta: row.meta(), Configuration: row.Configuration}, nil
}

func (repo configRepository) AddCertificateHTMLViewConfig(ctx context.Context, cfg configmodel.CertificateHTMLViewConfig) (configmodel.CertificateHTMLViewConfig, error) {
	row := certificateHTMLViewRow{metaRow: toMetaRow(cfg.Meta), Configuration: cfg.Configuration}
	id, err := repo.add(ctx, row, "certificate_html_view_config",
		`change_date, changed_by_id, enabled, configuration`,
		`:change_date, :changed_by_id, :enabled, :configuration`)
	if err != nil {
		return configmodel.CertificateHTMLViewConfig{}, err
	}
	cfg.ID = id
	return cfg, nil
}

func (repo configRepository) CurrentLinkedInConfig(ctx context.Context) (configmodel.LinkedInConfig, error) {
	var row linkedInRow
	found, err := repo.current(ctx, &row, "linkedin_config", linkedInColumns)
	if err != nil || !found {
		return configmodel.LinkedInConfig{}, err
	}
	return configmodel.LinkedInConfig{
		Meta:                  row.meta(),
		CompanyIdentifier:     row.CompanyIdentifier,
		DashboardTrackingCode: row.DashboardTrackingCode,
		TrkPartnerName:        row.TrkPartnerName,
	}, nil
}

func (repo configRepository) AddLinkedInConfig(ctx context.Context, cfg configmodel.LinkedInConfig) (configmodel.LinkedInConfig, error) {
	row := linkedInRow{
		metaRow:               toMetaRow(cfg.Meta),
		CompanyIdentifier:     cfg.CompanyIdentifier,
		DashboardTrackingCode: cfg.DashboardTrackingCode,
		TrkPartnerName:        cfg.TrkPartnerName,
	}
	id, err := repo.add(ctx, row, "linkedin_config",
		`change_date, changed_by_id, enabled, company_identifier, dashboard_tracking_code, trk_partner_name`,
		`:change_date, :changed_by_id, :enabled, :company_identifier, :dashboard_tracking_code, :trk_partner_name`)
	if err != nil {
		return configmodel.LinkedInConfig{}, err
	}
	cfg.ID = id
	return cfg, nil
}

func (repo configRepository) CurrentSelfPacedConfig(ctx context.Context) (configmodel.SelfPacedConfig, error) {
	var row selfPacedRow
	found, err := repo.current(ctx, &row, "self_paced_config", selfPacedColumns)
	if err != nil || !found {
		return configmodel.SelfPacedConfig{}, err
	}
	return configmodel.SelfPacedConfig{
		Meta:                         row.meta(),
		EnableCourseHomeImprovements: row.EnableCourseHomeImprovements,
	}, nil
}

func (repo configRepository) AddSelfPacedConfig(ctx context.Context, cfg configmodel.SelfPacedConfig) (configmodel.SelfPacedConfig, error) {
	row := selfPacedRow{metaRow: toMetaRow(cfg.Meta), EnableCourseHomeImprovements: cfg.EnableCourseHomeImprovements}
	id, err := repo.add(ctx, row, "self_paced_config",
		`change_date, changed_by_id, enabled, enable_course_home_improvements`,
		`:change_date, :changed_by_id, :enabled, :enable_course_home_improvements`)
	if err != nil {
		return configmodel.SelfPacedConfig{}, err
	}
	cfg.ID = id
	return cfg, nil
}
