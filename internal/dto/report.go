package dto

import (
	"time"

	"github.com/edudata/completion-report-api/internal/models"
)

// QuickReportRequest runs a report without saving a filter. Date bounds are
// optional epoch seconds, both inclusive.
type QuickReportRequest struct {
	Users              []int64              `json:"users"`
	Cohorts            []int64              `json:"cohorts"`
	OnlyCohortsCourses bool                 `json:"only_cohorts_courses"`
	Courses            []int64              `json:"courses"`
	StartingDate       *int64               `json:"starting_date"`
	EndingDate         *int64               `json:"ending_date"`
	SortColumn         models.SortColumn    `json:"sort_column"`
	SortDirection      models.SortDirection `json:"sort_direction"`
}

// Criteria converts the request into report criteria.
func (r QuickReportRequest) Criteria() models.ReportCriteria {
	criteria := models.ReportCriteria{
		Users:              r.Users,
		Cohorts:            r.Cohorts,
		OnlyCohortsCourses: r.OnlyCohortsCourses,
		Courses:            r.Courses,
		SortColumn:         r.SortColumn,
		SortDirection:      r.SortDirection,
	}
	if r.StartingDate != nil {
		start := time.Unix(*r.StartingDate, 0).UTC()
		criteria.StartingDate = &start
	}
	if r.EndingDate != nil {
		end := time.Unix(*r.EndingDate, 0).UTC()
		criteria.EndingDate = &end
	}
	return criteria
}

// ReportResponse pairs the aggregated hierarchy with the metadata columns the
// client needs to render the table.
type ReportResponse struct {
	Students          []*models.StudentReport `json:"students"`
	DisplayedMetadata []models.MetadataField  `json:"displayed_metadata"`
	NumericMetadata   []models.MetadataField  `json:"numeric_metadata"`
	Cohorts           []models.CohortDetail   `json:"cohorts,omitempty"`
}

// ExportJobRequest queues a background export for the given criteria.
type ExportJobRequest struct {
	QuickReportRequest
	Format models.ExportFormat `json:"format"`
}

// ExportJobResponse is the status payload returned for background exports.
type ExportJobResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Format    models.ExportFormat `json:"format"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
