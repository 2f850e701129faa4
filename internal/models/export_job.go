package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFormat enumerates supported export formats. Direct downloads allow
// csv and xlsx; pdf is only produced by background jobs.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is persisted background export metadata.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Format       ExportFormat    `db:"format" json:"format"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportStatus    `db:"status" json:"status"`
	ResultPath   *string         `db:"result_path" json:"-"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    int64           `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores the report criteria persisted as JSONB so a worker
// can re-run the query after a restart.
type ExportJobParams struct {
	Users              []int64       `json:"users,omitempty"`
	Cohorts            []int64       `json:"cohorts,omitempty"`
	OnlyCohortsCourses bool          `json:"only_cohorts_courses,omitempty"`
	Courses            []int64       `json:"courses,omitempty"`
	StartingDate       *time.Time    `json:"starting_date,omitempty"`
	EndingDate         *time.Time    `json:"ending_date,omitempty"`
	SortColumn         SortColumn    `json:"sort_column,omitempty"`
	SortDirection      SortDirection `json:"sort_direction,omitempty"`
}

// Criteria converts the persisted params back into report criteria.
func (p ExportJobParams) Criteria() ReportCriteria {
	return ReportCriteria{
		Users:              p.Users,
		Cohorts:            p.Cohorts,
		OnlyCohortsCourses: p.OnlyCohortsCourses,
		Courses:            p.Courses,
		StartingDate:       p.StartingDate,
		EndingDate:         p.EndingDate,
		SortColumn:         p.SortColumn,
		SortDirection:      p.SortDirection,
	}
}

// JobParams captures criteria for persistence.
func JobParams(criteria ReportCriteria) ExportJobParams {
	return ExportJobParams{
		Users:              criteria.Users,
		Cohorts:            criteria.Cohorts,
		OnlyCohortsCourses: criteria.OnlyCohortsCourses,
		Courses:            criteria.Courses,
		StartingDate:       criteria.StartingDate,
		EndingDate:         criteria.EndingDate,
		SortColumn:         criteria.SortColumn,
		SortDirection:      criteria.SortDirection,
	}
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
