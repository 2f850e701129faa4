package models

import (
	"time"

	"github.com/lib/pq"
)

// SortColumn enumerates the report sort keys.
type SortColumn string

const (
	SortByStudent       SortColumn = "student"
	SortByCompletion    SortColumn = "completion"
	SortByLastCompleted SortColumn = "last_completed"
)

// SortDirection enumerates sort directions.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ReportCriteria is the resolved filter input for one report run. Users and
// cohorts combine with OR; courses restrict both branches.
type ReportCriteria struct {
	Users              []int64
	Cohorts            []int64
	OnlyCohortsCourses bool
	Courses            []int64
	StartingDate       *time.Time
	EndingDate         *time.Time
	SortColumn         SortColumn
	SortDirection      SortDirection
}

// Empty reports whether the criteria select nothing explicitly, which means
// the report covers every student the viewer may see.
func (c ReportCriteria) Empty() bool {
	return len(c.Users) == 0 && len(c.Cohorts) == 0 && len(c.Courses) == 0
}

// Filter is a saved, named filter preset owned by the user who created it.
type Filter struct {
	ID                 string        `db:"id" json:"id"`
	Name               string        `db:"name" json:"name"`
	OwnerID            int64         `db:"owner_id" json:"owner_id"`
	Users              pq.Int64Array `db:"users" json:"users"`
	Cohorts            pq.Int64Array `db:"cohorts" json:"cohorts"`
	OnlyCohortsCourses bool          `db:"only_cohorts_courses" json:"only_cohorts_courses"`
	Courses            pq.Int64Array `db:"courses" json:"courses"`
	StartingDate       time.Time     `db:"starting_date" json:"starting_date"`
	EndingDate         time.Time     `db:"ending_date" json:"ending_date"`
	SortColumn         SortColumn    `db:"sort_column" json:"sort_column"`
	SortDirection      SortDirection `db:"sort_direction" json:"sort_direction"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// Criteria expands the saved filter into report criteria. The ending date is
// pushed to the last second of its day so the bound stays inclusive.
func (f Filter) Criteria() ReportCriteria {
	start := f.StartingDate
	end := f.EndingDate.Add(24*time.Hour - time.Second)
	return ReportCriteria{
		Users:              f.Users,
		Cohorts:            f.Cohorts,
		OnlyCohortsCourses: f.OnlyCohortsCourses,
		Courses:            f.Courses,
		StartingDate:       &start,
		EndingDate:         &end,
		SortColumn:         f.SortColumn,
		SortDirection:      f.SortDirection,
	}
}

// SearchResult is one hit from the user/cohort/course pickers.
type SearchResult struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CohortDetail echoes a filtered cohort back in report responses with its
// member names resolved.
type CohortDetail struct {
	ID      int64          `db:"id" json:"id"`
	Name    string         `db:"name" json:"name"`
	Members []SearchResult `json:"members"`
}
