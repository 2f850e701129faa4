package dto

import (
	"time"

	"github.com/edudata/completion-report-api/internal/models"
)

// FilterRequest is the payload for creating or updating a saved filter.
// Dates are epoch seconds for the start of the chosen day; the ending day is
// included in full when the filter runs.
type FilterRequest struct {
	Name               string               `json:"name"`
	Users              []int64              `json:"users"`
	Cohorts            []int64              `json:"cohorts"`
	OnlyCohortsCourses bool                 `json:"only_cohorts_courses"`
	Courses            []int64              `json:"courses"`
	StartingDate       int64                `json:"starting_date"`
	EndingDate         int64                `json:"ending_date"`
	SortColumn         models.SortColumn    `json:"sort_column"`
	SortDirection      models.SortDirection `json:"sort_direction"`
}

// Apply copies the request onto a filter model.
func (r FilterRequest) Apply(filter *models.Filter) {
	filter.Name = r.Name
	filter.Users = r.Users
	filter.Cohorts = r.Cohorts
	filter.OnlyCohortsCourses = r.OnlyCohortsCourses
	filter.Courses = r.Courses
	filter.StartingDate = time.Unix(r.StartingDate, 0).UTC()
	filter.EndingDate = time.Unix(r.EndingDate, 0).UTC()
	filter.SortColumn = r.SortColumn
	filter.SortDirection = r.SortDirection
}
