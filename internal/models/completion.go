package models

import (
	"database/sql"
	"strconv"
	"time"
)

// CompletionRow is one flat record from the completion query: one per
// module-completion event and matching metadata field. Events with several
// metadata fields attached repeat across rows with the same CompletionID.
type CompletionRow struct {
	CompletionID          int64          `db:"completion_id"`
	UserID                int64          `db:"user_id"`
	LastName              string         `db:"last_name"`
	FirstName             string         `db:"first_name"`
	Email                 string         `db:"email"`
	CourseID              int64          `db:"course_id"`
	CourseName            string         `db:"course_name"`
	SectionName           sql.NullString `db:"section_name"`
	ModuleType            string         `db:"module_type"`
	ModuleName            string         `db:"module_name"`
	CompletedOn           time.Time      `db:"completed_on"`
	TotalModules          int            `db:"total_modules"`
	TotalModulesPerCourse int            `db:"total_modules_per_course"`
	HasRestrictions       bool           `db:"has_restrictions"`
	MetaID                sql.NullInt64  `db:"meta_id"`
	MetaValue             sql.NullString `db:"meta_value"`
}

// Section returns the section name, substituting "N/A" for courses whose
// modules sit outside a named section.
func (r CompletionRow) Section() string {
	if r.SectionName.Valid && r.SectionName.String != "" {
		return r.SectionName.String
	}
	return "N/A"
}

// MetaNumber parses the metadata value as a number for totals accumulation.
// Null or non-numeric values contribute zero.
func (r CompletionRow) MetaNumber() float64 {
	if !r.MetaValue.Valid {
		return 0
	}
	value, err := strconv.ParseFloat(r.MetaValue.String, 64)
	if err != nil {
		return 0
	}
	return value
}

// CompletionEvent is one rendered report row: the fixed columns plus the
// metadata values appended in configured order.
type CompletionEvent struct {
	ID          int64     `json:"id"`
	Month       string    `json:"month"`
	CourseName  string    `json:"course_name"`
	SectionName string    `json:"section_name"`
	ModuleType  string    `json:"module_type"`
	ModuleName  string    `json:"module_name"`
	CompletedOn time.Time `json:"completed_on"`
	MetaValues  []string  `json:"meta_values,omitempty"`
}

// MetaTotal accumulates one numeric metadata field for a student or course.
// Display carries the annotated form once a conversion formula has run,
// e.g. "120 (2 hour(s))".
type MetaTotal struct {
	FieldID int64   `json:"field_id"`
	Name    string  `json:"name"`
	Counter float64 `json:"counter"`
	Display string  `json:"display"`
}

// CourseReport groups a student's completion events within one course.
type CourseReport struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Linkable         bool               `json:"linkable"`
	CompletedModules int                `json:"completed_modules"`
	TotalModules     int                `json:"total_modules"`
	Progress         int                `json:"progress"`
	HasRestrictions  bool               `json:"has_restrictions"`
	MetaTotals       []*MetaTotal       `json:"meta_totals,omitempty"`
	Events           []*CompletionEvent `json:"events"`
}

// StudentReport is the top of the aggregated hierarchy: one per distinct
// student in the filtered row set.
type StudentReport struct {
	ID               int64           `json:"id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Email            string          `json:"email"`
	CompletedModules int             `json:"completed_modules"`
	TotalModules     int             `json:"total_modules"`
	Progress         int             `json:"progress"`
	LastCompletion   time.Time       `json:"last_completion"`
	MetaTotals       []*MetaTotal    `json:"meta_totals,omitempty"`
	Courses          []*CourseReport `json:"courses"`
}

// FullName joins the student's name parts the way the report displays them.
func (s StudentReport) FullName() string {
	return s.FirstName + " " + s.LastName
}
