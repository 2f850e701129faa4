package service

import (
	"math"
	"strconv"
	"time"

	"github.com/edudata/completion-report-api/internal/models"
)

// RowSource is the forward-only sequence of flat completion rows produced by
// the completion query. It is consumed exactly once.
type RowSource interface {
	Next() bool
	Scan(dst *models.CompletionRow) error
	Err() error
}

const metaDateFormat = "02/01/2006"

// Aggregator folds the flat row stream into the nested
// student → course → completion-event structure.
type Aggregator struct {
	timezone *time.Location
}

// NewAggregator constructs an aggregator rendering dates in the given
// timezone.
func NewAggregator(timezone *time.Location) *Aggregator {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Aggregator{timezone: timezone}
}

// Aggregate consumes the row source in one pass and returns the students in
// first-sighting order. enrolled marks the courses the viewing user is
// enrolled in, which controls the course link flag.
func (a *Aggregator) Aggregate(rows RowSource, settings models.ReportSettings, enrolled map[int64]bool) ([]*models.StudentReport, error) {
	numericSet := make(map[int64]bool, len(settings.NumericMetadata))
	for _, field := range settings.NumericMetadata {
		numericSet[field.ID] = true
	}
	displayMeta := settings.UseMetadata && len(settings.DisplayedMetadata) > 0

	var students []*models.StudentReport
	studentIdx := make(map[int64]*models.StudentReport)
	courseIdx := make(map[int64]map[int64]*models.CourseReport)
	eventIdx := make(map[int64]map[int64]map[int64]*models.CompletionEvent)

	var row models.CompletionRow
	for rows.Next() {
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}

		student, ok := studentIdx[row.UserID]
		if !ok {
			student = &models.StudentReport{
				ID:           row.UserID,
				FirstName:    row.FirstName,
				LastName:     row.LastName,
				Email:        row.Email,
				TotalModules: row.TotalModules,
				MetaTotals:   newMetaTotals(settings.NumericMetadata),
			}
			studentIdx[row.UserID] = student
			courseIdx[row.UserID] = make(map[int64]*models.CourseReport)
			eventIdx[row.UserID] = make(map[int64]map[int64]*models.CompletionEvent)
			students = append(students, student)
		}
		if row.CompletedOn.After(student.LastCompletion) {
			student.LastCompletion = row.CompletedOn
		}

		course, ok := courseIdx[row.UserID][row.CourseID]
		if !ok {
			course = &models.CourseReport{
				ID:              row.CourseID,
				Name:            row.CourseName,
				Linkable:        enrolled[row.CourseID],
				TotalModules:    row.TotalModulesPerCourse,
				HasRestrictions: row.HasRestrictions,
				MetaTotals:      newMetaTotals(settings.NumericMetadata),
			}
			courseIdx[row.UserID][row.CourseID] = course
			eventIdx[row.UserID][row.CourseID] = make(map[int64]*models.CompletionEvent)
			student.Courses = append(student.Courses, course)
		}

		event, ok := eventIdx[row.UserID][row.CourseID][row.CompletionID]
		if !ok {
			event = &models.CompletionEvent{
				ID:          row.CompletionID,
				Month:       row.CompletedOn.In(a.timezone).Format("January 2006"),
				CourseName:  row.CourseName,
				SectionName: row.Section(),
				ModuleType:  row.ModuleType,
				ModuleName:  row.ModuleName,
				CompletedOn: row.CompletedOn,
			}
			eventIdx[row.UserID][row.CourseID][row.CompletionID] = event
			course.Events = append(course.Events, event)
			student.CompletedModules++
			course.CompletedModules++

			// Numeric totals accumulate only on the event's first row so an
			// event with several metadata fields is not counted twice.
			if row.MetaID.Valid && numericSet[row.MetaID.Int64] {
				addMetaTotal(student.MetaTotals, row.MetaID.Int64, row.MetaNumber())
				addMetaTotal(course.MetaTotals, row.MetaID.Int64, row.MetaNumber())
			}
		}

		if displayMeta {
			event.MetaValues = append(event.MetaValues, a.formatMetaValue(row, settings.DisplayedMetadata))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, student := range students {
		student.Progress = progress(student.CompletedModules, student.TotalModules)
		for _, course := range student.Courses {
			course.Progress = progress(course.CompletedModules, course.TotalModules)
			if displayMeta {
				padMetaValues(course.Events, len(settings.DisplayedMetadata))
			}
		}
	}
	return students, nil
}

// formatMetaValue renders one metadata occurrence per the field's declared
// datatype. A null occurrence renders empty.
func (a *Aggregator) formatMetaValue(row models.CompletionRow, displayed []models.MetadataField) string {
	if !row.MetaID.Valid || !row.MetaValue.Valid {
		return ""
	}
	var datatype string
	for _, field := range displayed {
		if field.ID == row.MetaID.Int64 {
			datatype = field.Datatype
			break
		}
	}
	value := row.MetaValue.String
	switch datatype {
	case models.DatatypeDatetime:
		epoch, err := parseEpoch(value)
		if err != nil {
			return value
		}
		return epoch.In(a.timezone).Format(metaDateFormat)
	case models.DatatypeCheckbox:
		if value == "1" || value == "yes" {
			return "yes"
		}
		return "no"
	default:
		return value
	}
}

func parseEpoch(value string) (time.Time, error) {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, 0), nil
}

// progress computes round(completed*100/total), falling back to 0 for
// students or courses with no completable modules.
func progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

func newMetaTotals(numeric []models.MetadataField) []*models.MetaTotal {
	if len(numeric) == 0 {
		return nil
	}
	totals := make([]*models.MetaTotal, 0, len(numeric))
	for _, field := range numeric {
		totals = append(totals, &models.MetaTotal{FieldID: field.ID, Name: field.Name})
	}
	return totals
}

func addMetaTotal(totals []*models.MetaTotal, fieldID int64, value float64) {
	for _, total := range totals {
		if total.FieldID == fieldID {
			total.Counter += value
			return
		}
	}
}

func padMetaValues(events []*models.CompletionEvent, width int) {
	for _, event := range events {
		for len(event.MetaValues) < width {
			event.MetaValues = append(event.MetaValues, "")
		}
	}
}
