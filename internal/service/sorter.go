package service

import (
	"sort"

	"github.com/edudata/completion-report-api/internal/models"
)

// SortReports orders students by the requested column and direction, then
// orders each student's courses. Courses always sort ascending by name except
// when sorting by completion, where the course progress and the requested
// direction apply. Sorting is stable so equal keys keep arrival order.
func SortReports(students []*models.StudentReport, column models.SortColumn, direction models.SortDirection) {
	less := func(a, b *models.StudentReport) bool {
		switch column {
		case models.SortByCompletion:
			return a.Progress < b.Progress
		case models.SortByLastCompleted:
			return a.LastCompletion.Before(b.LastCompletion)
		default:
			return a.LastName < b.LastName
		}
	}
	desc := direction == models.SortDesc
	sort.SliceStable(students, func(i, j int) bool {
		if desc {
			return less(students[j], students[i])
		}
		return less(students[i], students[j])
	})

	for _, student := range students {
		courses := student.Courses
		if column == models.SortByCompletion {
			sort.SliceStable(courses, func(i, j int) bool {
				if desc {
					return courses[j].Progress < courses[i].Progress
				}
				return courses[i].Progress < courses[j].Progress
			})
			continue
		}
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].Name < courses[j].Name
		})
	}
}
