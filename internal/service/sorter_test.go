package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
)

func student(last string, progress int, lastCompletion time.Time, courses ...*models.CourseReport) *models.StudentReport {
	return &models.StudentReport{LastName: last, Progress: progress, LastCompletion: lastCompletion, Courses: courses}
}

func lastNames(students []*models.StudentReport) []string {
	names := make([]string, len(students))
	for i, s := range students {
		names[i] = s.LastName
	}
	return names
}

func TestSortReportsByStudent(t *testing.T) {
	students := []*models.StudentReport{
		student("Martin", 10, time.Time{}),
		student("Albert", 20, time.Time{}),
		student("Zidane", 30, time.Time{}),
	}
	SortReports(students, models.SortByStudent, models.SortAsc)
	require.Equal(t, []string{"Albert", "Martin", "Zidane"}, lastNames(students))

	SortReports(students, models.SortByStudent, models.SortDesc)
	require.Equal(t, []string{"Zidane", "Martin", "Albert"}, lastNames(students))
}

func TestSortReportsByCompletion(t *testing.T) {
	students := []*models.StudentReport{
		student("A", 50, time.Time{}),
		student("B", 100, time.Time{}),
		student("C", 25, time.Time{}),
	}
	SortReports(students, models.SortByCompletion, models.SortDesc)
	require.Equal(t, []string{"B", "A", "C"}, lastNames(students))
}

func TestSortReportsByLastCompleted(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	students := []*models.StudentReport{
		student("A", 0, newer),
		student("B", 0, older),
	}
	SortReports(students, models.SortByLastCompleted, models.SortAsc)
	require.Equal(t, []string{"B", "A"}, lastNames(students))
}

func TestSortReportsStableOnTies(t *testing.T) {
	students := []*models.StudentReport{
		student("First", 50, time.Time{}),
		student("Second", 50, time.Time{}),
		student("Third", 50, time.Time{}),
	}
	SortReports(students, models.SortByCompletion, models.SortDesc)
	require.Equal(t, []string{"First", "Second", "Third"}, lastNames(students))
}

func TestSortReportsCoursesByNameUnlessCompletion(t *testing.T) {
	courses := []*models.CourseReport{
		{Name: "Zoology", Progress: 90},
		{Name: "Algebra", Progress: 10},
	}
	students := []*models.StudentReport{student("A", 0, time.Time{}, courses...)}

	// Student sort desc still orders courses ascending by name.
	SortReports(students, models.SortByStudent, models.SortDesc)
	require.Equal(t, "Algebra", students[0].Courses[0].Name)

	// Completion sort applies progress with the requested direction.
	SortReports(students, models.SortByCompletion, models.SortDesc)
	require.Equal(t, "Zoology", students[0].Courses[0].Name)
}
