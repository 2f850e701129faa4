package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/storage"
)

type stubReportBuilder struct {
	report *Report
	err    error
}

func (s stubReportBuilder) Build(context.Context, int64, models.ReportCriteria) (*Report, error) {
	return s.report, s.err
}

type memoryStorage struct {
	files map[string][]byte
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[filename] = data
	return filename, nil
}

func sampleReport() *Report {
	completed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	course := &models.CourseReport{
		ID:               2,
		Name:             "Maths",
		CompletedModules: 1,
		TotalModules:     2,
		Progress:         50,
		MetaTotals:       []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 120, Display: "120 (2 hour(s))"}},
		Events: []*models.CompletionEvent{{
			ID:          11,
			Month:       "March 2024",
			CourseName:  "Maths",
			SectionName: "Unit 1",
			ModuleType:  "quiz",
			ModuleName:  "Quiz 1",
			CompletedOn: completed,
			MetaValues:  []string{"120"},
		}},
	}
	student := &models.StudentReport{
		ID:               5,
		FirstName:        "Alice",
		LastName:         "Doe",
		Email:            "alice@example.org",
		CompletedModules: 1,
		TotalModules:     4,
		Progress:         25,
		LastCompletion:   completed,
		MetaTotals:       []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 120, Display: "120 (2 hour(s))"}},
		Courses:          []*models.CourseReport{course},
	}
	return &Report{
		Students: []*models.StudentReport{student},
		Settings: models.ReportSettings{
			UseMetadata:       true,
			DisplayedMetadata: []models.MetadataField{{ID: 7, Name: "Temps estimé", Datatype: "numeric"}},
			NumericMetadata:   []models.MetadataField{{ID: 7, Name: "Temps estimé", Datatype: "numeric"}},
		},
	}
}

func newTestExportService(report *Report) *ExportService {
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(stubReportBuilder{report: report}, &memoryStorage{}, signer,
		ExportConfig{APIPrefix: "/api/v1"}, time.UTC, nil)
}

func TestBuildDatasetHeaderSchema(t *testing.T) {
	svc := newTestExportService(sampleReport())

	dataset := svc.BuildDataset(sampleReport(), time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	require.Equal(t, []string{
		"Month", "Student", "Email", "Course", "Section", "Module type", "Module name", "Completed on",
		"Temps estimé",
		"Total (course) Temps estimé",
		"Total Temps estimé",
		"Completed modules (course)", "Completed (course) %",
		"Completed modules", "Completed %",
		"Last completion date",
	}, dataset.Headers)
	require.Equal(t, "Export 2024-03-20", dataset.Title)

	require.Len(t, dataset.Rows, 1)
	row := dataset.Rows[0]
	require.Len(t, row, len(dataset.Headers))
	require.Equal(t, "March 2024", row[0].Value)
	require.Equal(t, "Alice Doe", row[1].Value)
	require.Equal(t, "15/03/2024 10:00", row[7].Value)
	require.Equal(t, "120", row[8].Value)
	require.Equal(t, "120 (2 hour(s))", row[9].Value)
	require.Equal(t, "50", row[12].Value)
	require.Equal(t, "25", row[14].Value)
}

func TestExportCSV(t *testing.T) {
	svc := newTestExportService(sampleReport())

	result, err := svc.Export(context.Background(), 1, models.ReportCriteria{}, models.ExportFormatCSV)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.Filename, "export_"))
	require.True(t, strings.HasSuffix(result.Filename, ".csv"))
	require.Equal(t, "text/csv", result.ContentType)
	require.Contains(t, string(result.Data), "Alice Doe")
}

func TestExportRejectsPDFDirectly(t *testing.T) {
	svc := newTestExportService(sampleReport())

	_, err := svc.Export(context.Background(), 1, models.ReportCriteria{}, models.ExportFormatPDF)
	require.Error(t, err)
	require.Equal(t, apperrors.ErrExportType.Code, apperrors.FromError(err).Code)
}

func TestExportEmptyReportWritesHeaderOnly(t *testing.T) {
	empty := &Report{Settings: models.ReportSettings{}}
	svc := newTestExportService(empty)

	result, err := svc.Export(context.Background(), 1, models.ReportCriteria{}, models.ExportFormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "Month,Student,Email"))
}

func TestGenerateStoresArtifactAndSignsURL(t *testing.T) {
	store := &memoryStorage{}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(stubReportBuilder{report: sampleReport()}, store, signer,
		ExportConfig{APIPrefix: "/api/v1"}, time.UTC, nil)

	job := &models.ExportJob{ID: "job-1", Format: models.ExportFormatPDF, CreatedBy: 9}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Contains(t, result.RelativePath, "job-1/export_")
	require.Contains(t, result.URL, "/api/v1/exports/download?token=")
	require.NotEmpty(t, store.files[result.RelativePath])

	jobID, relPath, _, err := signer.Parse(result.Token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, result.RelativePath, relPath)
}
