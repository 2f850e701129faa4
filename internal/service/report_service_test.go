package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/repository"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

type fakeCursor struct {
	fakeRows
	closed bool
}

func (f *fakeCursor) Close() error {
	f.closed = true
	return nil
}

type fakeCompletionSource struct {
	cursor   *fakeCursor
	fetchErr error
	enrolled map[int64]bool
	metaIDs  []int64
}

func (f *fakeCompletionSource) Fetch(_ context.Context, _ int64, _ models.ReportCriteria, _, metaIDs []int64) (repository.Cursor, error) {
	f.metaIDs = metaIDs
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.cursor, nil
}

func (f *fakeCompletionSource) EnrolledCourseIDs(context.Context, int64) (map[int64]bool, error) {
	return f.enrolled, nil
}

type fakeSettings struct {
	settings models.ReportSettings
	err      error
}

func (f fakeSettings) Resolve(context.Context) (models.ReportSettings, error) {
	return f.settings, f.err
}

func newTestReportService(source *fakeCompletionSource, settings models.ReportSettings) *ReportService {
	return NewReportService(source, fakeSettings{settings: settings}, NewAggregator(time.UTC),
		NewMetadataTotalsConverter(nil, nil), nil)
}

func TestReportServiceBuildPipeline(t *testing.T) {
	completed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	early := baseRow(11, 5, 2, completed)
	late := baseRow(21, 6, 2, completed.Add(time.Hour))
	late.LastName = "Albert"
	cursor := &fakeCursor{fakeRows: fakeRows{rows: []models.CompletionRow{early, late}}}
	source := &fakeCompletionSource{cursor: cursor, enrolled: map[int64]bool{2: true}}

	svc := newTestReportService(source, testSettings)
	report, err := svc.Build(context.Background(), 1, models.ReportCriteria{})
	require.NoError(t, err)
	require.Len(t, report.Students, 2)

	// Default sort is by surname ascending.
	require.Equal(t, "Albert", report.Students[0].LastName)
	require.True(t, cursor.closed)
	require.Equal(t, []int64{7, 8}, source.metaIDs)
}

func TestReportServiceSkipsMetadataJoinWhenDisabled(t *testing.T) {
	cursor := &fakeCursor{}
	source := &fakeCompletionSource{cursor: cursor}

	settings := testSettings
	settings.UseMetadata = false
	svc := newTestReportService(source, settings)

	_, err := svc.Build(context.Background(), 1, models.ReportCriteria{})
	require.NoError(t, err)
	require.Nil(t, source.metaIDs)
}

func TestReportServicePropagatesDataSourceError(t *testing.T) {
	source := &fakeCompletionSource{fetchErr: apperrors.ErrDataSource}
	svc := newTestReportService(source, models.ReportSettings{})

	_, err := svc.Build(context.Background(), 1, models.ReportCriteria{})
	require.ErrorIs(t, err, apperrors.ErrDataSource)
}

func TestReportServiceBuildPersonal(t *testing.T) {
	completed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	row := baseRow(11, 5, 2, completed)
	cursor := &fakeCursor{fakeRows: fakeRows{rows: []models.CompletionRow{row}}}
	source := &fakeCompletionSource{cursor: cursor}

	svc := newTestReportService(source, models.ReportSettings{})
	student, _, err := svc.BuildPersonal(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, student)
	require.Equal(t, int64(5), student.ID)
}

func TestReportServiceBuildPersonalEmpty(t *testing.T) {
	source := &fakeCompletionSource{cursor: &fakeCursor{}}
	svc := newTestReportService(source, models.ReportSettings{})

	student, _, err := svc.BuildPersonal(context.Background(), 5)
	require.NoError(t, err)
	require.Nil(t, student)
}
