package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/repository"
)

type completionSource interface {
	Fetch(ctx context.Context, viewerID int64, criteria models.ReportCriteria, trackedModules, metaIDs []int64) (repository.Cursor, error)
	EnrolledCourseIDs(ctx context.Context, userID int64) (map[int64]bool, error)
}

type settingsResolver interface {
	Resolve(ctx context.Context) (models.ReportSettings, error)
}

// Report is one fully built report: the sorted student hierarchy plus the
// settings snapshot it was built with, which the renderers need for column
// shaping.
type Report struct {
	Students []*models.StudentReport
	Settings models.ReportSettings
}

// ReportService runs the report pipeline: fetch flat rows, aggregate, sort,
// convert metadata totals.
type ReportService struct {
	completions completionSource
	settings    settingsResolver
	aggregator  *Aggregator
	converter   *MetadataTotalsConverter
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(completions completionSource, settings settingsResolver, aggregator *Aggregator, converter *MetadataTotalsConverter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		completions: completions,
		settings:    settings,
		aggregator:  aggregator,
		converter:   converter,
		logger:      logger,
	}
}

// WithMetrics attaches pipeline instrumentation.
func (s *ReportService) WithMetrics(m *MetricsService) *ReportService {
	s.metrics = m
	return s
}

// Build runs the full pipeline for the viewer and criteria. The row cursor is
// consumed exactly once and always closed.
func (s *ReportService) Build(ctx context.Context, viewerID int64, criteria models.ReportCriteria) (*Report, error) {
	start := time.Now()
	settings, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.completions.EnrolledCourseIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// Only displayed metadata fields join into the query; the numeric subset
	// is configured from within that list.
	var metaIDs []int64
	if settings.UseMetadata {
		metaIDs = settings.DisplayedMetadataIDs()
	}

	cursor, err := s.completions.Fetch(ctx, viewerID, criteria, settings.TrackedModules, metaIDs)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	students, err := s.aggregator.Aggregate(cursor, settings, enrolled)
	if err != nil {
		return nil, err
	}

	column := criteria.SortColumn
	if column == "" {
		column = models.SortByStudent
	}
	direction := criteria.SortDirection
	if direction == "" {
		direction = models.SortAsc
	}
	SortReports(students, column, direction)

	s.converter.ConvertReports(students, settings.Conversions)

	s.metrics.ObserveReportBuild(len(students), time.Since(start))
	s.logger.Debug("report built",
		zap.Int64("viewer", viewerID),
		zap.Int("students", len(students)))
	return &Report{Students: students, Settings: settings}, nil
}

// BuildPersonal builds the single-student report backing the profile view.
// The viewer and the subject are the same user.
func (s *ReportService) BuildPersonal(ctx context.Context, userID int64) (*models.StudentReport, models.ReportSettings, error) {
	report, err := s.Build(ctx, userID, models.ReportCriteria{Users: []int64{userID}})
	if err != nil {
		return nil, models.ReportSettings{}, err
	}
	if len(report.Students) == 0 {
		return nil, report.Settings, nil
	}
	return report.Students[0], report.Settings, nil
}
