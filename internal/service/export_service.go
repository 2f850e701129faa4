package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/export"
	"github.com/edudata/completion-report-api/pkg/storage"
)

const (
	exportTimeFormat  = "02/01/2006 15:04"
	exportFilePrefix  = "export_"
	exportStampFormat = "20060102_150405"
)

type reportBuilder interface {
	Build(ctx context.Context, viewerID int64, criteria models.ReportCriteria) (*Report, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful background generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// DirectExport is a rendered file ready to stream to the client.
type DirectExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService flattens built reports into datasets and renders them. Direct
// downloads support csv and xlsx; background jobs additionally render pdf.
type ExportService struct {
	reports  reportBuilder
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      datasetRenderer
	xlsx     datasetRenderer
	pdf      datasetRenderer
	timezone *time.Location
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportBuilder, fileStore fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, timezone *time.Location, logger *zap.Logger) *ExportService {
	if timezone == nil {
		timezone = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		reports:  reports,
		storage:  fileStore,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		xlsx:     export.NewXLSXExporter(),
		pdf:      export.NewPDFExporter(),
		timezone: timezone,
		logger:   logger,
		cfg:      cfg,
	}
}

// Export builds the report and renders it for a direct download.
func (s *ExportService) Export(ctx context.Context, viewerID int64, criteria models.ReportCriteria, format models.ExportFormat) (*DirectExport, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatXLSX {
		return nil, apperrors.Clone(apperrors.ErrExportType, fmt.Sprintf("unsupported export format %q", format))
	}
	report, err := s.reports.Build(ctx, viewerID, criteria)
	if err != nil {
		return nil, err
	}
	return s.render(report, format)
}

// Generate runs a background export job: rebuild the report from the
// persisted params, render, store the artifact and sign a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	report, err := s.reports.Build(ctx, job.CreatedBy, job.Params.Criteria())
	if err != nil {
		return nil, err
	}
	rendered, err := s.render(report, job.Format)
	if err != nil {
		return nil, err
	}

	relPath := fmt.Sprintf("%s/%s", job.ID, rendered.Filename)
	if _, err := s.storage.Save(relPath, rendered.Data); err != nil {
		return nil, fmt.Errorf("store export artifact: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}

	s.logger.Info("export generated",
		zap.String("job", job.ID),
		zap.String("format", string(job.Format)),
		zap.String("path", relPath))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download?token=%s", s.cfg.APIPrefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) render(report *Report, format models.ExportFormat) (*DirectExport, error) {
	now := time.Now().In(s.timezone)
	dataset := s.BuildDataset(report, now)

	var renderer datasetRenderer
	var contentType string
	switch format {
	case models.ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case models.ExportFormatXLSX:
		renderer, contentType = s.xlsx, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, apperrors.Clone(apperrors.ErrExportType, fmt.Sprintf("unsupported export format %q", format))
	}

	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	return &DirectExport{
		Filename:    exportFilePrefix + now.Format(exportStampFormat) + "." + string(format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// BuildDataset flattens the report into the export table. An empty report
// yields the header row only.
func (s *ExportService) BuildDataset(report *Report, now time.Time) export.Dataset {
	settings := report.Settings

	displayed := settings.DisplayedMetadata
	if !settings.UseMetadata {
		displayed = nil
	}

	headers := []string{"Month", "Student", "Email", "Course", "Section", "Module type", "Module name", "Completed on"}
	for _, field := range displayed {
		headers = append(headers, field.Name)
	}
	for _, field := range settings.NumericMetadata {
		headers = append(headers, "Total (course) "+field.Name)
	}
	for _, field := range settings.NumericMetadata {
		headers = append(headers, "Total "+field.Name)
	}
	headers = append(headers,
		"Completed modules (course)", "Completed (course) %",
		"Completed modules", "Completed %",
		"Last completion date")

	dataset := export.Dataset{
		Title:   "Export " + now.Format("2006-01-02"),
		Headers: headers,
	}

	for _, student := range report.Students {
		for _, course := range student.Courses {
			for _, event := range course.Events {
				row := make([]export.Cell, 0, len(headers))
				row = append(row,
					export.String(event.Month),
					export.String(student.FullName()),
					export.String(student.Email),
					export.String(event.CourseName),
					export.String(event.SectionName),
					export.String(event.ModuleType),
					export.String(event.ModuleName),
					export.String(event.CompletedOn.In(s.timezone).Format(exportTimeFormat)),
				)
				for i := range displayed {
					var value string
					if i < len(event.MetaValues) {
						value = event.MetaValues[i]
					}
					row = append(row, export.Auto(value))
				}
				for _, total := range course.MetaTotals {
					row = append(row, export.Auto(total.Display))
				}
				for _, total := range student.MetaTotals {
					row = append(row, export.Auto(total.Display))
				}
				row = append(row,
					export.Auto(strconv.Itoa(course.CompletedModules)),
					export.Auto(strconv.Itoa(course.Progress)),
					export.Auto(strconv.Itoa(student.CompletedModules)),
					export.Auto(strconv.Itoa(student.Progress)),
					export.Date(student.LastCompletion, student.LastCompletion.In(s.timezone).Format(exportTimeFormat)),
				)
				dataset.Rows = append(dataset.Rows, row)
			}
		}
	}
	return dataset
}
