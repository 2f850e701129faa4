package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/repository"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
	"github.com/edudata/completion-report-api/pkg/jobs"
)

type fakeJobStore struct {
	jobs    map[string]*models.ExportJob
	updates []repository.UpdateExportJobParams
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]*models.ExportJob{}}
}

func (f *fakeJobStore) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	found := *job
	return &found, nil
}

func (f *fakeJobStore) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	f.updates = append(f.updates, params)
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		path := *params.ResultPath
		job.ResultPath = &path
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	return nil
}

func (f *fakeJobStore) ListQueued(context.Context, int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range f.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeJobStore) ListExpired(context.Context, time.Time, int) ([]models.ExportJob, error) {
	return nil, nil
}

func (f *fakeJobStore) ClearResult(context.Context, string) error { return nil }

type fakeDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type fakeGenerator struct {
	result *ExportResult
	err    error
}

func (f fakeGenerator) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	return f.result, f.err
}

func TestExportJobServiceCreateJob(t *testing.T) {
	store := newFakeJobStore()
	dispatcher := &fakeDispatcher{}
	svc := NewExportJobService(store, dispatcher, nil, nil, ExportJobConfig{}, nil)

	job, err := svc.CreateJob(context.Background(), 9, models.ReportCriteria{Cohorts: []int64{3}}, models.ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, dispatcher.enqueued, 1)
	require.Equal(t, job.ID, dispatcher.enqueued[0].ID)
}

func TestExportJobServiceCreateJobRejectsUnknownFormat(t *testing.T) {
	svc := NewExportJobService(newFakeJobStore(), &fakeDispatcher{}, nil, nil, ExportJobConfig{}, nil)

	_, err := svc.CreateJob(context.Background(), 9, models.ReportCriteria{}, "docx")
	require.Equal(t, apperrors.ErrExportType.Code, apperrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newFakeJobStore()
	svc := NewExportJobService(store, &fakeDispatcher{err: errors.New("full")}, nil, nil, ExportJobConfig{}, nil)

	_, err := svc.CreateJob(context.Background(), 9, models.ReportCriteria{}, models.ExportFormatCSV)
	require.Error(t, err)
	require.Equal(t, models.ExportStatusFailed, store.jobs["job-1"].Status)
}

func TestExportJobServiceGetStatusOwnership(t *testing.T) {
	store := newFakeJobStore()
	require.NoError(t, store.Create(context.Background(), &models.ExportJob{ID: "job-1", CreatedBy: 9, Status: models.ExportStatusQueued}))
	svc := NewExportJobService(store, &fakeDispatcher{}, nil, nil, ExportJobConfig{}, nil)

	_, err := svc.GetStatus(context.Background(), "job-1", 10, models.RoleManager)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	job, err := svc.GetStatus(context.Background(), "job-1", 10, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "job-1", job.ID)
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	store := newFakeJobStore()
	require.NoError(t, store.Create(context.Background(), &models.ExportJob{ID: "job-1", Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}))

	result := &ExportResult{RelativePath: "job-1/export_x.csv", URL: "/api/v1/exports/download?token=t"}
	worker := NewExportWorker(store, fakeGenerator{result: result}, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	job := store.jobs["job-1"]
	require.Equal(t, models.ExportStatusFinished, job.Status)
	require.Equal(t, result.RelativePath, *job.ResultPath)
	require.Equal(t, result.URL, *job.ResultURL)
}

func TestExportWorkerHandleFailureRequeuesThenFails(t *testing.T) {
	store := newFakeJobStore()
	require.NoError(t, store.Create(context.Background(), &models.ExportJob{ID: "job-1", Format: models.ExportFormatCSV, Status: models.ExportStatusProcessing}))
	worker := NewExportWorker(store, fakeGenerator{err: errors.New("boom")}, 2, nil)

	// Early attempts go back to the queue.
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0}))
	require.Equal(t, models.ExportStatusQueued, store.jobs["job-1"].Status)

	// The final attempt marks the job failed.
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2}))
	require.Equal(t, models.ExportStatusFailed, store.jobs["job-1"].Status)
}
