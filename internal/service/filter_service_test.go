package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

type fakeFilterStore struct {
	filters map[string]*models.Filter
	nextID  int
}

func newFakeFilterStore() *fakeFilterStore {
	return &fakeFilterStore{filters: map[string]*models.Filter{}}
}

func (f *fakeFilterStore) Create(_ context.Context, filter *models.Filter) error {
	if filter.ID == "" {
		f.nextID++
		filter.ID = string(rune('a' + f.nextID))
	}
	stored := *filter
	f.filters[filter.ID] = &stored
	return nil
}

func (f *fakeFilterStore) GetByID(_ context.Context, id string) (*models.Filter, error) {
	filter, ok := f.filters[id]
	if !ok {
		return nil, apperrors.ErrFilterNotFound
	}
	found := *filter
	return &found, nil
}

func (f *fakeFilterStore) ListByOwner(_ context.Context, ownerID int64) ([]models.Filter, error) {
	var out []models.Filter
	for _, filter := range f.filters {
		if filter.OwnerID == ownerID {
			out = append(out, *filter)
		}
	}
	return out, nil
}

func (f *fakeFilterStore) Update(_ context.Context, filter *models.Filter) error {
	if _, ok := f.filters[filter.ID]; !ok {
		return apperrors.ErrFilterNotFound
	}
	stored := *filter
	f.filters[filter.ID] = &stored
	return nil
}

func (f *fakeFilterStore) Delete(_ context.Context, id string) error {
	if _, ok := f.filters[id]; !ok {
		return apperrors.ErrFilterNotFound
	}
	delete(f.filters, id)
	return nil
}

type fakeCatalog struct {
	existing map[string]int
}

func (f fakeCatalog) CountExisting(_ context.Context, table string, ids []int64) (int, error) {
	if f.existing == nil {
		return len(ids), nil
	}
	return f.existing[table], nil
}

func (f fakeCatalog) SearchUsers(context.Context, string, int) ([]models.SearchResult, error) {
	return []models.SearchResult{{ID: 5, Name: "Alice Doe"}}, nil
}

func (f fakeCatalog) SearchCohorts(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, nil
}

func (f fakeCatalog) SearchCourses(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, nil
}

func (f fakeCatalog) CohortsWithMembers(_ context.Context, cohortIDs []int64) ([]models.CohortDetail, error) {
	out := make([]models.CohortDetail, 0, len(cohortIDs))
	for _, id := range cohortIDs {
		out = append(out, models.CohortDetail{
			ID:      id,
			Name:    "Cohort",
			Members: []models.SearchResult{{ID: 5, Name: "Alice Doe"}},
		})
	}
	return out, nil
}

func validFilterRequest() dto.FilterRequest {
	return dto.FilterRequest{
		Name:         "March cohort",
		Cohorts:      []int64{3},
		StartingDate: 1709251200,
		EndingDate:   1711843200,
	}
}

func TestFilterServiceCreateAndGet(t *testing.T) {
	svc := NewFilterService(newFakeFilterStore(), fakeCatalog{}, nil)

	filter, err := svc.Create(context.Background(), 9, validFilterRequest())
	require.NoError(t, err)
	require.Equal(t, int64(9), filter.OwnerID)
	require.Equal(t, models.SortByStudent, filter.SortColumn)
	require.Equal(t, models.SortAsc, filter.SortDirection)

	fetched, err := svc.Get(context.Background(), filter.ID, 9, models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, "March cohort", fetched.Name)
}

func TestFilterServiceValidation(t *testing.T) {
	svc := NewFilterService(newFakeFilterStore(), fakeCatalog{}, nil)

	req := dto.FilterRequest{EndingDate: 100, StartingDate: 200}
	_, err := svc.Create(context.Background(), 9, req)
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Fields, "name")
	require.Contains(t, appErr.Fields, "ending_date")
}

func TestFilterServiceValidationUnknownReferences(t *testing.T) {
	svc := NewFilterService(newFakeFilterStore(), fakeCatalog{existing: map[string]int{"cohorts": 0}}, nil)

	_, err := svc.Create(context.Background(), 9, validFilterRequest())
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Fields, "cohorts")
}

func TestFilterServiceOwnership(t *testing.T) {
	store := newFakeFilterStore()
	svc := NewFilterService(store, fakeCatalog{}, nil)

	filter, err := svc.Create(context.Background(), 9, validFilterRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), filter.ID, 10, models.RoleManager)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Admins may read any filter.
	_, err = svc.Get(context.Background(), filter.ID, 10, models.RoleAdmin)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), filter.ID, 10, models.RoleManager)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestFilterServiceDuplicate(t *testing.T) {
	store := newFakeFilterStore()
	svc := NewFilterService(store, fakeCatalog{}, nil)

	original, err := svc.Create(context.Background(), 9, validFilterRequest())
	require.NoError(t, err)

	clone, err := svc.Duplicate(context.Background(), original.ID, 9, models.RoleManager)
	require.NoError(t, err)
	require.NotEqual(t, original.ID, clone.ID)
	require.Equal(t, "March cohort (copy)", clone.Name)
	require.Equal(t, original.Cohorts, clone.Cohorts)
}

func TestFilterServiceGetNotFound(t *testing.T) {
	svc := NewFilterService(newFakeFilterStore(), fakeCatalog{}, nil)

	_, err := svc.Get(context.Background(), "missing", 9, models.RoleAdmin)
	require.ErrorIs(t, err, apperrors.ErrFilterNotFound)
}
