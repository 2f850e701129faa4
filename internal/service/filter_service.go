package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edudata/completion-report-api/internal/dto"
	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

type filterStore interface {
	Create(ctx context.Context, filter *models.Filter) error
	GetByID(ctx context.Context, id string) (*models.Filter, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Filter, error)
	Update(ctx context.Context, filter *models.Filter) error
	Delete(ctx context.Context, id string) error
}

type referenceChecker interface {
	CountExisting(ctx context.Context, table string, ids []int64) (int, error)
	SearchUsers(ctx context.Context, term string, limit int) ([]models.SearchResult, error)
	SearchCohorts(ctx context.Context, term string, limit int) ([]models.SearchResult, error)
	SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchResult, error)
	CohortsWithMembers(ctx context.Context, cohortIDs []int64) ([]models.CohortDetail, error)
}

// FilterService manages saved filter presets: validation, CRUD with
// ownership, duplication and the pickers backing the filter form.
type FilterService struct {
	repo    filterStore
	catalog referenceChecker
	logger  *zap.Logger
}

// NewFilterService constructs the service.
func NewFilterService(repo filterStore, catalog referenceChecker, logger *zap.Logger) *FilterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterService{repo: repo, catalog: catalog, logger: logger}
}

// Create validates and saves a new filter owned by the actor.
func (s *FilterService) Create(ctx context.Context, actorID int64, req dto.FilterRequest) (*models.Filter, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	filter := &models.Filter{OwnerID: actorID}
	req.Apply(filter)
	normalizeSort(filter)
	if err := s.repo.Create(ctx, filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// Get returns a filter the actor may use.
func (s *FilterService) Get(ctx context.Context, id string, actorID int64, role models.UserRole) (*models.Filter, error) {
	filter, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && filter.OwnerID != actorID {
		return nil, apperrors.ErrForbidden
	}
	return filter, nil
}

// List returns the actor's filters.
func (s *FilterService) List(ctx context.Context, actorID int64) ([]models.Filter, error) {
	return s.repo.ListByOwner(ctx, actorID)
}

// Update validates and persists changes to an owned filter.
func (s *FilterService) Update(ctx context.Context, id string, actorID int64, role models.UserRole, req dto.FilterRequest) (*models.Filter, error) {
	filter, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	req.Apply(filter)
	normalizeSort(filter)
	if err := s.repo.Update(ctx, filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// Delete removes an owned filter.
func (s *FilterService) Delete(ctx context.Context, id string, actorID int64, role models.UserRole) error {
	if _, err := s.Get(ctx, id, actorID, role); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Duplicate copies an existing filter under the actor's ownership.
func (s *FilterService) Duplicate(ctx context.Context, id string, actorID int64, role models.UserRole) (*models.Filter, error) {
	source, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	clone := *source
	clone.ID = ""
	clone.Name = source.Name + " (copy)"
	clone.OwnerID = actorID
	if err := s.repo.Create(ctx, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// SearchUsers backs the user picker.
func (s *FilterService) SearchUsers(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	return s.catalog.SearchUsers(ctx, term, limit)
}

// SearchCohorts backs the cohort picker.
func (s *FilterService) SearchCohorts(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	return s.catalog.SearchCohorts(ctx, term, limit)
}

// SearchCourses backs the course picker.
func (s *FilterService) SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	return s.catalog.SearchCourses(ctx, term, limit)
}

// ExpandCohorts resolves cohort names and members for the report echo.
func (s *FilterService) ExpandCohorts(ctx context.Context, cohortIDs []int64) ([]models.CohortDetail, error) {
	return s.catalog.CohortsWithMembers(ctx, cohortIDs)
}

// validate collects per-field problems into one VALIDATION_ERROR.
func (s *FilterService) validate(ctx context.Context, req dto.FilterRequest) error {
	fields := map[string]string{}

	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.StartingDate == 0 {
		fields["starting_date"] = "starting date is required"
	}
	if req.EndingDate == 0 {
		fields["ending_date"] = "ending date is required"
	}
	if req.StartingDate != 0 && req.EndingDate != 0 && req.StartingDate > req.EndingDate {
		fields["ending_date"] = "ending date must not precede starting date"
	}
	switch req.SortColumn {
	case "", models.SortByStudent, models.SortByCompletion, models.SortByLastCompleted:
	default:
		fields["sort_column"] = "unknown sort column"
	}
	switch req.SortDirection {
	case "", models.SortAsc, models.SortDesc:
	default:
		fields["sort_direction"] = "unknown sort direction"
	}

	s.checkReferences(ctx, "users", req.Users, fields)
	s.checkReferences(ctx, "cohorts", req.Cohorts, fields)
	s.checkReferences(ctx, "courses", req.Courses, fields)

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

func (s *FilterService) checkReferences(ctx context.Context, table string, ids []int64, fields map[string]string) {
	if len(ids) == 0 {
		return
	}
	count, err := s.catalog.CountExisting(ctx, table, ids)
	if err != nil {
		s.logger.Warn("reference check failed", zap.String("table", table), zap.Error(err))
		fields[table] = "could not verify references"
		return
	}
	if count != len(ids) {
		fields[table] = "contains unknown ids"
	}
}

func normalizeSort(filter *models.Filter) {
	if filter.SortColumn == "" {
		filter.SortColumn = models.SortByStudent
	}
	if filter.SortDirection == "" {
		filter.SortDirection = models.SortAsc
	}
}
