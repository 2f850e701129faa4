package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

const filterColumns = `id, name, owner_id, users, cohorts, only_cohorts_courses, courses,
starting_date, ending_date, sort_column, sort_direction, created_at, updated_at`

// FilterRepository persists saved filter presets.
type FilterRepository struct {
	db *sqlx.DB
}

// NewFilterRepository constructs the repository.
func NewFilterRepository(db *sqlx.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// Create inserts a filter with generated defaults.
func (r *FilterRepository) Create(ctx context.Context, filter *models.Filter) error {
	if filter.ID == "" {
		filter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if filter.CreatedAt.IsZero() {
		filter.CreatedAt = now
	}
	filter.UpdatedAt = now
	const query = `INSERT INTO filters (id, name, owner_id, users, cohorts, only_cohorts_courses, courses,
starting_date, ending_date, sort_column, sort_direction, created_at, updated_at)
VALUES (:id, :name, :owner_id, :users, :cohorts, :only_cohorts_courses, :courses,
:starting_date, :ending_date, :sort_column, :sort_direction, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, filter); err != nil {
		return fmt.Errorf("create filter: %w", err)
	}
	return nil
}

// GetByID returns one filter or FILTER_NOT_FOUND.
func (r *FilterRepository) GetByID(ctx context.Context, id string) (*models.Filter, error) {
	query := "SELECT " + filterColumns + " FROM filters WHERE id = $1"
	var filter models.Filter
	if err := r.db.GetContext(ctx, &filter, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrFilterNotFound
		}
		return nil, fmt.Errorf("get filter: %w", err)
	}
	return &filter, nil
}

// ListByOwner returns the owner's filters ordered by name.
func (r *FilterRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Filter, error) {
	query := "SELECT " + filterColumns + " FROM filters WHERE owner_id = $1 ORDER BY name ASC"
	var filters []models.Filter
	if err := r.db.SelectContext(ctx, &filters, query, ownerID); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return filters, nil
}

// Update persists all mutable fields of the filter.
func (r *FilterRepository) Update(ctx context.Context, filter *models.Filter) error {
	filter.UpdatedAt = time.Now().UTC()
	const query = `UPDATE filters SET name = :name, users = :users, cohorts = :cohorts,
only_cohorts_courses = :only_cohorts_courses, courses = :courses,
starting_date = :starting_date, ending_date = :ending_date,
sort_column = :sort_column, sort_direction = :sort_direction, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, filter)
	if err != nil {
		return fmt.Errorf("update filter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update filter rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrFilterNotFound
	}
	return nil
}

// Delete removes a filter by id.
func (r *FilterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM filters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete filter rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrFilterNotFound
	}
	return nil
}
