package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edudata/completion-report-api/internal/models"
)

// CatalogRepository reads site configuration catalogs: metadata fields,
// trackable module types, the report settings key/value table and the
// entity pickers backing the filter form.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Settings loads the report settings key/value table as a map.
func (r *CatalogRepository) Settings(ctx context.Context) (map[string]string, error) {
	const query = `SELECT name, value FROM report_settings`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load report settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan report setting: %w", err)
		}
		settings[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report settings: %w", err)
	}
	return settings, nil
}

// MetadataFields returns the metadata fields with the given ids, preserving
// the order of ids.
func (r *CatalogRepository) MetadataFields(ctx context.Context, ids []int64) ([]models.MetadataField, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, datatype FROM metadata_fields WHERE id = ANY($1)`
	var fields []models.MetadataField
	if err := r.db.SelectContext(ctx, &fields, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load metadata fields: %w", err)
	}
	byID := make(map[int64]models.MetadataField, len(fields))
	for _, field := range fields {
		byID[field.ID] = field
	}
	ordered := make([]models.MetadataField, 0, len(ids))
	for _, id := range ids {
		if field, ok := byID[id]; ok {
			ordered = append(ordered, field)
		}
	}
	return ordered, nil
}

// ModuleTypes lists every trackable module type.
func (r *CatalogRepository) ModuleTypes(ctx context.Context) ([]models.ModuleType, error) {
	const query = `SELECT id, name FROM module_types ORDER BY name ASC`
	var types []models.ModuleType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("load module types: %w", err)
	}
	return types, nil
}

// SearchUsers matches active users by name or email for the filter picker.
func (r *CatalogRepository) SearchUsers(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, first_name || ' ' || last_name AS name FROM users
WHERE active AND (first_name || ' ' || last_name ILIKE $1 OR email ILIKE $1)
ORDER BY last_name ASC LIMIT $2`
	var results []models.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, "%"+term+"%", limit); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return results, nil
}

// SearchCohorts matches visible cohorts by name.
func (r *CatalogRepository) SearchCohorts(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, name FROM cohorts WHERE visible AND name ILIKE $1 ORDER BY name ASC LIMIT $2`
	var results []models.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, "%"+term+"%", limit); err != nil {
		return nil, fmt.Errorf("search cohorts: %w", err)
	}
	return results, nil
}

// SearchCourses matches visible courses by name.
func (r *CatalogRepository) SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, full_name AS name FROM courses WHERE visible AND full_name ILIKE $1 ORDER BY full_name ASC LIMIT $2`
	var results []models.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, "%"+term+"%", limit); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return results, nil
}

// CohortMemberIDs expands cohorts into their member user ids.
func (r *CatalogRepository) CohortMemberIDs(ctx context.Context, cohortIDs []int64) ([]int64, error) {
	if len(cohortIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT user_id FROM cohort_members WHERE cohort_id = ANY($1)`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(cohortIDs)); err != nil {
		return nil, fmt.Errorf("expand cohort members: %w", err)
	}
	return ids, nil
}

// CohortsWithMembers resolves cohorts and their member names for the filter
// echo attached to report responses.
func (r *CatalogRepository) CohortsWithMembers(ctx context.Context, cohortIDs []int64) ([]models.CohortDetail, error) {
	if len(cohortIDs) == 0 {
		return nil, nil
	}
	const cohortQuery = `SELECT id, name FROM cohorts WHERE id = ANY($1) ORDER BY name ASC`
	var cohorts []models.CohortDetail
	if err := r.db.SelectContext(ctx, &cohorts, cohortQuery, pq.Array(cohortIDs)); err != nil {
		return nil, fmt.Errorf("load cohorts: %w", err)
	}

	const memberQuery = `SELECT cm.cohort_id, u.id, u.first_name || ' ' || u.last_name AS name
FROM cohort_members cm
JOIN users u ON u.id = cm.user_id
WHERE cm.cohort_id = ANY($1) AND u.active
ORDER BY u.last_name ASC, u.first_name ASC`
	rows, err := r.db.QueryxContext(ctx, memberQuery, pq.Array(cohortIDs))
	if err != nil {
		return nil, fmt.Errorf("load cohort members: %w", err)
	}
	defer rows.Close()

	members := make(map[int64][]models.SearchResult)
	for rows.Next() {
		var cohortID int64
		var member models.SearchResult
		if err := rows.Scan(&cohortID, &member.ID, &member.Name); err != nil {
			return nil, fmt.Errorf("scan cohort member: %w", err)
		}
		members[cohortID] = append(members[cohortID], member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cohort members: %w", err)
	}

	for i := range cohorts {
		cohorts[i].Members = members[cohorts[i].ID]
	}
	return cohorts, nil
}

// CountExisting reports how many of the given ids exist in the named table.
// Used by filter validation to reject references to deleted entities.
func (r *CatalogRepository) CountExisting(ctx context.Context, table string, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var query string
	switch table {
	case "users", "cohorts", "courses":
		query = fmt.Sprintf("SELECT COUNT(id) FROM %s WHERE id = ANY($1)", table)
	default:
		return 0, fmt.Errorf("count existing: unknown table %q", table)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count existing %s: %w", table, err)
	}
	return count, nil
}
