package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

// Complete states counted by the report: plain complete and complete with a
// passing grade. Incomplete (0) and failed (3) are excluded.
const (
	completionStateComplete     = 1
	completionStateCompletePass = 2
)

// Cursor is a forward-only, single-pass iterator over flat completion rows.
// Callers must drain or Close it before the request ends.
type Cursor interface {
	Next() bool
	Scan(dst *models.CompletionRow) error
	Err() error
	Close() error
}

// CompletionCursor adapts a sqlx result set to Cursor.
type CompletionCursor struct {
	rows *sqlx.Rows
}

// Next advances to the next row, returning false when exhausted.
func (c *CompletionCursor) Next() bool {
	return c.rows.Next()
}

// Scan reads the current row into dst.
func (c *CompletionCursor) Scan(dst *models.CompletionRow) error {
	if err := c.rows.StructScan(dst); err != nil {
		return fmt.Errorf("scan completion row: %w", err)
	}
	return nil
}

// Err returns the first error encountered during iteration.
func (c *CompletionCursor) Err() error {
	return c.rows.Err()
}

// Close releases the underlying result set.
func (c *CompletionCursor) Close() error {
	return c.rows.Close()
}

// CompletionRepository builds and runs the flat completion-row query.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Fetch runs the completion query for the criteria and returns a lazy cursor
// ordered by completion timestamp descending then student surname. Only
// modules of the tracked types are counted, only metadata fields in metaIDs
// are joined, and only courses where the viewer holds the report permission
// are visible.
func (r *CompletionRepository) Fetch(ctx context.Context, viewerID int64, criteria models.ReportCriteria, trackedModules, metaIDs []int64) (Cursor, error) {
	query, args := buildCompletionQuery(viewerID, criteria, trackedModules, metaIDs)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDataSource.Code, apperrors.ErrDataSource.Status, "completion query failed")
	}
	return &CompletionCursor{rows: rows}, nil
}

func buildCompletionQuery(viewerID int64, criteria models.ReportCriteria, trackedModules, metaIDs []int64) (string, []interface{}) {
	var builder strings.Builder
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	builder.WriteString(`SELECT cmc.id AS completion_id,
  u.id AS user_id, u.last_name, u.first_name, u.email,
  c.id AS course_id, c.full_name AS course_name,
  cs.name AS section_name,
  mt.name AS module_type, cm.name AS module_name,
  cmc.completed_on,
  (SELECT COUNT(cm2.id)
     FROM course_modules cm2
     JOIN enrolments e2 ON e2.course_id = cm2.course_id AND e2.user_id = u.id AND e2.active
    WHERE cm2.visible AND cm2.completion_enabled`)
	builder.WriteString(" AND cm2.module_type_id = ANY(" + arg(pq.Array(trackedModules)) + ")")
	builder.WriteString(`) AS total_modules,
  (SELECT COUNT(cm3.id)
     FROM course_modules cm3
    WHERE cm3.course_id = c.id AND cm3.visible AND cm3.completion_enabled`)
	builder.WriteString(" AND cm3.module_type_id = ANY(" + arg(pq.Array(trackedModules)) + ")")
	builder.WriteString(`) AS total_modules_per_course,
  EXISTS (SELECT 1 FROM course_modules cm4
           WHERE cm4.course_id = c.id AND cm4.availability IS NOT NULL) AS has_restrictions,
  md.field_id AS meta_id, md.value AS meta_value
FROM course_modules_completion cmc
JOIN course_modules cm ON cm.id = cmc.course_module_id
JOIN module_types mt ON mt.id = cm.module_type_id
JOIN courses c ON c.id = cm.course_id
LEFT JOIN course_sections cs ON cs.id = cm.section_id
JOIN users u ON u.id = cmc.user_id
JOIN course_permissions cp ON cp.course_id = c.id`)
	builder.WriteString(" AND cp.user_id = " + arg(viewerID) + " AND cp.permission = 1")

	if len(metaIDs) > 0 {
		builder.WriteString("\nLEFT JOIN course_module_metadata md ON md.course_module_id = cm.id")
		builder.WriteString(" AND md.field_id = ANY(" + arg(pq.Array(metaIDs)) + ")")
	} else {
		builder.WriteString("\nLEFT JOIN course_module_metadata md ON FALSE")
	}

	builder.WriteString("\nWHERE cmc.state IN (")
	builder.WriteString(arg(completionStateComplete) + ", " + arg(completionStateCompletePass))
	builder.WriteString(") AND cm.visible AND cm.completion_enabled AND c.visible AND u.active")
	builder.WriteString(" AND mt.id = ANY(" + arg(pq.Array(trackedModules)) + ")")

	// Users and cohorts combine with OR. The cohort-course restriction only
	// narrows the cohort branch.
	switch {
	case len(criteria.Users) > 0 && len(criteria.Cohorts) > 0:
		builder.WriteString(" AND (u.id = ANY(" + arg(pq.Array(criteria.Users)) + ")")
		builder.WriteString(" OR (" + cohortPredicate(arg, criteria) + "))")
	case len(criteria.Users) > 0:
		builder.WriteString(" AND u.id = ANY(" + arg(pq.Array(criteria.Users)) + ")")
	case len(criteria.Cohorts) > 0:
		builder.WriteString(" AND (" + cohortPredicate(arg, criteria) + ")")
	}

	if len(criteria.Courses) > 0 {
		builder.WriteString(" AND c.id = ANY(" + arg(pq.Array(criteria.Courses)) + ")")
	}
	if criteria.StartingDate != nil {
		builder.WriteString(" AND cmc.completed_on >= " + arg(*criteria.StartingDate))
	}
	if criteria.EndingDate != nil {
		builder.WriteString(" AND cmc.completed_on <= " + arg(*criteria.EndingDate))
	}

	builder.WriteString("\nORDER BY cmc.completed_on DESC, u.last_name ASC")

	return builder.String(), args
}

func cohortPredicate(arg func(interface{}) string, criteria models.ReportCriteria) string {
	predicate := "u.id IN (SELECT chm.user_id FROM cohort_members chm WHERE chm.cohort_id = ANY(" +
		arg(pq.Array(criteria.Cohorts)) + "))"
	if criteria.OnlyCohortsCourses {
		predicate += " AND c.id IN (SELECT che.course_id FROM cohort_enrolments che WHERE che.cohort_id = ANY(" +
			arg(pq.Array(criteria.Cohorts)) + "))"
	}
	return predicate
}

// EnrolledCourseIDs lists the courses the viewer is actively enrolled in,
// used to decide whether a course name renders as a link.
func (r *CompletionRepository) EnrolledCourseIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	const query = `SELECT course_id FROM enrolments WHERE user_id = $1 AND active`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	enrolled := make(map[int64]bool, len(ids))
	for _, id := range ids {
		enrolled[id] = true
	}
	return enrolled, nil
}
