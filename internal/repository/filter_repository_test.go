package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

func newFilterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFilterRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newFilterRepoMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO filters")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	filter := &models.Filter{
		Name:         "March cohort",
		OwnerID:      9,
		Cohorts:      pq.Int64Array{3},
		StartingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndingDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		SortColumn:   models.SortByStudent,
	}
	require.NoError(t, repo.Create(context.Background(), filter))
	require.NotEmpty(t, filter.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "owner_id", "users", "cohorts", "only_cohorts_courses", "courses",
		"starting_date", "ending_date", "sort_column", "sort_direction", "created_at", "updated_at"}).
		AddRow(filter.ID, "March cohort", 9, "{}", "{3}", false, "{}",
			filter.StartingDate, filter.EndingDate, "student", "asc", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, name, owner_id").WithArgs(filter.ID).WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), filter.ID)
	require.NoError(t, err)
	require.Equal(t, "March cohort", fetched.Name)
	require.Equal(t, pq.Int64Array{3}, fetched.Cohorts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newFilterRepoMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectQuery("SELECT id, name, owner_id").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrFilterNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newFilterRepoMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM filters WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrFilterNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
