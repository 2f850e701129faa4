package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newCatalogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCatalogRepositorySettings(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"name", "value"}).
		AddRow("use_metadata", "1").
		AddRow("metadata_list", "7,8")
	mock.ExpectQuery("SELECT name, value FROM report_settings").WillReturnRows(rows)

	settings, err := repo.Settings(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1", settings["use_metadata"])
	require.Equal(t, "7,8", settings["metadata_list"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryMetadataFieldsPreservesOrder(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	// The database returns rows in id order; the configured order wins.
	rows := sqlmock.NewRows([]string{"id", "name", "datatype"}).
		AddRow(7, "Temps estimé", "numeric").
		AddRow(8, "Certifiant", "checkbox")
	mock.ExpectQuery("SELECT id, name, datatype FROM metadata_fields").WillReturnRows(rows)

	fields, err := repo.MetadataFields(context.Background(), []int64{8, 7})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, int64(8), fields[0].ID)
	require.Equal(t, int64(7), fields[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryMetadataFieldsEmpty(t *testing.T) {
	db, _, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	fields, err := repo.MetadataFields(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, fields)
}

func TestCatalogRepositoryCohortsWithMembers(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	cohortRows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(3, "March intake").
		AddRow(4, "Evening class")
	mock.ExpectQuery("SELECT id, name FROM cohorts WHERE id = ANY").WillReturnRows(cohortRows)

	memberRows := sqlmock.NewRows([]string{"cohort_id", "id", "name"}).
		AddRow(3, 11, "Alice Doe").
		AddRow(3, 12, "Bob Low")
	mock.ExpectQuery("SELECT cm.cohort_id, u.id").WillReturnRows(memberRows)

	cohorts, err := repo.CohortsWithMembers(context.Background(), []int64{3, 4})
	require.NoError(t, err)
	require.Len(t, cohorts, 2)
	require.Equal(t, "March intake", cohorts[0].Name)
	require.Len(t, cohorts[0].Members, 2)
	require.Equal(t, "Alice Doe", cohorts[0].Members[0].Name)
	require.Empty(t, cohorts[1].Members)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryCountExistingRejectsUnknownTable(t *testing.T) {
	db, _, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	_, err := repo.CountExisting(context.Background(), "filters; DROP TABLE users", []int64{1})
	require.Error(t, err)
}
