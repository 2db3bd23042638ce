package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"siteguard/models"
)

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormRepository(db), mock
}

func TestGormGetUserByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := repo.GetUserByEmail(context.Background(), "Nobody@Example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetWorkspaceScopesByOwner(t *testing.T) {
	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "status", "progress", "safety_score"}).
		AddRow("w1", "alice", "Lekki Towers", "Under Construction", 40, 85)
	mock.ExpectQuery(`SELECT \* FROM "workspaces" WHERE .*id = \$1 AND user_id = \$2.*"workspaces"\."deleted_at" IS NULL`).
		WillReturnRows(rows)

	w, err := repo.GetWorkspace(context.Background(), "alice", "w1")
	require.NoError(t, err)
	assert.Equal(t, "Lekki Towers", w.Name)
	assert.Equal(t, models.StatusUnderConstruction, w.Status)
	assert.Equal(t, 85, w.SafetyScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteResourceMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`DELETE FROM "resource_items" WHERE id = \$1 AND workspace_id = \$2`).
		WithArgs("r1", "w1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteResource(context.Background(), "w1", "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReconcileResourceStatuses(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE resource_items SET status = derived\.status`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ReconcileResourceStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAppendSafetyReportCommits(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "safety_reports"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "workspaces" SET .*"safety_score"=\$\d`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report := &models.SafetyReport{ID: "s1", WorkspaceID: "w1", Date: time.Now(), RiskScore: 25}
	require.NoError(t, repo.AppendSafetyReport(context.Background(), report, 75, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAppendSafetyReportRollsBackWhenWorkspaceMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "safety_reports"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "workspaces"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	report := &models.SafetyReport{ID: "s1", WorkspaceID: "gone", Date: time.Now(), RiskScore: 25}
	err := repo.AppendSafetyReport(context.Background(), report, 75, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
