package blobstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partest/internal/config"
)

func TestIsDuplicateEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'plan' for key 'PRIMARY'"}, true},
		{"wrapped duplicate", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), true},
		{"other mysql error", &mysql.MySQLError{Number: 1146}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateEntry(tt.err))
		})
	}
}

func TestNewMySQLStore_TableName(t *testing.T) {
	// sql.Open does not connect, so no server is needed here
	db, err := sql.Open("mysql", "root@tcp(127.0.0.1:3306)/partest")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewMySQLStore(db, "partest_blobs", "owner")
	assert.NoError(t, err)

	for _, table := range []string{"", "1blobs", "blobs; DROP TABLE x", "bl`obs"} {
		_, err := NewMySQLStore(db, table, "owner")
		assert.Error(t, err, table)
	}
}

func TestMySQLConfig(t *testing.T) {
	mc := mysqlConfig(config.MySQLConfig{
		Host:     "db",
		Port:     "3307",
		User:     "ci",
		Password: "secret",
		Database: "partest",
	})
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db:3307", mc.Addr)
	assert.Equal(t, "ci", mc.User)
	assert.Equal(t, "partest", mc.DBName)
	assert.Contains(t, mc.FormatDSN(), "ci:secret@tcp(db:3307)/partest")
}

const (
	insertBlob   = "INSERT INTO `partest_blobs` (name, owner, manifest, created_at)"
	selectHandle = "SELECT owner, created_at FROM `partest_blobs` WHERE name = ?"
	selectBlob   = "SELECT manifest FROM `partest_blobs` WHERE name = ?"
)

func setupMockStore(t *testing.T, owner string) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewMySQLStore(db, config.DefaultMySQLTable, owner)
	require.NoError(t, err)
	return store, mock
}

// manifestArg matches the manifest column and keeps its value
type manifestArg struct {
	data *[]byte
}

func (a manifestArg) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if ok {
		*a.data = b
	}
	return ok
}

func TestMySQLStore_CreateFetchDownload(t *testing.T) {
	ctx := context.Background()
	store, mock := setupMockStore(t, "owner-a")

	var manifest []byte
	mock.ExpectExec(regexp.QuoteMeta(insertBlob)).
		WithArgs("plan", "owner-a", manifestArg{data: &manifest}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, err := store.Create(ctx, "plan", planFiles())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	require.NotEmpty(t, manifest)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectHandle)).
		WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "created_at"}).AddRow("owner-a", created))

	h, status, err := store.Fetch(ctx, "plan")
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, Handle{Name: "plan", ID: "plan", Owner: "owner-a", CreatedAt: created}, h)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlob)).
		WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"manifest"}).AddRow(manifest))

	dir := t.TempDir()
	require.NoError(t, store.Download(ctx, h, dir))
	data, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	assert.Equal(t, "a.spec.ts\nb.spec.ts", string(data))
	data, err = os.ReadFile(filepath.Join(dir, "2"))
	require.NoError(t, err)
	assert.Equal(t, "c.spec.ts", string(data))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Create(t *testing.T) {
	tests := []struct {
		name       string
		execErr    error
		wantStatus Status
		wantErr    bool
	}{
		{name: "duplicate key is a conflict", execErr: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'plan' for key 'PRIMARY'"}, wantStatus: StatusConflict},
		{name: "other mysql error", execErr: &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, wantErr: true},
		{name: "connection error", execErr: errors.New("connection refused"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockStore(t, "owner-b")
			mock.ExpectExec(regexp.QuoteMeta(insertBlob)).
				WithArgs("plan", "owner-b", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnError(tt.execErr)

			status, err := store.Create(context.Background(), "plan", planFiles())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMySQLStore_FetchMissing(t *testing.T) {
	store, mock := setupMockStore(t, "owner-a")
	mock.ExpectQuery(regexp.QuoteMeta(selectHandle)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "created_at"}))

	_, status, err := store.Fetch(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_TransportErrors(t *testing.T) {
	ctx := context.Background()
	store, mock := setupMockStore(t, "owner-a")

	mock.ExpectQuery(regexp.QuoteMeta(selectHandle)).
		WithArgs("plan").
		WillReturnError(errors.New("i/o timeout"))
	_, _, err := store.Fetch(ctx, "plan")
	assert.ErrorContains(t, err, "query blob plan")

	mock.ExpectQuery(regexp.QuoteMeta(selectBlob)).
		WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"manifest"}))
	err = store.Download(ctx, Handle{Name: "plan", ID: "plan"}, t.TempDir())
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
