package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/pkg/database"
)

func setupMock(t *testing.T) (*Backend, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func TestBackend_EnsureSchema(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS shopstate_kv")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, b.EnsureSchema(context.Background()))
}

func TestBackend_Get_Success(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("cart::anon").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`{"items":[]}`))

	v, err := b.Get(context.Background(), "cart::anon")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, v)
}

func TestBackend_Get_NotFound(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := b.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_Get_Error(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	_, err := b.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "select kv")
}

func TestBackend_Set(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shopstate_kv")).
		WithArgs("k", "v").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, b.Set(context.Background(), "k", "v"))
}

func TestBackend_Set_Error(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shopstate_kv")).
		WithArgs("k", "v").
		WillReturnError(errors.New("read-only transaction"))

	err := b.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert kv")
}

func TestBackend_Delete(t *testing.T) {
	b, mock := setupMock(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, b.Delete(context.Background(), "k"))
}

func TestBackend_Ping(t *testing.T) {
	b, _ := setupMock(t)

	require.NoError(t, b.Ping(context.Background()))
}
