package duckdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySettings(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, applySettings(context.Background(), db, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applied in name order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("SET memory_limit = '4GB'").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("SET threads = '4'").WillReturnResult(sqlmock.NewResult(0, 0))

		err = applySettings(context.Background(), db, map[string]string{
			"threads":      "4",
			"memory_limit": "4GB",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("quotes in value are doubled", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("SET custom_user_agent = 'it''s me'").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = applySettings(context.Background(), db, map[string]string{
			"custom_user_agent": "it's me",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid name rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = applySettings(context.Background(), db, map[string]string{
			"no good": "x",
		})
		assert.ErrorContains(t, err, "invalid setting name")
	})
}
