package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRunInTransaction(t *testing.T) {
	fnErr := errors.New("function failed")
	driverErr := errors.New("driver failed")

	tests := []struct {
		name    string
		expect  func(sqlmock.Sqlmock)
		fn      TxFn
		wantErr []error
		msg     string
	}{
		{
			name: "commit on success",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit()
			},
			fn: func(context.Context, *sql.Tx) error { return nil },
		},
		{
			name: "rollback on error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback()
			},
			fn:      func(context.Context, *sql.Tx) error { return fnErr },
			wantErr: []error{fnErr},
		},
		{
			name: "begin fails",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(driverErr)
			},
			fn:      func(context.Context, *sql.Tx) error { return nil },
			wantErr: []error{driverErr},
			msg:     "failed to begin transaction",
		},
		{
			name: "commit fails",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(driverErr)
			},
			fn:      func(context.Context, *sql.Tx) error { return nil },
			wantErr: []error{driverErr},
			msg:     "failed to commit transaction",
		},
		{
			name: "rollback fails",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback().WillReturnError(driverErr)
			},
			fn:      func(context.Context, *sql.Tx) error { return fnErr },
			wantErr: []error{fnErr, driverErr},
			msg:     "rollback",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.expect(mock)

			err := RunInTransaction(context.Background(), db, tc.fn)

			if len(tc.wantErr) == 0 {
				assert.NoError(t, err)
			}
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
			panic("boom")
		})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
