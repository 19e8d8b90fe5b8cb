// internal/repository/gormstore/store_test.go
package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil, "email"))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound, ""), repository.ErrNotFound)

	err := translateError(gorm.ErrDuplicatedKey, "sku")
	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "sku", dup.Field)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	cause := errors.New("connection refused")
	wrapped := translateError(cause, "")
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "database error")
}

func TestUserGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := store.Users().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "status"}).
			AddRow(id.String(), "crew@example.com", "Crew", "staff", "active"))

	user, err := store.Users().GetByEmail(context.Background(), "crew@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, models.UserRoleStaff, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "idx_users_email"`})

	err := store.Users().Create(context.Background(), &models.User{Email: "dup@example.com", Name: "Dup", Role: models.UserRoleCustomer, Status: models.UserStatusActive})
	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalUpdateStatusMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "rentals" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Rentals().UpdateStatus(context.Background(), uuid.New(), models.RentalStatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rentals" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("capacity exceeded")
	err := store.Transaction(context.Background(), func(tx repository.Store) error {
		if err := tx.Rentals().UpdateStatus(context.Background(), uuid.New(), models.RentalStatusCancelled); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rentals" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transaction(context.Background(), func(tx repository.Store) error {
		return tx.Rentals().UpdateStatus(context.Background(), uuid.New(), models.RentalStatusActive)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCommittedQuery(t *testing.T) {
	store, mock := newMockStore(t)
	variantID := uuid.New()
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	// Intervals intersect when r.start <= query end and query start <= r.end.
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT a\.inventory_unit_id\).*` +
		`WHERE u\.variant_id = \$1\s+AND r\.status IN \(\$2,\$3\)\s+` +
		`AND r\.start_date <= CAST\(\$4 AS date\)\s+AND CAST\(\$5 AS date\) <= r\.end_date`).
		WithArgs(variantID, "confirmed", "active", "2024-06-05", "2024-06-03").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := store.Inventory().CountCommitted(context.Background(), variantID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservedQuantityQuery(t *testing.T) {
	store, mock := newMockStore(t)
	variantID := uuid.New()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(i\.quantity\), 0\).*` +
		`WHERE i\.variant_id = \$1\s+AND r\.status IN \(\$2,\$3,\$4\)\s+` +
		`AND r\.start_date <= CAST\(\$5 AS date\)\s+AND CAST\(\$6 AS date\) <= r\.end_date`).
		WithArgs(variantID, "pending", "confirmed", "active", "2024-06-02", "2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5))

	reserved, err := store.Rentals().ReservedQuantity(context.Background(), variantID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(5), reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalGetForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "rentals" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), "confirmed"))

	rental, err := store.Rentals().GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, rental.ID)
	assert.Equal(t, models.RentalStatusConfirmed, rental.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
