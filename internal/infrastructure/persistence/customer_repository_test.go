package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
)

// newMockCustomerRepository creates a GormCustomerRepository with a mocked SQL connection
func newMockCustomerRepository(t *testing.T) (*GormCustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCustomerRepository(gormDB), mock, mockDB
}

func customerRows(id uuid.UUID, phone, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "version", "phone", "name", "balance", "credit_limit"}).
		AddRow(id, 1, phone, name, decimal.Zero, decimal.Zero)
}

func TestNewGormCustomerRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("finds existing customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnRows(customerRows(customerID, "03080203", "Rita Khoury"))

		customer, err := repo.FindByID(context.Background(), customerID)

		assert.NoError(t, err)
		assert.NotNil(t, customer)
		assert.Equal(t, customerID, customer.ID)
		assert.Equal(t, "03080203", customer.Phone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		customer, err := repo.FindByID(context.Background(), customerID)

		assert.Error(t, err)
		assert.Nil(t, customer)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByPhone(t *testing.T) {
	t.Run("finds customer by phone", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE phone = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("03080203", 1).
			WillReturnRows(customerRows(customerID, "03080203", "Rita Khoury"))

		customer, err := repo.FindByPhone(context.Background(), "03080203")

		assert.NoError(t, err)
		assert.NotNil(t, customer)
		assert.Equal(t, "03080203", customer.Phone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for empty phone", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByPhone(context.Background(), "")

		assert.Error(t, err)
	})
}

func TestGormCustomerRepository_FindByPhoneSuffix(t *testing.T) {
	t.Run("finds customer by phone suffix oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE phone LIKE \$1 ORDER BY created_at ASC.* LIMIT .*`).
			WithArgs("%76123456", 1).
			WillReturnRows(customerRows(customerID, "0096176123456", "Samir"))

		customer, err := repo.FindByPhoneSuffix(context.Background(), "76123456")

		assert.NoError(t, err)
		assert.NotNil(t, customer)
		assert.Equal(t, customerID, customer.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no phone ends with the tail", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE phone LIKE \$1 ORDER BY created_at ASC.* LIMIT .*`).
			WithArgs("%99999999", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByPhoneSuffix(context.Background(), "99999999")

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for empty suffix", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByPhoneSuffix(context.Background(), "")

		assert.Error(t, err)
	})
}

func TestGormCustomerRepository_FindByBrainsCode(t *testing.T) {
	t.Run("finds customer by account code", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE brains_account_code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ACC-100", 1).
			WillReturnRows(customerRows(customerID, "03080203", "Rita Khoury"))

		customer, err := repo.FindByBrainsCode(context.Background(), "ACC-100")

		assert.NoError(t, err)
		assert.NotNil(t, customer)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for empty code", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByBrainsCode(context.Background(), "")

		assert.Error(t, err)
	})
}

func TestGormCustomerRepository_Save(t *testing.T) {
	t.Run("saves customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customer, err := partner.NewCustomer("03080203")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "customers" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), customer)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_Count(t *testing.T) {
	t.Run("counts customers", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

		count, err := repo.Count(context.Background(), shared.Filter{})

		assert.NoError(t, err)
		assert.Equal(t, int64(10), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements CustomerRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		var _ partner.CustomerRepository = repo
	})
}
