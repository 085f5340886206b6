package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/mkisten/UserBankingService/internal/audit"
	"github.com/mkisten/UserBankingService/internal/cache"
	"github.com/mkisten/UserBankingService/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func quietAudit() *audit.Logger {
	logger, _ := test.NewNullLogger()
	return audit.NewLogger(logger)
}

func newUserService(db *sqlx.DB, rdb *redis.Client) *UserService {
	return NewUserService(
		db,
		repository.NewUserRepository(),
		repository.NewEmailRepository(),
		repository.NewPhoneRepository(),
		cache.New(rdb, 0),
		quietAudit(),
	)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	accountCols = []string{"id", "user_id", "balance", "initial_balance"}
	contactCols = []string{"id", "user_id", "value"}
	userCols    = []string{"id", "name", "date_of_birth", "password"}
)
