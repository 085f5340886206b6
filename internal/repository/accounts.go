package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkisten/UserBankingService/internal/models"
)

// AccountRepository reads and writes the account table.
type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

const accountColumns = `id, user_id, balance, initial_balance`

// FindByUserIDForUpdate loads the account owned by userID and holds a row
// write lock on it until the enclosing transaction ends.
func (r *AccountRepository) FindByUserIDForUpdate(ctx context.Context, q DBExecutor, userID int64) (*models.Account, error) {
	var account models.Account
	err := q.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock account for user %d: %w", userID, err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByUserID(ctx context.Context, q DBExecutor, userID int64) (*models.Account, error) {
	var account models.Account
	err := q.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account for user %d: %w", userID, err)
	}
	return &account, nil
}

// Save persists the balance of an account. initial_balance is never written.
func (r *AccountRepository) Save(ctx context.Context, q DBExecutor, account *models.Account) error {
	res, err := q.ExecContext(ctx,
		`UPDATE account SET balance = $1 WHERE id = $2`, account.Balance, account.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every account ordered by id.
func (r *AccountRepository) ListAll(ctx context.Context, q DBExecutor) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := q.SelectContext(ctx, &accounts,
		`SELECT `+accountColumns+` FROM account ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
