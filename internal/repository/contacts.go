package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mkisten/UserBankingService/internal/models"
)

// ContactRepository serves one of the symmetric contact tables. The value
// column is aliased to "value" so both tables scan into models.Contact.
type ContactRepository struct {
	kind   models.ContactKind
	table  string
	column string
}

func NewEmailRepository() *ContactRepository {
	return &ContactRepository{kind: models.ContactEmail, table: "email_data", column: "email"}
}

func NewPhoneRepository() *ContactRepository {
	return &ContactRepository{kind: models.ContactPhone, table: "phone_data", column: "phone"}
}

func (r *ContactRepository) Kind() models.ContactKind {
	return r.kind
}

func (r *ContactRepository) ExistsByValue(ctx context.Context, q DBExecutor, value string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, r.table, r.column)
	if err := q.GetContext(ctx, &exists, query, value); err != nil {
		return false, fmt.Errorf("probe %s: %w", r.column, err)
	}
	return exists, nil
}

func (r *ContactRepository) FindByValue(ctx context.Context, q DBExecutor, value string) (*models.Contact, error) {
	var c models.Contact
	query := fmt.Sprintf(`SELECT id, user_id, %s AS value FROM %s WHERE %s = $1`, r.column, r.table, r.column)
	if err := q.GetContext(ctx, &c, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.column, err)
	}
	return &c, nil
}

func (r *ContactRepository) CountByOwner(ctx context.Context, q DBExecutor, userID int64) (int64, error) {
	var n int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, r.table)
	if err := q.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("count %s for user %d: %w", r.column, userID, err)
	}
	return n, nil
}

// Insert stores a new row; the id comes from the table's sequence.
func (r *ContactRepository) Insert(ctx context.Context, q DBExecutor, c *models.Contact) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, %s) VALUES ($1, $2) RETURNING id`, r.table, r.column)
	if err := q.QueryRowxContext(ctx, query, c.UserID, c.Value).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert %s: %w", r.column, err)
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, q DBExecutor, c *models.Contact) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := q.ExecContext(ctx, query, c.ID)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.column, c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwners returns the values owned by each of the given users.
func (r *ContactRepository) ListByOwners(ctx context.Context, q DBExecutor, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []models.Contact
	query := fmt.Sprintf(`SELECT id, user_id, %s AS value FROM %s WHERE user_id = ANY($1) ORDER BY id`, r.column, r.table)
	if err := q.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.column, err)
	}
	for _, c := range rows {
		out[c.UserID] = append(out[c.UserID], c.Value)
	}
	return out, nil
}
