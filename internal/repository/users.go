package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkisten/UserBankingService/internal/models"
)

// UserRepository reads the users table.
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userColumns = `u.id, u.name, u.date_of_birth, u.password`

func (r *UserRepository) FindByID(ctx context.Context, q DBExecutor, id int64) (*models.User, error) {
	var user models.User
	err := q.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// Search returns one page of users matching every supplied criterion, plus
// the total number of matches.
func (r *UserRepository) Search(ctx context.Context, q DBExecutor, c models.SearchCriteria, page, size int) ([]models.User, int64, error) {
	where, args := buildSearchFilter(c)

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM users u`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users := []models.User{}
	if total == 0 || int64(page)*int64(size) >= total {
		return users, total, nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM users u%s ORDER BY u.id LIMIT $%d OFFSET $%d`, userColumns, where, n+1, n+2)
	args = append(args, size, page*size)
	if err := q.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return users, total, nil
}

// buildSearchFilter conjoins the supplied criteria into a WHERE clause with
// positional placeholders.
func buildSearchFilter(c models.SearchCriteria) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Name != "" {
		clauses = append(clauses, "u.name LIKE "+next(escapeLike(c.Name)+"%"))
	}
	if c.Email != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM email_data e WHERE e.user_id = u.id AND e.email = "+next(c.Email)+")")
	}
	if c.Phone != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM phone_data p WHERE p.user_id = u.id AND p.phone = "+next(c.Phone)+")")
	}
	if c.DateOfBirth != nil {
		clauses = append(clauses, "u.date_of_birth > "+next(c.DateOfBirth.Format(models.DateLayout)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// escapeLike makes wildcard characters in a user-supplied prefix literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
