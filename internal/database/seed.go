package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DemoUser describes one provisioned user with its account and contacts.
type DemoUser struct {
	Name        string
	DateOfBirth string
	Password    string
	Email       string
	Phone       string
	Balance     string
}

// DemoUsers is the default provisioning set.
var DemoUsers = []DemoUser{
	{Name: "John", DateOfBirth: "1990-05-01", Password: "p@ss", Email: "john@example.com", Phone: "79201234567", Balance: "1000.00"},
	{Name: "Johanna", DateOfBirth: "1995-11-23", Password: "p@ss", Email: "johanna@example.com", Phone: "79207654321", Balance: "500.00"},
	{Name: "Alice", DateOfBirth: "1988-02-14", Password: "p@ss", Email: "alice@example.com", Phone: "79209990000", Balance: "250.00"},
}

// Seed provisions users when the users table is empty. It is a no-op otherwise.
func Seed(ctx context.Context, db *sqlx.DB, users []DemoUser) error {
	var count int64
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logrus.WithField("users", count).Debug("[SEED] users present, skipping")
		return nil
	}

	return WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		for _, u := range users {
			if err := seedUser(ctx, tx, u); err != nil {
				return fmt.Errorf("seed %s: %w", u.Name, err)
			}
		}
		logrus.WithField("users", len(users)).Info("[SEED] demo users provisioned")
		return nil
	})
}

func seedUser(ctx context.Context, tx *sqlx.Tx, u DemoUser) error {
	dob, err := time.Parse("2006-01-02", u.DateOfBirth)
	if err != nil {
		return err
	}
	balance, err := decimal.NewFromString(u.Balance)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var id int64
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO users (name, date_of_birth, password) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, dob, string(hash),
	).Scan(&id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO account (user_id, balance, initial_balance) VALUES ($1, $2, $2)`,
		id, balance,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO email_data (user_id, email) VALUES ($1, $2)`, id, u.Email); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO phone_data (user_id, phone) VALUES ($1, $2)`, id, u.Phone)
	return err
}
