package models

import "github.com/shopspring/decimal"

var (
	// CeilingFactor bounds a balance relative to the initial deposit.
	CeilingFactor = decimal.RequireFromString("2.07")
	// GrowthFactor is applied to every balance on each compounding tick.
	GrowthFactor = decimal.RequireFromString("1.10")
)

type Account struct {
	ID             int64           `json:"id" db:"id"`
	UserID         int64           `json:"userId" db:"user_id"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	InitialBalance decimal.Decimal `json:"initialBalance" db:"initial_balance"`
}

// Ceiling is initial_balance × 2.07 quantised down to cents, so a stored
// balance equal to it never exceeds the exact product.
func (a Account) Ceiling() decimal.Decimal {
	return a.InitialBalance.Mul(CeilingFactor).Truncate(2)
}

// Compounded returns the balance after one growth step, capped at the ceiling
// and rounded half-up to cents.
func (a Account) Compounded() decimal.Decimal {
	ceiling := a.Ceiling()
	next := a.Balance.Mul(GrowthFactor)
	if next.GreaterThan(ceiling) {
		next = ceiling
	}
	return next.Round(2)
}

// AtCeiling reports whether the account can no longer grow.
func (a Account) AtCeiling() bool {
	return a.Balance.GreaterThanOrEqual(a.Ceiling())
}
