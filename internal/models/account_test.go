package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAccount_Compounded(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		initial  string
		expected string
	}{
		{"grows by ten percent", "1000.00", "1000.00", "1100.00"},
		{"capped at ceiling", "2000.00", "1000.00", "2070.00"},
		{"stays at ceiling", "2070.00", "1000.00", "2070.00"},
		{"rounds half up", "0.05", "1.00", "0.06"},
		{"zero stays zero", "0", "100.00", "0"},
		{"ceiling truncated to cents", "0.50", "0.25", "0.51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Account{Balance: dec(tt.balance), InitialBalance: dec(tt.initial)}
			assert.True(t, dec(tt.expected).Equal(a.Compounded()), "got %s", a.Compounded())
		})
	}
}

func TestAccount_AtCeiling(t *testing.T) {
	assert.True(t, Account{Balance: dec("2070.00"), InitialBalance: dec("1000.00")}.AtCeiling())
	assert.False(t, Account{Balance: dec("2069.99"), InitialBalance: dec("1000.00")}.AtCeiling())
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, 0, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Content)

	empty := NewPage([]int{}, 0, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestNewUserView_NeverNilSlices(t *testing.T) {
	v := NewUserView(User{ID: 1, Name: "John"}, nil, nil)
	assert.Equal(t, []string{}, v.Emails)
	assert.Equal(t, []string{}, v.Phones)
}
