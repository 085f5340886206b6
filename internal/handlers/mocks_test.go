package handlers

import (
	"context"

	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, phone, password string) (int64, error) {
	args := m.Called(ctx, email, phone, password)
	return args.Get(0).(int64), args.Error(1)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Generate(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Parse(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Search(ctx context.Context, c models.SearchCriteria, page, size int) (models.Page[models.UserView], error) {
	args := m.Called(ctx, c, page, size)
	return args.Get(0).(models.Page[models.UserView]), args.Error(1)
}

func (m *MockDirectory) AddContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error {
	args := m.Called(ctx, userID, kind, value)
	return args.Error(0)
}

func (m *MockDirectory) RemoveContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error {
	args := m.Called(ctx, userID, kind, value)
	return args.Error(0)
}

type MockTransferrer struct {
	mock.Mock
}

func (m *MockTransferrer) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, fromUserID, toUserID, amount)
	return args.Error(0)
}
