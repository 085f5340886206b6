package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mkisten/UserBankingService/internal/audit"
	"github.com/mkisten/UserBankingService/internal/database"
	"github.com/mkisten/UserBankingService/internal/metrics"
	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/mkisten/UserBankingService/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type TransferService struct {
	db       DB
	accounts AccountStore
	audit    *audit.Logger
	log      *logrus.Entry
}

func NewTransferService(db DB, accounts AccountStore, a *audit.Logger) *TransferService {
	if a == nil {
		a = audit.NewLogger(nil)
	}
	return &TransferService{
		db:       db,
		accounts: accounts,
		audit:    a,
		log:      logrus.WithField("component", "transfer_service"),
	}
}

// Transfer moves amount from the account of fromUserID to the account of
// toUserID. Both rows are locked in ascending user id order, so opposing
// transfers over the same pair queue behind each other instead of
// deadlocking.
func (s *TransferService) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = string(KindOf(err))
		}
		metrics.RecordTransfer(result)
		s.audit.LogTransfer(fromUserID, toUserID, amount, err)
	}()

	if !amount.IsPositive() {
		return BadRequest("amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return BadRequest("amount must have at most 2 decimal places")
	}
	if toUserID <= 0 {
		return BadRequest("recipient is required")
	}
	if fromUserID == toUserID {
		return BadRequest("self-transfer forbidden")
	}

	err = database.WithTx(ctx, s.db, database.ReadCommitted, func(tx *sqlx.Tx) error {
		first, second := fromUserID, toUserID
		if first > second {
			first, second = second, first
		}

		a, err := s.lock(ctx, tx, first)
		if err != nil {
			return err
		}
		b, err := s.lock(ctx, tx, second)
		if err != nil {
			return err
		}

		from, to := a, b
		if first != fromUserID {
			from, to = b, a
		}

		if from.Balance.LessThan(amount) {
			return Conflict("insufficient funds")
		}
		credited := to.Balance.Add(amount)
		if credited.GreaterThan(to.Ceiling()) {
			return Conflict("recipient balance limit exceeded")
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = credited

		if err := s.accounts.Save(ctx, tx, from); err != nil {
			return err
		}
		return s.accounts.Save(ctx, tx, to)
	})
	if err != nil {
		err = storeError(err)
		entry := s.log.WithFields(logrus.Fields{
			"from_user_id": fromUserID,
			"to_user_id":   toUserID,
			"amount":       amount.StringFixed(2),
		})
		if KindOf(err) == KindInternal {
			entry.WithError(err).Error("[TRANSFER] failed")
		} else {
			entry.WithField("reason", err.Error()).Info("[TRANSFER] rejected")
		}
		return err
	}

	s.log.WithFields(logrus.Fields{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
		"amount":       amount.StringFixed(2),
	}).Info("[TRANSFER] completed")
	return nil
}

func (s *TransferService) lock(ctx context.Context, tx *sqlx.Tx, userID int64) (*models.Account, error) {
	account, err := s.accounts.FindByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound(fmt.Sprintf("account for user %d not found", userID))
		}
		return nil, err
	}
	return account, nil
}
