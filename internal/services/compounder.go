package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mkisten/UserBankingService/internal/audit"
	"github.com/mkisten/UserBankingService/internal/database"
	"github.com/mkisten/UserBankingService/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Compounder periodically grows every balance by 10%, capped at the account
// ceiling. Once a tick finds every account capped it unschedules itself.
type Compounder struct {
	db       DB
	accounts AccountStore
	audit    *audit.Logger
	period   time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	stopped bool
}

func NewCompounder(db DB, accounts AccountStore, a *audit.Logger, period time.Duration) *Compounder {
	if a == nil {
		a = audit.NewLogger(nil)
	}
	return &Compounder{
		db:       db,
		accounts: accounts,
		audit:    a,
		period:   period,
		log:      logrus.WithField("component", "compounder"),
	}
}

// Start schedules ticks every period. Overlapping ticks are skipped.
func (c *Compounder) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return fmt.Errorf("compounder already started")
	}

	logger := cron.PrintfLogger(c.log)
	c.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.period), c.run)
	if err != nil {
		c.cron = nil
		return fmt.Errorf("schedule compounder: %w", err)
	}
	c.entryID = id
	c.cron.Start()

	c.log.WithField("period", c.period).Info("[COMPOUND] scheduled")
	return nil
}

// Stop unschedules the compounder and waits for a running tick to finish.
func (c *Compounder) Stop() {
	c.mu.Lock()
	sched := c.cron
	c.mu.Unlock()
	if sched == nil {
		return
	}
	<-sched.Stop().Done()
}

// Stopped reports whether the compounder unscheduled itself.
func (c *Compounder) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Compounder) run() {
	progressed, err := c.Tick(context.Background())
	if err != nil || progressed {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.cron != nil {
		c.cron.Remove(c.entryID)
	}
	c.log.Info("[COMPOUND] every account reached its ceiling, unscheduled")
}

// Tick compounds every account once inside a single transaction. It reports
// whether any account was still below its ceiling. A failure on any account
// rolls back the whole tick.
func (c *Compounder) Tick(ctx context.Context) (progressed bool, err error) {
	start := time.Now()
	var updated, total int

	err = database.WithTx(ctx, c.db, database.RepeatableRead, func(tx *sqlx.Tx) error {
		accounts, err := c.accounts.ListAll(ctx, tx)
		if err != nil {
			return err
		}
		total = len(accounts)
		// An empty table is not "every account capped".
		progressed = total == 0

		for i := range accounts {
			account := &accounts[i]
			if account.AtCeiling() {
				continue
			}
			progressed = true

			next := account.Compounded()
			if next.Equal(account.Balance) {
				continue
			}
			account.Balance = next
			if err := c.accounts.Save(ctx, tx, account); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		updated = 0
		progressed = true
	}

	metrics.RecordCompound(updated, time.Since(start), err)
	c.audit.LogCompound(updated, total, err)

	entry := c.log.WithFields(logrus.Fields{"updated": updated, "total": total})
	if err != nil {
		entry.WithError(err).Error("[COMPOUND] tick rolled back")
		return progressed, err
	}
	entry.Debug("[COMPOUND] tick committed")
	return progressed, nil
}
