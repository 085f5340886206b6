package audit

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	EventTransfer       = "TRANSFER"
	EventCompound       = "COMPOUND"
	EventContactAdded   = "CONTACT_ADDED"
	EventContactRemoved = "CONTACT_REMOVED"

	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    int64     `json:"user_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger writes one JSON audit line per business event.
type Logger struct {
	out logrus.FieldLogger
	now func() time.Time
}

func NewLogger(out logrus.FieldLogger) *Logger {
	if out == nil {
		out = logrus.StandardLogger()
	}
	return &Logger{out: out, now: time.Now}
}

func (a *Logger) LogTransfer(fromUser, toUser int64, amount decimal.Decimal, err error) {
	event := Event{
		EventType: EventTransfer,
		UserID:    fromUser,
		Amount:    amount.StringFixed(2),
		Status:    StatusSuccess,
		Details:   map[string]any{"to_user_id": toUser},
	}
	if err != nil {
		event.Status = StatusFailed
		event.Details = map[string]any{"to_user_id": toUser, "error": err.Error()}
	}
	a.log(event)
}

func (a *Logger) LogContact(userID int64, kind, value string, added bool) {
	eventType := EventContactRemoved
	if added {
		eventType = EventContactAdded
	}
	a.log(Event{
		EventType: eventType,
		UserID:    userID,
		Status:    StatusSuccess,
		Details:   map[string]string{"kind": kind, "value": value},
	})
}

func (a *Logger) LogCompound(updated, total int, err error) {
	event := Event{
		EventType: EventCompound,
		Status:    StatusSuccess,
		Details:   map[string]int{"accounts_updated": updated, "accounts_total": total},
	}
	if err != nil {
		event.Status = StatusFailed
		event.Details = map[string]string{"error": err.Error()}
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.out.Infof("AUDIT: %s", string(data))
}
