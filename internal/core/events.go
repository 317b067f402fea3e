package core

import "time"

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent is a lightweight notification of a transaction write.
// Consumers reload whatever state they need from the store.
type TransactionEvent struct {
	Kind          EventKind `json:"kind"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Month         MonthKey  `json:"month"`
	// PreviousMonth is set when an update moved the transaction out of it.
	PreviousMonth MonthKey  `json:"previous_month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Months lists every month whose figures the event changed.
func (e TransactionEvent) Months() []MonthKey {
	if e.PreviousMonth == "" || e.PreviousMonth == e.Month {
		return []MonthKey{e.Month}
	}
	return []MonthKey{e.Month, e.PreviousMonth}
}

func NewTransactionEvent(kind EventKind, tx Transaction, at time.Time) TransactionEvent {
	return TransactionEvent{
		Kind:          kind,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Month:         tx.Month(),
		Timestamp:     at,
	}
}
