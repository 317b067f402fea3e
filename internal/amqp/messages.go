package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var errInvalidEvent = errors.New("invalid transaction event")

// EncodeEvent renders the wire form of a transaction event. The body carries
// only identifiers; consumers reload the transaction from the store.
func EncodeEvent(evt core.TransactionEvent) ([]byte, error) {
	if err := validateEvent(evt); err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}

// DecodeEvent parses and validates a message body.
func DecodeEvent(data []byte) (core.TransactionEvent, error) {
	var evt core.TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return core.TransactionEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if err := validateEvent(evt); err != nil {
		return core.TransactionEvent{}, err
	}
	return evt, nil
}

func validateEvent(evt core.TransactionEvent) error {
	switch evt.Kind {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return fmt.Errorf("%w: kind %q", errInvalidEvent, evt.Kind)
	}
	if evt.UserID == "" || evt.TransactionID == "" {
		return fmt.Errorf("%w: missing ids", errInvalidEvent)
	}
	if !evt.Month.Valid() {
		return fmt.Errorf("%w: month %q", errInvalidEvent, evt.Month)
	}
	return nil
}
