package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Username      string    `json:"username"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// Logger writes ledger audit events as JSON lines through the standard logger
type Logger struct {
	now  func() time.Time
	sink func(format string, v ...any)
}

func NewLogger() *Logger {
	return &Logger{now: time.Now, sink: log.Printf}
}

// NewLoggerWithSink is used by tests to capture events.
func NewLoggerWithSink(now func() time.Time, sink func(format string, v ...any)) *Logger {
	return &Logger{now: now, sink: sink}
}

func (a *Logger) LogTransfer(transactionID, from, to string, amount int64, status string) {
	a.log(Event{
		EventType:     "TRANSFER",
		TransactionID: transactionID,
		Username:      from,
		Amount:        amount,
		Status:        status,
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}

func (a *Logger) LogError(operation, username string, err error) {
	a.log(Event{
		EventType: operation,
		Username:  username,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) LogOperation(transactionID, username, operation string, amount int64, details string) {
	a.log(Event{
		EventType:     operation,
		TransactionID: transactionID,
		Username:      username,
		Amount:        amount,
		Status:        "SUCCESS",
		Details:       map[string]string{"details": details},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.sink("AUDIT: %s", string(data))
}
