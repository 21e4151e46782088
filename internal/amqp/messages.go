package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseEventMessage is a lightweight notification that a budget's expense
// history changed. It carries only identifiers; the worker re-reads the
// history from the database, so delivery is idempotent.
type ExpenseEventMessage struct {
	BudgetID  string    `json:"budget_id"`
	ExpenseID string    `json:"expense_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEventMessage creates an event for one expense change.
func NewExpenseEventMessage(budgetID, expenseID, action string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		BudgetID:  budgetID,
		ExpenseID: expenseID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON creates a message from JSON bytes
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
