package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidMessage = errors.New("invalid budget change message")

// BudgetChangedMessage tells every server instance that data of a budget
// changed remotely. It carries no payload; receivers re-fetch on demand.
type BudgetChangedMessage struct {
	BudgetID  string    `json:"budgetId"`
	Resource  string    `json:"resource"`
	Operation string    `json:"operation"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetChangedMessage(budgetID, resource, operation, origin string) *BudgetChangedMessage {
	return &BudgetChangedMessage{
		BudgetID:  budgetID,
		Resource:  resource,
		Operation: operation,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BudgetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetChangedMessageFromJSON decodes a message and rejects one without a
// budget id.
func BudgetChangedMessageFromJSON(data []byte) (*BudgetChangedMessage, error) {
	var msg BudgetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BudgetID == "" {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
