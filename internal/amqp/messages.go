package amqp

import (
	"encoding/json"
	"time"

	"gastos/internal/events"
)

// ChangeMessage announces one committed write. It carries only the record
// reference; consumers read the record itself through the API.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         int64     `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(c events.Change) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Collection: string(c.Collection),
		Op:         string(c.Op),
		ID:         c.ID,
		Timestamp:  ts.UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
