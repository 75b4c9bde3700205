package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType distinguishes the two events on the sync queue.
type MessageType string

const (
	TypeSync   MessageType = "sync"
	TypeDelete MessageType = "delete"
)

// BillMessage is a lightweight event about one bill. It carries only the
// id and version; consumers load the bill from the database.
type BillMessage struct {
	Type      MessageType `json:"type"`
	ID        int64       `json:"id"`
	Version   int64       `json:"version,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewBillSyncMessage announces that bill id changed and now has version.
func NewBillSyncMessage(id, version int64) *BillMessage {
	return &BillMessage{Type: TypeSync, ID: id, Version: version, Timestamp: time.Now().UTC()}
}

// NewBillDeleteMessage announces that bill id was deleted.
func NewBillDeleteMessage(id int64) *BillMessage {
	return &BillMessage{Type: TypeDelete, ID: id, Timestamp: time.Now().UTC()}
}

func (m *BillMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillMessageFromJSON decodes and validates a message body.
func BillMessageFromJSON(data []byte) (*BillMessage, error) {
	var msg BillMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TypeSync, TypeDelete:
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid bill id %d", msg.ID)
	}
	return &msg, nil
}
