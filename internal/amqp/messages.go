package amqp

import (
	"encoding/json"
	"time"

	"budgetbook/internal/core"
)

// MonthSyncMessage tells the sync worker that a month changed. It carries
// only the key and the ledger version; the worker reads the full record from
// the database.
type MonthSyncMessage struct {
	Key       core.MonthKey `json:"key"`
	Version   int64         `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewMonthSyncMessage(key core.MonthKey, version int64) *MonthSyncMessage {
	return &MonthSyncMessage{
		Key:       key,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *MonthSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthSyncMessageFromJSON(data []byte) (*MonthSyncMessage, error) {
	var msg MonthSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParseMonthKey(string(msg.Key)); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LimitAlertMessage is a category limit notification fanned out to external
// consumers (mail bridge, chat bot).
type LimitAlertMessage struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLimitAlertMessage(title, body string) *LimitAlertMessage {
	return &LimitAlertMessage{
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func (m *LimitAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LimitAlertMessageFromJSON(data []byte) (*LimitAlertMessage, error) {
	var msg LimitAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
