package realtime

import (
	"time"

	"github.com/wonny/imi/internal/contracts"
)

// EventType names a realtime broadcast
type EventType string

const (
	EventSignalUpserted EventType = "signal.upserted"
	EventSignalSeeded   EventType = "signal.seeded"
	EventAlertsUpdated  EventType = "alerts.updated"
)

// SignalEvent is pushed to every websocket subscriber
// ⭐ SSOT: 실시간 이벤트 구조
type SignalEvent struct {
	Type    EventType          `json:"type"`
	Signal  *contracts.Signal  `json:"signal,omitempty"`
	Signals []contracts.Signal `json:"signals,omitempty"`
	UserID  string             `json:"user_id,omitempty"`
	At      time.Time          `json:"at"`
}

// Publisher is what writers need from the hub
type Publisher interface {
	Publish(ev SignalEvent)
}

// NopPublisher discards events (CLI commands, tests)
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(SignalEvent) {}
