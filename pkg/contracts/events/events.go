// Package events contains the event contract definitions for WebSocket
// communication in the EV Market Insights service.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeDataRefreshed signals that the source CSVs were re-read
	// and connected dashboards should re-fetch their view
	MessageTypeDataRefreshed MessageType = "data:refreshed"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// DataRefreshedEvent is the payload of a data:refreshed message.
type DataRefreshedEvent struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	Reason      string    `json:"reason,omitempty"`
	GeoRows     int       `json:"geo_rows"`
	ConcernRows int       `json:"concern_rows"`
}

// SystemStatusEvent reports service health over the socket.
type SystemStatusEvent struct {
	BaseMessage
	Data struct {
		Status  string `json:"status"` // healthy|degraded|unhealthy
		Uptime  string `json:"uptime"`
		Version string `json:"version"`
	} `json:"data"`
}

// ErrorMessage represents an error pushed to a client
type ErrorMessage struct {
	BaseMessage
	Data struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fatal   bool   `json:"fatal"`
	} `json:"data"`
}
