package model

import "time"

// EventType identifies the payload carried by a bus event.
type EventType string

const (
	EventTick            EventType = "tick"
	EventCandle          EventType = "candle"
	EventSignal          EventType = "signal"
	EventOrder           EventType = "order"
	EventTrade           EventType = "trade"
	EventError           EventType = "error"
	EventImportProgress  EventType = "import_progress"
	EventImportCompleted EventType = "import_completed"
)

// Event is one notification published on the event bus. Delivery is
// best-effort: no persistence, no ordering guarantee across event types.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ImportProgressPayload accompanies EventImportProgress.
type ImportProgressPayload struct {
	TaskID          string  `json:"task_id"`
	Symbol          string  `json:"symbol"`
	Progress        float64 `json:"progress"`
	ImportedCandles int     `json:"imported_candles"`
}

// ImportCompletedPayload accompanies EventImportCompleted.
type ImportCompletedPayload struct {
	TaskID          string `json:"task_id"`
	Symbol          string `json:"symbol"`
	ImportedCandles int    `json:"imported_candles"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	Scope   string `json:"scope"`
	Message string `json:"message"`
}
