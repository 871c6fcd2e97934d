package service

// Event types broadcast to sector subscribers.
const (
	EventAIStatus      = "ai_status"
	EventBatchStarted  = "ai_batch_started"
	EventBatchFinished = "ai_batch_finished"
	EventTurnAdvanced  = "turn_advanced"
	EventSectorCreated = "sector_created"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastSectorEvent(sectorID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastSectorEvent(string, string, any) {}
