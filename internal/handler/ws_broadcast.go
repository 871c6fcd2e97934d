package handler

// BroadcastSectorEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastSectorEvent(sectorID string, eventType string, data any) {
	h.BroadcastToSector(sectorID, WSEvent{
		Type:     eventType,
		SectorID: sectorID,
		Data:     data,
	})
}
