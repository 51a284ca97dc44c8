package clients

import (
	"context"

	ws "utang-ledger/internal/transport/websocket"
)

const (
	EventPaymentRecorded = "payment_recorded"
	EventExportProgress  = "export_progress"
	EventExportComplete  = "export_complete"
	EventExportFailed    = "export_failed"
)

// WebSocketClient turns ledger and export events into hub messages.
// A nil hub makes every notification a no-op.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) send(user, event, channel string, data map[string]any) error {
	if c.hub == nil {
		return nil
	}
	c.hub.Broadcast(user, &ws.Message{
		Type:    event,
		Channel: channel + "#" + user,
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifyExportProgress(ctx context.Context, user, exportID string, progress float64, stage string) error {
	data := map[string]any{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}
	return c.send(user, EventExportProgress, "export_progress", data)
}

func (c *WebSocketClient) NotifyExportComplete(ctx context.Context, user, exportID, url, filename string) error {
	return c.send(user, EventExportComplete, "export_complete", map[string]any{
		"id":       exportID,
		"url":      url,
		"filename": filename,
	})
}

func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, user, exportID, errMsg string) error {
	return c.send(user, EventExportFailed, "export_failed", map[string]any{
		"id":      exportID,
		"message": errMsg,
	})
}

// NotifyPaymentRecorded announces the records a payment was split into.
func (c *WebSocketClient) NotifyPaymentRecorded(ctx context.Context, user string, payload map[string]any) error {
	return c.send(user, EventPaymentRecorded, "ledger", payload)
}
