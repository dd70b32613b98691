package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/dividr/rendernode/internal/api/models"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/logging"
)

// registerLogRoutes registers the log history and log streaming endpoints.
func (s *Server) registerLogRoutes() {
	// Log history from the ring buffer
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Log History",
		Description: "Get recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LogsResponse, error) {
		var entries []models.LogEntryData
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				entries = append(entries, models.LogEntryData{
					Timestamp:  entry.Timestamp,
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				})
			}
		}
		return &models.LogsResponse{
			Body: models.LogsData{Entries: entries, Count: len(entries)},
		}, nil
	})

	// Register SSE endpoint for log streaming
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// First, send all historical logs from the ring buffer
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				event := events.LogEntryEvent{
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				}
				if err := send.Data(event); err != nil {
					return
				}
			}
		}

		// Create event channel for this connection
		eventCh := make(chan any, 100) // Larger buffer for logs

		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		// Stream new log entries as they arrive
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
