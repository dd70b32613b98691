package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/dividr/rendernode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for render progress, status transitions, process output, and outcomes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"render-started":  events.RenderStartedEvent{},
		"render-progress": events.RenderProgressEvent{},
		"render-status":   events.RenderStatusEvent{},
		"render-log":      events.RenderLogEvent{},
		"render-finished": events.RenderFinishedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.RenderStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RenderProgressEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RenderStatusEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RenderLogEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RenderFinishedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send initial connection confirmation
		if err := send.Data(events.RenderStatusEvent{
			JobID:     "system",
			Status:    "SSE connection established",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
