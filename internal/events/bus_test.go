package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RenderStatusEvent, 1)

	unsub := bus.Subscribe(func(e RenderStatusEvent) {
		received <- e
	})
	defer unsub()

	event := RenderStatusEvent{
		JobID:     "render-001",
		Status:    "Processing complete",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Status != event.Status {
		t.Errorf("Expected status %s, got %s", event.Status, got.Status)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan RenderFinishedEvent, 1)
	received2 := make(chan RenderFinishedEvent, 1)

	unsub1 := bus.Subscribe(func(e RenderFinishedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e RenderFinishedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(RenderFinishedEvent{JobID: "render-001", Outcome: "success"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan RenderLogEvent, 1)

	unsub := bus.Subscribe(func(e RenderLogEvent) {
		received <- e
	})

	bus.Publish(RenderLogEvent{Source: "stderr", Line: "frame dropped"})
	<-received

	unsub()

	bus.Publish(RenderLogEvent{Source: "stderr", Line: "another line"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	progressReceived := make(chan bool, 1)
	finishedReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ RenderProgressEvent) {
		progressReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ RenderFinishedEvent) {
		finishedReceived <- true
	})
	defer unsub2()

	bus.Publish(RenderProgressEvent{JobID: "render-001"})
	<-progressReceived

	select {
	case <-finishedReceived:
		t.Fatal("Finished subscriber should NOT have received RenderProgressEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(RenderFinishedEvent{JobID: "render-001", Outcome: "failure"})
	<-finishedReceived
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ RenderStatusEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(RenderStatusEvent{
					Status:    "Processing: continue",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 4)

	unsub := SubscribeToChannel[RenderStartedEvent](bus, ch)
	defer unsub()

	bus.Publish(RenderStartedEvent{JobID: "render-001", Output: "final.mp4"})

	select {
	case raw := <-ch:
		e, ok := raw.(RenderStartedEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", raw)
		}
		if e.Output != "final.mp4" {
			t.Errorf("Output = %q, want final.mp4", e.Output)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for bridged event")
	}
}

func TestSubscribeUnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(int) {})
	unsub() // must not panic
	t.Log("unknown handler type returned no-op unsubscribe")
}
