package messaging

import (
	"testing"
	"time"
)

func TestBroker(t *testing.T) {
	t.Run("test fan-out", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(func() {
			broker.Reset()
		})
		ch1 := make(chan EpisodeResult, 1)
		ch2 := make(chan EpisodeResult, 1)

		if err := broker.Subscribe("cli", ch1); err != nil {
			t.Fatalf("Failed to subscribe cli: %v", err)
		}
		if err := broker.Subscribe("recorder", ch2); err != nil {
			t.Fatalf("Failed to subscribe recorder: %v", err)
		}

		res := EpisodeResult{
			RunID:     "run-1",
			Episode:   3,
			Steps:     12,
			Returns:   map[string]float64{"agent_0": 12, "agent_1": 12},
			Timestamp: time.Now(),
		}

		if err := broker.Publish(res); err != nil {
			t.Fatalf("Failed to publish result: %v", err)
		}

		for _, ch := range []chan EpisodeResult{ch1, ch2} {
			select {
			case received := <-ch:
				if received.RunID != "run-1" || received.Episode != 3 {
					t.Errorf("Unexpected result received: %+v", received)
				}
			case <-time.After(time.Second):
				t.Error("Timeout waiting for result")
			}
		}
	})

	t.Run("test subscription management", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(func() {
			broker.Reset()
		})
		ch := make(chan EpisodeResult, 1)

		// Test subscribe
		if err := broker.Subscribe("cli", ch); err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}

		// Test duplicate subscription
		if err := broker.Subscribe("cli", ch); err == nil {
			t.Error("Expected error for duplicate subscription, got nil")
		}

		// Test unsubscribe
		if err := broker.Unsubscribe("cli"); err != nil {
			t.Fatalf("Failed to unsubscribe: %v", err)
		}

		// Test unsubscribe non-existent observer
		if err := broker.Unsubscribe("cli"); err == nil {
			t.Error("Expected error for unsubscribing non-existent observer, got nil")
		}
	})

	t.Run("test channel full behavior", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(func() {
			broker.Reset()
		})
		ch := make(chan EpisodeResult, 1) // Buffer size of 1

		if err := broker.Subscribe("cli", ch); err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}

		res := EpisodeResult{RunID: "run-1", Episode: 0, Timestamp: time.Now()}

		// Fill the channel
		if err := broker.Publish(res); err != nil {
			t.Fatalf("Failed to publish first result: %v", err)
		}

		// Try to publish into the full channel
		res.Episode = 1
		if err := broker.Publish(res); err == nil {
			t.Error("Expected error when publishing to full channel, got nil")
		}
	})
}
