package realtime

import (
	"testing"
	"time"

	"certia/pkg/domain"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelA()
	defer cancelB()

	h.Publish(Event{SubmissionID: "sub_1", Status: domain.StatusApproved})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.SubmissionID != "sub_1" || ev.Status != domain.StatusApproved {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive event")
		}
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	h.Publish(Event{SubmissionID: "sub_2", Status: domain.StatusSigned})
	select {
	case ev := <-ch:
		t.Fatalf("unexpected delivery after cancel: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsForSlowConsumers(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	defer cancel()
	// fill well past the buffer; Publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Event{SubmissionID: "sub_3", Status: domain.StatusPending})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow consumer")
	}
}
