package events

import "testing"

func TestPublishReachesSubscribersUntilUnsubscribed(t *testing.T) {
	b := NewBus()
	var got []Event
	unsub := b.Subscribe(func(e Event) { got = append(got, e) })

	b.Toast("u1", Success, "Added to bucket list")
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	p, ok := got[0].Payload.(ToastPayload)
	if !ok || p.Level != Success || got[0].UserID != "u1" || got[0].At.IsZero() {
		t.Fatalf("unexpected event %+v", got[0])
	}

	unsub()
	b.Publish(Event{Kind: ListsChanged})
	if len(got) != 1 {
		t.Fatalf("unsubscribed handler still called")
	}
}

func TestNilBusDiscards(t *testing.T) {
	var b *Bus
	b.Toast("u1", Info, "ignored")
}
