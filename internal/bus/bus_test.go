package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 10)
	defer unsub()

	b.Emit("chat.messages_changed", "conv-1")

	select {
	case evt := <-ch:
		if evt.Kind != "chat.messages_changed" {
			t.Errorf("got kind %q, want chat.messages_changed", evt.Kind)
		}
		if evt.Payload != "conv-1" {
			t.Errorf("payload = %v, want conv-1", evt.Payload)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.send", 10)
	defer unsub()

	b.Publish(Event{Kind: "chat.contacts_failed"})
	b.Publish(Event{Kind: "chat.send_failed"})

	select {
	case evt := <-ch:
		if evt.Kind != "chat.send_failed" {
			t.Errorf("got kind %q, want chat.send_failed", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 10)
	unsub()
	unsub() // second call is harmless

	if n := b.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}

	b.Emit("chat.presence_changed", nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
}

func TestNilBusPublish(t *testing.T) {
	var b *Bus
	b.Emit("chat.anything", nil)
}
