package eventbus

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
)

func TestDispatch_OrderAndPayload(t *testing.T) {
	b := New()
	var calls []string
	b.Subscribe("cart-updated", func(_ context.Context, ev Event) {
		calls = append(calls, "first:"+string(ev.Detail))
	})
	b.Subscribe("cart-updated", func(_ context.Context, ev Event) {
		calls = append(calls, "second:"+ev.Name)
	})
	b.Subscribe("other", func(_ context.Context, ev Event) {
		calls = append(calls, "other")
	})

	n := b.Dispatch(context.Background(), "cart-updated", json.RawMessage(`{"count":3}`))
	if n != 2 {
		t.Errorf("handlers called: %d", n)
	}
	want := []string{`first:{"count":3}`, "second:cart-updated"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("got %v, want %v", calls, want)
	}
}

func TestDispatch_WildcardRunsAfterNamed(t *testing.T) {
	b := New()
	var calls []string
	b.Subscribe(All, func(_ context.Context, ev Event) { calls = append(calls, "all:"+ev.Name) })
	b.Subscribe("x", func(_ context.Context, ev Event) { calls = append(calls, "x") })

	b.Dispatch(context.Background(), "x", nil)
	b.Dispatch(context.Background(), "y", nil)

	want := []string{"x", "all:x", "all:y"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("got %v, want %v", calls, want)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	unsub := b.Subscribe("x", func(context.Context, Event) { count++ })
	keep := b.Subscribe("x", func(context.Context, Event) { count += 10 })
	defer keep()

	unsub()
	unsub()
	b.Dispatch(context.Background(), "x", nil)

	if count != 10 {
		t.Errorf("count: got %d, want 10", count)
	}
	if b.SubscriberCount("x") != 1 {
		t.Errorf("subscribers: %d", b.SubscriberCount("x"))
	}
}

func TestHandlerMaySubscribeDuringDispatch(t *testing.T) {
	b := New()
	b.Subscribe("x", func(context.Context, Event) {
		b.Subscribe("x", func(context.Context, Event) {})
	})
	if n := b.Dispatch(context.Background(), "x", nil); n != 1 {
		t.Errorf("handlers called: %d, want 1", n)
	}
	if b.SubscriberCount("x") != 2 {
		t.Errorf("subscribers: %d", b.SubscriberCount("x"))
	}
}
