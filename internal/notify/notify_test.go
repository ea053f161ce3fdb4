package notify

import (
	"sync/atomic"
	"testing"
)

func TestNew_WithAsync(t *testing.T) {
	n := New(WithAsync(16))
	defer n.Close()
	if !n.async {
		t.Error("expected async = true")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindHighlight, "highlight"},
		{KindNoMatch, "noMatch"},
		{KindReplaced, "replaced"},
		{KindDecisionNeeded, "decisionNeeded"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32
	sub := n.Subscribe(func(ev Event) { received.Add(1) })

	n.Notify(Event{Kind: KindHighlight})
	n.Notify(Event{Kind: KindNoMatch})
	if got := received.Load(); got != 2 {
		t.Errorf("received %d events, want 2", got)
	}

	sub.Unsubscribe()
	n.Notify(Event{Kind: KindHighlight})
	if got := received.Load(); got != 2 {
		t.Errorf("unsubscribed observer received event, total %d", got)
	}
}

func TestNotifier_SubscribeKind(t *testing.T) {
	n := New()
	defer n.Close()

	var replaced, highlight atomic.Int32
	n.SubscribeKind(KindReplaced, func(ev Event) { replaced.Add(1) })
	n.SubscribeKind(KindHighlight, func(ev Event) { highlight.Add(1) })

	n.Notify(Event{Kind: KindReplaced, ReplacedLength: 3})
	n.Notify(Event{Kind: KindReplaced})
	n.Notify(Event{Kind: KindHighlight})

	if replaced.Load() != 2 {
		t.Errorf("replaced observer got %d events, want 2", replaced.Load())
	}
	if highlight.Load() != 1 {
		t.Errorf("highlight observer got %d events, want 1", highlight.Load())
	}
}

func TestNotifier_DeliveryOrder(t *testing.T) {
	n := New()
	defer n.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		n.Subscribe(func(ev Event) { order = append(order, i) })
	}

	n.Notify(Event{Kind: KindHighlight})

	for i, got := range order {
		if got != i {
			t.Fatalf("delivery order = %v, want subscription order", order)
		}
	}
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(8))

	rec := &Recorder{}
	n.Subscribe(rec.Observe)

	for i := 0; i < 5; i++ {
		n.Notify(Event{Kind: KindHighlight, Offset: i})
	}
	n.Close()

	events := rec.Events()
	if len(events) != 5 {
		t.Fatalf("got %d events after Close, want 5", len(events))
	}
	for i, ev := range events {
		if ev.Offset != i {
			t.Errorf("event %d offset = %d", i, ev.Offset)
		}
	}
}

func TestNotifier_NotifyAfterClose(t *testing.T) {
	n := New()
	rec := &Recorder{}
	n.Subscribe(rec.Observe)
	n.Close()
	n.Close()

	n.Notify(Event{Kind: KindHighlight})
	if len(rec.Events()) != 0 {
		t.Error("closed notifier delivered an event")
	}
}

func TestRecorder_Kinds(t *testing.T) {
	n := New()
	defer n.Close()
	rec := &Recorder{}
	n.Subscribe(rec.Observe)

	n.Notify(Event{Kind: KindDecisionNeeded})
	n.Notify(Event{Kind: KindReplaced})

	kinds := rec.Kinds()
	if len(kinds) != 2 || kinds[0] != KindDecisionNeeded || kinds[1] != KindReplaced {
		t.Errorf("kinds = %v", kinds)
	}
}
