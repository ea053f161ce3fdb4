// Package notify delivers search session events to observers.
//
// Sessions publish highlight, no-match, replaced and decision-needed
// events through a Notifier. Observers subscribe to every event or to a
// single kind. Delivery is synchronous by default; WithAsync moves it onto
// a background goroutine for callers that observe from another thread.
package notify

import (
	"sort"
	"sync"
)

// Kind identifies what happened in a session.
type Kind int

const (
	// KindHighlight is sent for every match reported to the caller.
	KindHighlight Kind = iota

	// KindNoMatch is sent when a fragment is exhausted.
	KindNoMatch

	// KindReplaced is sent after a replacement was applied.
	KindReplaced

	// KindDecisionNeeded is sent when a replace session waits for a decision.
	KindDecisionNeeded
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHighlight:
		return "highlight"
	case KindNoMatch:
		return "noMatch"
	case KindReplaced:
		return "replaced"
	case KindDecisionNeeded:
		return "decisionNeeded"
	default:
		return "unknown"
	}
}

// Event describes one session event. Fields that do not apply to the
// kind are left zero.
type Event struct {
	Kind Kind

	// Session is the identifier of the emitting session.
	Session string

	// Fragment is the fragment the event refers to.
	Fragment int

	// Text is the fragment text after the event (replaced) or the text
	// the match was found in (highlight, decisionNeeded).
	Text string

	// Offset and Length locate the match within Text.
	Offset int
	Length int

	// ReplacedLength is the length of the inserted replacement.
	ReplacedLength int

	// Replacement is the proposed replacement (decisionNeeded).
	Replacement string
}

// Observer is called for each delivered event.
type Observer func(ev Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	observer Observer
	kind     Kind
	all      bool
}

// Notifier fans events out to subscribed observers.
type Notifier struct {
	mu sync.RWMutex

	observers map[uint64]entry
	nextID    uint64

	async  bool
	buffer chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery with the given buffer size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Event, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]entry),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all events.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(entry{observer: observer, all: true})
}

// SubscribeKind registers an observer for events of one kind.
func (n *Notifier) SubscribeKind(kind Kind, observer Observer) *Subscription {
	return n.add(entry{observer: observer, kind: kind})
}

func (n *Notifier) add(e entry) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = e

	return &Subscription{id: id, notifier: n}
}

// Notify sends an event to all matching observers.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- ev:
		case <-n.done:
		}
		return
	}

	n.deliver(ev)
}

// Close shuts down the notifier, flushing pending asynchronous events.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// deliver calls matching observers in subscription order, outside the lock.
func (n *Notifier) deliver(ev Event) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id, e := range n.observers {
		if e.all || e.kind == ev.Kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.observers[id].observer
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(ev)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case ev := <-n.buffer:
			n.deliver(ev)
		case <-n.done:
			for {
				select {
				case ev := <-n.buffer:
					n.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// Recorder is an Observer that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe records ev. Pass r.Observe to Subscribe.
func (r *Recorder) Observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	events := r.Events()
	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}
