package token

import (
	"time"
)

type EventType string

const (
	EventTransfer EventType = "Transfer"
	EventApproval EventType = "Approval"
)

// Event is the notification record observers rely on. Issuance emits a
// Transfer with an empty From (mint convention); Approval carries the owner
// in From and the spender in To.
type Event struct {
	Type      EventType              `json:"type"`
	From      string                 `json:"from,omitempty"`
	To        string                 `json:"to,omitempty"`
	Amount    int64                  `json:"amount"`
	Timestamp time.Time              `json:"timestamp"`
	TxHash    string                 `json:"tx_hash"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// emitEvent records the event and fans it out to subscribers. Caller must
// hold the write lock. Slow subscribers drop events rather than block the
// ledger.
func (l *Ledger) emitEvent(event Event) {
	l.events = append(l.events, event)
	for _, ch := range l.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel receiving every subsequent event. Events are
// dropped if the buffer is full. The channel stays open until Unsubscribe.
func (l *Ledger) Subscribe(buffer int) <-chan Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan Event, buffer)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe removes a channel obtained from Subscribe and closes it, so a
// goroutine ranging over it terminates. Unknown channels are ignored.
func (l *Ledger) Unsubscribe(ch <-chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sub := range l.subscribers {
		if (<-chan Event)(sub) == ch {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Events returns a copy of all recorded events.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

// EventsByType returns recorded events filtered by type.
func (l *Ledger) EventsByType(eventType EventType) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Event
	for _, event := range l.events {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}
