// Package events fans out node events to subscribers such as websocket
// clients.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events a subscriber can fall behind before
// events are dropped for it.
const messageBuffer = 100

type subscriber struct {
	ch     chan string
	topics []string
}

// wants reports whether the subscriber asked for the event. A subscriber
// with no topics gets everything.
func (s subscriber) wants(event string) bool {
	if len(s.topics) == 0 {
		return true
	}

	for _, topic := range s.topics {
		if strings.HasPrefix(event, topic) {
			return true
		}
	}

	return false
}

// Events maintains a set of subscribers keyed by a unique id.
type Events struct {
	mu   sync.RWMutex
	subs map[string]subscriber
}

// New constructs an empty set of subscribers.
func New() *Events {
	return &Events{
		subs: make(map[string]subscriber),
	}
}

// Shutdown closes and removes every subscription.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// Acquire subscribes the id to events starting with any of the topics and
// returns the channel the events arrive on. Acquiring an existing id returns
// its channel unchanged.
func (evt *Events) Acquire(id string, topics ...string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:     make(chan string, messageBuffer),
		topics: topics,
	}
	evt.subs[id] = sub

	return sub.ch
}

// Release closes and removes the subscription for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Send delivers the event to every interested subscriber without blocking.
// Subscribers that are not keeping up miss the event.
func (evt *Events) Send(event string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.subs {
		if !sub.wants(event) {
			continue
		}

		select {
		case sub.ch <- event:
		default:
		}
	}
}
