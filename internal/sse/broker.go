// Package sse streams clipboard history changes to browser and CLI clients
// as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types emitted by the broker.
const (
	TypeEntryCreated   = "entry.created"
	TypeEntryDeleted   = "entry.deleted"
	TypeEntryPinned    = "entry.pinned"
	TypeEntryUnpinned  = "entry.unpinned"
	TypeHistoryCleared = "history.cleared"
	TypeHistoryUpdated = "history.updated"
)

// Event is a single SSE frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type entryChange struct {
	kind string
	id   int64
}

// entryData is the payload of entry.* events.
type entryData struct {
	ID int64 `json:"id"`
}

// Broker fans events out to subscribed clients. Client registration and the
// history.updated throttle are owned by one loop goroutine; the public
// methods only talk to it over channels.
type Broker struct {
	updateMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan entryChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. history.updated is sent at most once per
// updateThrottle; non-positive values mean one second.
func NewBroker(updateThrottle time.Duration) *Broker {
	if updateThrottle <= 0 {
		updateThrottle = time.Second
	}
	b := &Broker{
		updateMin:     updateThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan entryChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.loop()
	return b
}

// entryEventType maps a service event kind to its SSE type.
func entryEventType(kind string) (string, bool) {
	switch kind {
	case "created":
		return TypeEntryCreated, true
	case "deleted":
		return TypeEntryDeleted, true
	case "pinned":
		return TypeEntryPinned, true
	case "unpinned":
		return TypeEntryUnpinned, true
	case "cleared":
		return TypeHistoryCleared, true
	}
	return "", false
}

// frame renders an event in wire format.
func frame(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, payload), nil
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastUpdate time.Time

	send := func(ev Event) {
		raw, err := frame(ev)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client, drop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			send(ev)

		case c := <-b.changeCh:
			typ, ok := entryEventType(c.kind)
			if !ok {
				continue
			}
			if c.kind == "cleared" {
				send(Event{Type: typ, Data: struct{}{}})
			} else {
				send(Event{Type: typ, Data: entryData{ID: c.id}})
			}
			if now := time.Now(); now.Sub(lastUpdate) >= b.updateMin {
				lastUpdate = now
				send(Event{Type: TypeHistoryUpdated, Data: struct{}{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts an arbitrary event.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// PublishEntryEvent broadcasts a history change and, throttled, a
// history.updated hint. Its signature matches clipservice.EventCallback.
func (b *Broker) PublishEntryEvent(kind string, id int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- entryChange{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
