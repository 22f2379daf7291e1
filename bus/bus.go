// Package bus is a small in-process pub/sub used by the simulator
// tooling to fan state frames and commands out to renderers and socket
// clients. Topics are string segments; subscriptions may use "+" to
// match one segment and a trailing "#" to match the rest. Retained
// messages replay to late subscribers. The firmware core does not use
// the bus; it exists for host-side tooling only.
package bus

import (
	"strings"
	"sync"
)

// Topic is a sequence of path segments.
type Topic []string

// T builds a topic from its segments.
func T(parts ...string) Topic { return Topic(parts) }

func (t Topic) String() string { return strings.Join(t, "/") }

// Match reports whether a concrete topic matches a pattern containing
// "+" (one segment) or a trailing "#" (any remainder, including none).
func Match(pattern, topic Topic) bool {
	for i, p := range pattern {
		if p == "#" {
			return i == len(pattern)-1
		}
		if i >= len(topic) {
			return false
		}
		if p != "+" && p != topic[i] {
			return false
		}
	}
	return len(pattern) == len(topic)
}

// Message is one published item.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// Subscription receives messages matching its pattern.
type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

// Pattern returns the subscription's topic pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// Channel is the receive side of the subscription queue.
func (s *Subscription) Channel() <-chan *Message { return s.ch }

// Unsubscribe detaches and closes the subscription.
func (s *Subscription) Unsubscribe() { s.conn.Unsubscribe(s) }

// Bus routes messages to matching subscriptions.
type Bus struct {
	mu       sync.RWMutex
	subs     []*Subscription
	retained map[string]*Message
	qLen     int
}

// New creates a bus with the given per-subscription queue length.
func New(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{retained: map[string]*Message{}, qLen: queueLen}
}

// Publish delivers a message to every matching subscriber. A full
// subscriber queue drops its oldest entry; Publish never blocks. A
// retained message with a nil payload clears the retained slot.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if Match(sub.pattern, msg.Topic) {
			deliver(sub.ch, msg)
		}
	}

	if msg.Retained {
		key := msg.Topic.String()
		if msg.Payload == nil {
			delete(b.retained, key)
		} else {
			b.retained[key] = msg
		}
	}
}

func deliver(ch chan *Message, msg *Message) {
	select {
	case ch <- msg:
	default:
		// Drop oldest so slow consumers see fresh state.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = append(b.subs, sub)

	// Replay matching retained messages.
	for _, msg := range b.retained {
		if Match(sub.pattern, msg.Topic) {
			deliver(sub.ch, msg)
		}
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Connection groups subscriptions so a client can detach in one call.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

// NewConnection creates a connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(topic Topic, payload any, retained bool) {
	c.bus.Publish(&Message{Topic: topic, Payload: payload, Retained: retained})
}

// Subscribe registers a pattern subscription owned by this connection.
func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: pattern,
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.bus.subscribe(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes one subscription and closes its channel.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions owned by the connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}
