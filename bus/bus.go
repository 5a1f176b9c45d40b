// Package bus is a small in-process pub/sub fabric with retained messages.
// Topics are string paths; subscriptions may use "+" to match exactly one
// level. Delivery is non-blocking: a full subscriber queue drops its oldest
// message.
package bus

import (
	"sync"
)

// Topic is a sequence of path tokens, e.g. T("encoder", "m1", "value").
type Topic []string

// Wildcard matches a single token in a subscription topic.
const Wildcard = "+"

// T builds a Topic from tokens.
func T(tokens ...string) Topic { return Topic(tokens) }

// Match reports whether a concrete topic (no wildcards) matches the
// subscription pattern p.
func (p Topic) Match(t Topic) bool {
	if len(p) != len(t) {
		return false
	}
	for i, tok := range p {
		if tok != Wildcard && tok != t[i] {
			return false
		}
	}
	return true
}

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

func (s *Subscription) Pattern() Topic            { return s.pattern }
func (s *Subscription) Channel() <-chan *Message  { return s.ch }
func (s *Subscription) Unsubscribe()              { s.conn.Unsubscribe(s) }

type Bus struct {
	mu       sync.RWMutex
	subs     []*Subscription
	retained map[string]*Message
	qLen     int
}

// New creates a bus with the given per-subscription queue length.
func New(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		retained: make(map[string]*Message),
		qLen:     queueLen,
	}
}

func key(t Topic) string {
	k := ""
	for i, tok := range t {
		if i > 0 {
			k += "/"
		}
		k += tok
	}
	return k
}

// Publish delivers msg to every matching subscriber. A retained message with
// a nil payload clears the retained slot for its topic.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.pattern.Match(msg.Topic) {
			continue
		}
		deliver(sub.ch, msg)
	}

	if msg.Retained {
		if msg.Payload == nil {
			delete(b.retained, key(msg.Topic))
		} else {
			b.retained[key(msg.Topic)] = msg
		}
	}
}

func deliver(ch chan *Message, msg *Message) {
	select {
	case ch <- msg:
	default:
		// Queue full: drop oldest, then enqueue.
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

	// Replay retained messages that match the new pattern.
	for _, msg := range b.retained {
		if sub.pattern.Match(msg.Topic) {
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

// Connection groups subscriptions for one client so they can be torn down
// together.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

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

// Disconnect closes all subscriptions owned by this connection.
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
