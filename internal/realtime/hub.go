// Package realtime fans sensor updates out to connected dashboard clients.
package realtime

import (
	"errors"
	"strings"
	"sync"
)

const DefaultSubscriberBuffer = 16

var ErrHubUnavailable = errors.New("hub_unavailable")

// Hub is a single-topic broadcaster without backlog; late subscribers
// only see messages published after they joined.
type Hub struct {
	mu               sync.Mutex
	subs             map[uint64]*subscriber
	nextID           uint64
	subscriberBuffer int
}

type subscriber struct {
	ch          chan Message
	lotPublicID string
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan Message
	once sync.Once
}

// PublishResult counts subscribers reached and those skipped on a full buffer.
type PublishResult struct {
	Delivered int
	Dropped   int
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]*subscriber),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish never blocks. Sends happen under the hub lock so every
// subscriber observes the same publish order.
func (h *Hub) Publish(msg Message) PublishResult {
	var res PublishResult
	if h == nil {
		return res
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.lotPublicID != "" && sub.lotPublicID != msg.Data.LotPublicID {
			continue
		}
		select {
		case sub.ch <- msg:
			res.Delivered++
		default:
			res.Dropped++
		}
	}
	return res
}

// Subscribe registers a listener. An empty lotPublicID receives every message.
func (h *Hub) Subscribe(lotPublicID string) (*Subscription, error) {
	if h == nil {
		return nil, ErrHubUnavailable
	}

	ch := make(chan Message, h.subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{ch: ch, lotPublicID: strings.TrimSpace(lotPublicID)}
	h.mu.Unlock()

	return &Subscription{hub: h, id: id, ch: ch}, nil
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Messages is closed once the subscription is closed.
func (s *Subscription) Messages() <-chan Message {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
