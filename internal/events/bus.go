// Package events is the in-process notification bus behind observable reads.
// The facade publishes a topic after each committed mutation; HTTP handlers
// and tests subscribe to re-read affected tables.
package events

import (
	"sync"
)

// Topic names one table-set whose contents changed.
type Topic string

const (
	TopicSongs     Topic = "songs"
	TopicArtists   Topic = "artists"
	TopicPlaylists Topic = "playlists"
	TopicGroups    Topic = "groups"
	TopicQueue     Topic = "queue"
	TopicHistory   Topic = "history"
	TopicPlayback  Topic = "playback"
)

type subscriber struct {
	ch     chan Topic
	topics map[Topic]bool
}

// Bus fan-outs committed-mutation notifications. Publishing never blocks:
// a subscriber that is not draining its channel misses notifications rather
// than stalling writers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers interest in the given topics, or in every topic when
// none are named. The returned cancel func releases the subscription.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Topic, func()) {
	sub := &subscriber{ch: make(chan Topic, 16)}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish notifies every matching subscriber. Call only after the mutation
// has committed.
func (b *Bus) Publish(topics ...Topic) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, topic := range topics {
		for _, sub := range b.subs {
			if sub.topics != nil && !sub.topics[topic] {
				continue
			}
			select {
			case sub.ch <- topic:
			default:
			}
		}
	}
}
