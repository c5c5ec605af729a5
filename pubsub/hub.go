// Package pubsub implements the publish/subscribe bus (spec.md §4.10):
// exact-channel and pattern-channel registries, each mapping a name to
// the set of subscribing connections. Grounded on the teacher's
// pubsub/hub.go and pubsub/pubsub.go, extended with a pattern registry
// (PSUBSCRIBE/PUNSUBSCRIBE/PUBSUB) the teacher does not have.
package pubsub

import (
	"sync"

	"github.com/NozeIO/redi-s/datastruct/dict"
	"github.com/NozeIO/redi-s/datastruct/lock"
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/wildcard"
)

// subscriberSet is the set of connections subscribed to one channel or
// pattern, keyed by connection id so the same connection can't double
// count. Mutations and iteration are protected by the owning Hub's
// striped locker, keyed by channel/pattern name — not by a lock of its
// own.
type subscriberSet struct {
	members map[int64]redis.Connection
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{members: make(map[int64]redis.Connection)}
}

func (s *subscriberSet) len() int {
	return len(s.members)
}

// patternEntry pairs a compiled pattern with its subscriber set; key is
// the pattern's original source text, used as the lock/registry key
// since *wildcard.Pattern itself has no string form.
type patternEntry struct {
	key     string
	pattern *wildcard.Pattern
	subs    *subscriberSet
}

// Hub is the pub/sub bus shared by every connection. mu guards the shape
// of the channel/pattern registries (adding or removing an entry);
// locker guards the membership of one entry's subscriber set, so that a
// PUBLISH to channel A never contends with a SUBSCRIBE to channel B past
// the brief lookup under mu (spec.md §4.10's "mutations... serialized
// ... to keep iteration safe").
type Hub struct {
	mu       sync.RWMutex
	channels dict.Dict // channel name -> *subscriberSet
	patterns dict.Dict // pattern source -> *patternEntry
	locker   *lock.Locks
}

// MakeHub creates an empty pub/sub bus.
func MakeHub() *Hub {
	return &Hub{
		channels: dict.MakeSimple(),
		patterns: dict.MakeSimple(),
		locker:   lock.Make(64),
	}
}

// addChannelSub registers conn as a subscriber of channel, creating the
// channel's entry if this is its first subscriber.
func (hub *Hub) addChannelSub(channel string, conn redis.Connection) {
	hub.mu.Lock()
	raw, exists := hub.channels.Get(channel)
	var subs *subscriberSet
	if exists {
		subs = raw.(*subscriberSet)
	} else {
		subs = newSubscriberSet()
		hub.channels.Put(channel, subs)
	}
	hub.mu.Unlock()

	hub.locker.Lock(channel)
	subs.members[conn.ID()] = conn
	hub.locker.UnLock(channel)
}

// removeChannelSub drops conn from channel, removing the channel's entry
// entirely once it has no subscribers left.
func (hub *Hub) removeChannelSub(channel string, conn redis.Connection) {
	hub.mu.RLock()
	raw, exists := hub.channels.Get(channel)
	hub.mu.RUnlock()
	if !exists {
		return
	}
	subs := raw.(*subscriberSet)

	hub.locker.Lock(channel)
	delete(subs.members, conn.ID())
	empty := len(subs.members) == 0
	hub.locker.UnLock(channel)

	if empty {
		hub.mu.Lock()
		if raw, exists := hub.channels.Get(channel); exists && raw.(*subscriberSet).len() == 0 {
			hub.channels.Remove(channel)
		}
		hub.mu.Unlock()
	}
}

// addPatternSub registers conn as a subscriber of pattern (whose source
// text is key), creating the pattern's entry if this is its first
// subscriber.
func (hub *Hub) addPatternSub(key string, pattern *wildcard.Pattern, conn redis.Connection) {
	hub.mu.Lock()
	raw, exists := hub.patterns.Get(key)
	var entry *patternEntry
	if exists {
		entry = raw.(*patternEntry)
	} else {
		entry = &patternEntry{key: key, pattern: pattern, subs: newSubscriberSet()}
		hub.patterns.Put(key, entry)
	}
	hub.mu.Unlock()

	hub.locker.Lock(key)
	entry.subs.members[conn.ID()] = conn
	hub.locker.UnLock(key)
}

// removePatternSub drops conn from the pattern named by key, removing
// the pattern's entry entirely once it has no subscribers left.
func (hub *Hub) removePatternSub(key string, conn redis.Connection) {
	hub.mu.RLock()
	raw, exists := hub.patterns.Get(key)
	hub.mu.RUnlock()
	if !exists {
		return
	}
	entry := raw.(*patternEntry)

	hub.locker.Lock(key)
	delete(entry.subs.members, conn.ID())
	empty := entry.subs.len() == 0
	hub.locker.UnLock(key)

	if empty {
		hub.mu.Lock()
		if raw, exists := hub.patterns.Get(key); exists && raw.(*patternEntry).subs.len() == 0 {
			hub.patterns.Remove(key)
		}
		hub.mu.Unlock()
	}
}
