package pubsub

import (
	"strconv"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/wildcard"
	"github.com/NozeIO/redi-s/redis/reply"
)

// makeMsg builds the ["message", channel, msg] / ["pmessage", pattern,
// channel, msg] payload delivered to subscribers (spec.md §4.10).
// Grounded on the teacher's pubsub.go makeMsg, generalized to carry an
// optional leading pattern field.
func makeMsg(kind, channel string, msg []byte, pattern string) []byte {
	var args [][]byte
	if pattern == "" {
		args = [][]byte{[]byte(kind), []byte(channel), msg}
	} else {
		args = [][]byte{[]byte(kind), []byte(pattern), []byte(channel), msg}
	}
	return reply.MakeMultiBulkReply(args).ToBytes()
}

func ackReply(kind, name string, count int) redis.Reply {
	return reply.MakeMultiBulkReply([][]byte{
		[]byte(kind),
		[]byte(name),
		[]byte(strconv.Itoa(count)),
	})
}

// Subscribe adds conn to each channel in channels, writing one
// acknowledgement array per channel directly to the connection (matching
// real Redis/the teacher's behavior of emitting a reply per channel
// rather than a single combined one).
func Subscribe(hub *Hub, conn redis.Connection, channels []string) redis.Reply {
	for _, channel := range channels {
		hub.addChannelSub(channel, conn)
		conn.Subscribe(channel)
		_ = conn.Write(ackReply("subscribe", channel, conn.SubsCount()).ToBytes())
	}
	return &reply.NoReply{}
}

// Unsubscribe removes conn from each channel in channels (or every
// channel it is subscribed to, if channels is empty).
func Unsubscribe(hub *Hub, conn redis.Connection, channels []string) redis.Reply {
	if len(channels) == 0 {
		channels = conn.Channels()
	}
	if len(channels) == 0 {
		_ = conn.Write(ackReply("unsubscribe", "", conn.SubsCount()).ToBytes())
		return &reply.NoReply{}
	}
	for _, channel := range channels {
		hub.removeChannelSub(channel, conn)
		conn.Unsubscribe(channel)
		_ = conn.Write(ackReply("unsubscribe", channel, conn.SubsCount()).ToBytes())
	}
	return &reply.NoReply{}
}

// PSubscribe adds conn to each pattern in patterns, compiling and
// rejecting any pattern outside the supported glob subset before
// registering any of them.
func PSubscribe(hub *Hub, conn redis.Connection, patterns []string) redis.Reply {
	compiled := make([]*wildcard.Pattern, len(patterns))
	for i, p := range patterns {
		c, err := wildcard.CompilePattern(p)
		if err != nil {
			return &reply.PatternNotImplementedErrReply{}
		}
		compiled[i] = c
	}
	for i, p := range patterns {
		hub.addPatternSub(p, compiled[i], conn)
		conn.SubscribePattern(p)
		_ = conn.Write(ackReply("psubscribe", p, conn.SubsCount()).ToBytes())
	}
	return &reply.NoReply{}
}

// PUnsubscribe removes conn from each pattern in patterns (or every
// pattern it is subscribed to, if patterns is empty).
func PUnsubscribe(hub *Hub, conn redis.Connection, patterns []string) redis.Reply {
	if len(patterns) == 0 {
		patterns = conn.Patterns()
	}
	if len(patterns) == 0 {
		_ = conn.Write(ackReply("punsubscribe", "", conn.SubsCount()).ToBytes())
		return &reply.NoReply{}
	}
	for _, p := range patterns {
		hub.removePatternSub(p, conn)
		conn.UnsubscribePattern(p)
		_ = conn.Write(ackReply("punsubscribe", p, conn.SubsCount()).ToBytes())
	}
	return &reply.NoReply{}
}

// UnsubscribeAll drops conn from every channel and pattern it is
// subscribed to, called when a connection closes (spec.md §5's
// "connection closure cancels all of that connection's pending
// subscriptions").
func UnsubscribeAll(hub *Hub, conn redis.Connection) {
	for _, channel := range conn.Channels() {
		hub.removeChannelSub(channel, conn)
	}
	for _, p := range conn.Patterns() {
		hub.removePatternSub(p, conn)
	}
}

// Publish delivers msg to every exact subscriber of channel and every
// pattern subscriber whose pattern matches channel, returning the total
// number of deliveries (spec.md §4.10).
func Publish(hub *Hub, channel string, msg []byte) int {
	delivered := 0

	hub.mu.RLock()
	raw, exists := hub.channels.Get(channel)
	hub.mu.RUnlock()
	if exists {
		subs := raw.(*subscriberSet)
		hub.locker.RLock(channel)
		payload := makeMsg("message", channel, msg, "")
		for _, conn := range subs.members {
			if conn.Write(payload) == nil {
				delivered++
			}
		}
		hub.locker.RUnLock(channel)
	}

	hub.mu.RLock()
	entries := make([]*patternEntry, 0, hub.patterns.Len())
	hub.patterns.ForEach(func(_ string, raw interface{}) bool {
		entries = append(entries, raw.(*patternEntry))
		return true
	})
	hub.mu.RUnlock()

	for _, entry := range entries {
		if !entry.pattern.IsMatch(channel) {
			continue
		}
		hub.locker.RLock(entry.key)
		payload := makeMsg("pmessage", channel, msg, entry.key)
		for _, conn := range entry.subs.members {
			if conn.Write(payload) == nil {
				delivered++
			}
		}
		hub.locker.RUnLock(entry.key)
	}
	return delivered
}

// NumPat reports the number of distinct patterns with at least one
// subscriber.
func NumPat(hub *Hub) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return hub.patterns.Len()
}

// NumSub returns the interleaved [channel, count, ...] reply for
// PUBSUB NUMSUB.
func NumSub(hub *Hub, channels []string) redis.Reply {
	result := make([][]byte, 0, len(channels)*2)
	for _, channel := range channels {
		hub.mu.RLock()
		raw, exists := hub.channels.Get(channel)
		hub.mu.RUnlock()
		count := 0
		if exists {
			hub.locker.RLock(channel)
			count = len(raw.(*subscriberSet).members)
			hub.locker.RUnLock(channel)
		}
		result = append(result, []byte(channel), []byte(strconv.Itoa(count)))
	}
	return reply.MakeMultiBulkReply(result)
}

// ActiveChannels returns every channel with at least one subscriber,
// optionally filtered by pattern (PUBSUB CHANNELS [pattern]).
func ActiveChannels(hub *Hub, pattern *wildcard.Pattern) []string {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	var result []string
	hub.channels.ForEach(func(channel string, raw interface{}) bool {
		if raw.(*subscriberSet).len() == 0 {
			return true
		}
		if pattern == nil || pattern.IsMatch(channel) {
			result = append(result, channel)
		}
		return true
	})
	return result
}
