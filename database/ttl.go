package database

import (
	"strconv"
	"time"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("expire", "key-value", 3, flagWrite|flagFast, 1, 1, 1, execExpire)
	register("pexpire", "key-value", 3, flagWrite|flagFast, 1, 1, 1, execPExpire)
	register("expireat", "key-value", 3, flagWrite|flagFast, 1, 1, 1, execExpireAt)
	register("pexpireat", "key-value", 3, flagWrite|flagFast, 1, 1, 1, execPExpireAt)
	register("ttl", "key", 2, flagReadonly|flagFast, 1, 1, 1, execTTL)
	register("pttl", "key", 2, flagReadonly|flagFast, 1, 1, 1, execPTTL)
	register("persist", "key", 2, flagWrite|flagFast, 1, 1, 1, execPersist)
}

func parseSeconds(raw []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	return n, err == nil
}

// applyExpire sets or clears key's deadline depending on whether deadline
// is already past, reproducing spec.md §4.4's EXPIRE-family contract:
// removing the key immediately if the deadline has already elapsed, and
// reporting failure (0) when the key did not exist to begin with.
func applyExpire(db *Database, key string, deadline time.Time) redis.Reply {
	if _, exists := db.GetEntity(key); !exists {
		return reply.MakeIntReply(0)
	}
	if !deadline.After(time.Now()) {
		db.Remove(key)
		return reply.MakeIntReply(1)
	}
	db.Expire(key, deadline)
	return reply.MakeIntReply(1)
}

func execExpire(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	secs, ok := parseSeconds(args[1])
	if !ok {
		return &reply.NotAnIntegerErrReply{}
	}
	return applyExpire(db, key, time.Now().Add(time.Duration(secs)*time.Second))
}

func execPExpire(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	ms, ok := parseSeconds(args[1])
	if !ok {
		return &reply.NotAnIntegerErrReply{}
	}
	return applyExpire(db, key, time.Now().Add(time.Duration(ms)*time.Millisecond))
}

func execExpireAt(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	secs, ok := parseSeconds(args[1])
	if !ok {
		return &reply.NotAnIntegerErrReply{}
	}
	return applyExpire(db, key, time.Unix(secs, 0))
}

func execPExpireAt(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	ms, ok := parseSeconds(args[1])
	if !ok {
		return &reply.NotAnIntegerErrReply{}
	}
	return applyExpire(db, key, time.UnixMilli(ms))
}

func ttlRemaining(db *Database, key string) (time.Duration, bool, bool) {
	if _, exists := db.GetEntity(key); !exists {
		return 0, false, false
	}
	deadline, hasTTL := db.TTLAt(key)
	if !hasTTL {
		return 0, false, true
	}
	remaining := deadline.Sub(time.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, true
}

func execTTL(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	remaining, hasTTL, exists := ttlRemaining(db, string(args[0]))
	if !exists {
		return reply.MakeIntReply(-2)
	}
	if !hasTTL {
		return reply.MakeIntReply(-1)
	}
	return reply.MakeIntReply(int64(remaining / time.Second))
}

func execPTTL(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	remaining, hasTTL, exists := ttlRemaining(db, string(args[0]))
	if !exists {
		return reply.MakeIntReply(-2)
	}
	if !hasTTL {
		return reply.MakeIntReply(-1)
	}
	return reply.MakeIntReply(int64(remaining / time.Millisecond))
}

func execPersist(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	if _, exists := db.GetEntity(key); !exists {
		return reply.MakeIntReply(0)
	}
	if db.Persist(key) {
		return reply.MakeIntReply(1)
	}
	return reply.MakeIntReply(0)
}
