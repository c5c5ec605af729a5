package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("get", "key", 2, flagReadonly|flagFast, 1, 1, 1, execGet)
	register("set", "key-value-options", -3, flagWrite|flagDenyOOM, 1, 1, 1, execSet)
	register("setnx", "key-value", 3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execSetNX)
	register("setex", "key-value-value", 4, flagWrite|flagDenyOOM, 1, 1, 1, execSetEX)
	register("psetex", "key-value-value", 4, flagWrite|flagDenyOOM, 1, 1, 1, execPSetEX)
	register("getset", "key-value", 3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execGetSet)
	register("append", "key-value", 3, flagWrite|flagDenyOOM, 1, 1, 1, execAppend)
	register("strlen", "key", 2, flagReadonly|flagFast, 1, 1, 1, execStrLen)
	register("getrange", "key-range", 4, flagReadonly, 1, 1, 1, execGetRange)
	register("substr", "key-range", 4, flagReadonly, 1, 1, 1, execGetRange)
	register("setrange", "key-index-value", 4, flagWrite|flagDenyOOM, 1, 1, 1, execSetRange)
	register("mget", "keys", -2, flagReadonly|flagFast, 1, -1, 1, execMGet)
	register("mset", "key-value-map", -3, flagWrite|flagDenyOOM, 1, -1, 2, execMSet)
	register("msetnx", "key-value-map", -3, flagWrite|flagDenyOOM, 1, -1, 2, execMSetNX)
	register("incr", "key", 2, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execIncr)
	register("decr", "key", 2, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execDecr)
	register("incrby", "key-value", 3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execIncrBy)
	register("decrby", "key-value", 3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execDecrBy)
}

func (db *Database) getAsString(key string) ([]byte, reply.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	bytes, ok := entity.Data.([]byte)
	if !ok {
		return nil, &reply.WrongTypeErrReply{}
	}
	return bytes, nil
}

func execGet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	bytes, err := db.getAsString(string(args[0]))
	if err != nil {
		return err
	}
	if bytes == nil {
		return reply.MakeNullBulkReply()
	}
	return reply.MakeBulkReply(bytes)
}

// execSet implements SET key value [EX seconds | PX milliseconds] [NX | XX]
// (spec.md §4.8). NX fails (null bulk) if the key exists; XX fails if it
// doesn't. Any expiration present on the key is cleared unless EX/PX was
// given.
func execSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	value := args[1]

	policy := 0 // 0 = upsert, 1 = NX, 2 = XX
	var ttl time.Duration
	hasTTL := false

	for i := 2; i < len(args); i++ {
		opt := strings.ToUpper(string(args[i]))
		switch opt {
		case "NX":
			policy = 1
		case "XX":
			policy = 2
		case "EX", "PX":
			if i+1 >= len(args) {
				return &reply.SyntaxErrReply{}
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return &reply.NotAnIntegerErrReply{}
			}
			if opt == "EX" {
				ttl = time.Duration(n) * time.Second
			} else {
				ttl = time.Duration(n) * time.Millisecond
			}
			hasTTL = true
			i++
		default:
			return &reply.SyntaxErrReply{}
		}
	}

	_, exists := db.GetEntity(key)
	if policy == 1 && exists {
		return reply.MakeNullBulkReply()
	}
	if policy == 2 && !exists {
		return reply.MakeNullBulkReply()
	}

	db.insertEntity(key, &DataEntity{Data: value})
	if hasTTL {
		db.setTTLNoCount(key, time.Now().Add(ttl))
	} else {
		db.clearTTLNoCount(key)
	}
	db.MarkDirty()
	return reply.OkReply
}

func execSetNX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	result := db.PutIfAbsent(key, &DataEntity{Data: args[1]})
	return reply.MakeIntReply(int64(result))
}

func execSetEX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	secs, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	if secs <= 0 {
		return reply.MakeErrReply("ERR invalid expire time in 'setex' command")
	}
	db.insertEntity(key, &DataEntity{Data: args[2]})
	db.setTTLNoCount(key, time.Now().Add(time.Duration(secs)*time.Second))
	db.MarkDirty()
	return reply.OkReply
}

func execPSetEX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	ms, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	if ms <= 0 {
		return reply.MakeErrReply("ERR invalid expire time in 'psetex' command")
	}
	db.insertEntity(key, &DataEntity{Data: args[2]})
	db.setTTLNoCount(key, time.Now().Add(time.Duration(ms)*time.Millisecond))
	db.MarkDirty()
	return reply.OkReply
}

func execGetSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	old, err := db.getAsString(key)
	if err != nil {
		return err
	}
	db.insertEntity(key, &DataEntity{Data: args[1]})
	db.clearTTLNoCount(key)
	db.MarkDirty()
	if old == nil {
		return reply.MakeNullBulkReply()
	}
	return reply.MakeBulkReply(old)
}

func execAppend(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	bytes, err := db.getAsString(key)
	if err != nil {
		return err
	}
	bytes = append(bytes, args[1]...)
	db.PutEntity(key, &DataEntity{Data: bytes})
	return reply.MakeIntReply(int64(len(bytes)))
}

func execStrLen(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	bytes, err := db.getAsString(string(args[0]))
	if err != nil {
		return err
	}
	return reply.MakeIntReply(int64(len(bytes)))
}

// normalizeRange converts Redis-style (possibly negative) start/end
// indices into a clamped, end-inclusive [start, end] pair over a
// sequence of length n; ok is false when the resulting range is empty.
func normalizeRange(start, end, n int) (int, int, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end || start >= n {
		return 0, 0, false
	}
	return start, end, true
}

func execGetRange(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	bytes, err := db.getAsString(string(args[0]))
	if err != nil {
		return err
	}
	start, errS := strconv.Atoi(string(args[1]))
	end, errE := strconv.Atoi(string(args[2]))
	if errS != nil || errE != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	s, e, ok := normalizeRange(start, end, len(bytes))
	if !ok {
		return reply.MakeBulkReply([]byte{})
	}
	return reply.MakeBulkReply(bytes[s : e+1])
}

// execSetRange implements SETRANGE: on a missing key it zero-pads from
// offset 0, on an existing shorter string it zero-pads between the
// current length and offset (spec.md §4.8).
func execSetRange(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	offset, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	if offset < 0 {
		return reply.MakeErrReply("ERR offset is out of range")
	}
	bytes, errReply := db.getAsString(key)
	if errReply != nil {
		return errReply
	}
	value := args[2]
	needed := offset + len(value)
	if needed > len(bytes) {
		grown := make([]byte, needed)
		copy(grown, bytes)
		bytes = grown
	}
	copy(bytes[offset:], value)
	db.PutEntity(key, &DataEntity{Data: bytes})
	return reply.MakeIntReply(int64(len(bytes)))
}

func execMGet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	result := make([][]byte, len(args))
	for i, arg := range args {
		bytes, err := db.getAsString(string(arg))
		if err != nil {
			result[i] = nil
			continue
		}
		result[i] = bytes
	}
	return reply.MakeMultiBulkReply(result)
}

func execMSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args)%2 != 0 {
		return &reply.SyntaxErrReply{}
	}
	for i := 0; i < len(args); i += 2 {
		key := string(args[i])
		db.insertEntity(key, &DataEntity{Data: args[i+1]})
		db.clearTTLNoCount(key)
	}
	db.MarkDirty()
	return reply.OkReply
}

func execMSetNX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args)%2 != 0 {
		return &reply.SyntaxErrReply{}
	}
	for i := 0; i < len(args); i += 2 {
		if _, exists := db.GetEntity(string(args[i])); exists {
			return reply.MakeIntReply(0)
		}
	}
	for i := 0; i < len(args); i += 2 {
		db.PutEntity(string(args[i]), &DataEntity{Data: args[i+1]})
	}
	return reply.MakeIntReply(1)
}

func incrByAmount(db *Database, key string, delta int64) redis.Reply {
	bytes, err := db.getAsString(key)
	if err != nil {
		return err
	}
	var current int64
	if bytes != nil {
		parsed, parseErr := strconv.ParseInt(string(bytes), 10, 64)
		if parseErr != nil {
			return &reply.NotAnIntegerErrReply{}
		}
		current = parsed
	}
	current += delta
	db.PutEntity(key, &DataEntity{Data: []byte(strconv.FormatInt(current, 10))})
	return reply.MakeIntReply(current)
}

func execIncr(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	return incrByAmount(db, string(args[0]), 1)
}

func execDecr(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	return incrByAmount(db, string(args[0]), -1)
}

func execIncrBy(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	delta, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	return incrByAmount(db, string(args[0]), delta)
}

func execDecrBy(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	delta, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	return incrByAmount(db, string(args[0]), -delta)
}
