package database

import (
	"strconv"

	"github.com/NozeIO/redi-s/datastruct/dict"
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("hlen", "key", 2, flagReadonly|flagFast, 1, 1, 1, execHLen)
	register("hgetall", "key", 2, flagReadonly, 1, 1, 1, execHGetAll)
	register("hget", "key-value", 3, flagReadonly|flagFast, 1, 1, 1, execHGet)
	register("hexists", "key-value", 3, flagReadonly|flagFast, 1, 1, 1, execHExists)
	register("hstrlen", "key-value", 3, flagReadonly|flagFast, 1, 1, 1, execHStrLen)
	register("hkeys", "key", 2, flagReadonly, 1, 1, 1, execHKeys)
	register("hvals", "key", 2, flagReadonly, 1, 1, 1, execHVals)
	register("hset", "key-value-value", 4, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execHSet)
	register("hsetnx", "key-value-value", 4, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execHSetNX)
	register("hincrby", "key-value-value", 4, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execHIncrBy)
	register("hmset", "key-value-map", -4, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execHMSet)
	register("hmget", "key-values", -3, flagReadonly|flagFast, 1, 1, 1, execHMGet)
	register("hdel", "key-values", -3, flagWrite|flagFast, 1, 1, 1, execHDel)
}

func (db *Database) getAsDict(key string) (dict.Dict, reply.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	d, ok := entity.Data.(dict.Dict)
	if !ok {
		return nil, &reply.WrongTypeErrReply{}
	}
	return d, nil
}

func (db *Database) getOrInitDict(key string) (dict.Dict, reply.ErrorReply) {
	d, err := db.getAsDict(key)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = dict.MakeSimple()
		db.insertEntity(key, &DataEntity{Data: d})
	}
	return d, nil
}

func execHLen(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeIntReply(0)
	}
	return reply.MakeIntReply(int64(d.Len()))
}

func execHGetAll(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeEmptyMultiBulkReply()
	}
	result := make([][]byte, 0, d.Len()*2)
	d.ForEach(func(field string, val interface{}) bool {
		result = append(result, []byte(field), val.([]byte))
		return true
	})
	return reply.MakeMultiBulkReply(result)
}

func execHGet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeNullBulkReply()
	}
	val, exists := d.Get(string(args[1]))
	if !exists {
		return reply.MakeNullBulkReply()
	}
	return reply.MakeBulkReply(val.([]byte))
}

func execHExists(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeIntReply(0)
	}
	if _, exists := d.Get(string(args[1])); exists {
		return reply.MakeIntReply(1)
	}
	return reply.MakeIntReply(0)
}

func execHStrLen(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeIntReply(0)
	}
	val, exists := d.Get(string(args[1]))
	if !exists {
		return reply.MakeIntReply(0)
	}
	return reply.MakeIntReply(int64(len(val.([]byte))))
}

func execHKeys(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeEmptyMultiBulkReply()
	}
	result := make([][]byte, 0, d.Len())
	d.ForEach(func(field string, _ interface{}) bool {
		result = append(result, []byte(field))
		return true
	})
	return reply.MakeMultiBulkReply(result)
}

func execHVals(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeEmptyMultiBulkReply()
	}
	result := make([][]byte, 0, d.Len())
	d.ForEach(func(_ string, val interface{}) bool {
		result = append(result, val.([]byte))
		return true
	})
	return reply.MakeMultiBulkReply(result)
}

// execHSet sets a single field, returning 1 if it was newly created, 0 if
// it replaced an existing value (spec.md §4.8).
func execHSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getOrInitDict(string(args[0]))
	if err != nil {
		return err
	}
	created := d.Put(string(args[1]), args[2])
	db.MarkDirty()
	return reply.MakeIntReply(int64(created))
}

// execHMSet sets one or more field/value pairs, always replying OK
// (spec.md §4.8). Grounded on the teacher's hash.go execHMSet.
func execHMSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args)%2 != 1 {
		return &reply.SyntaxErrReply{}
	}
	d, err := db.getOrInitDict(string(args[0]))
	if err != nil {
		return err
	}
	for i := 1; i < len(args); i += 2 {
		d.Put(string(args[i]), args[i+1])
	}
	db.MarkDirty()
	return reply.OkReply
}

func execHSetNX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getOrInitDict(string(args[0]))
	if err != nil {
		return err
	}
	result := d.PutIfAbsent(string(args[1]), args[2])
	if result > 0 {
		db.MarkDirty()
	}
	return reply.MakeIntReply(int64(result))
}

// execHIncrBy creates field = 0 if it is missing, and fails with
// notAnInteger if the existing value can't be parsed as one (spec.md
// §4.2).
func execHIncrBy(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getOrInitDict(string(args[0]))
	if err != nil {
		return err
	}
	field := string(args[1])
	delta, convErr := strconv.ParseInt(string(args[2]), 10, 64)
	if convErr != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	var current int64
	if raw, exists := d.Get(field); exists {
		current, convErr = strconv.ParseInt(string(raw.([]byte)), 10, 64)
		if convErr != nil {
			return &reply.NotAnIntegerErrReply{}
		}
	}
	current += delta
	d.Put(field, []byte(strconv.FormatInt(current, 10)))
	db.MarkDirty()
	return reply.MakeIntReply(current)
}

func execHMGet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	result := make([][]byte, len(args)-1)
	for i, field := range args[1:] {
		if d == nil {
			continue
		}
		if val, exists := d.Get(string(field)); exists {
			result[i] = val.([]byte)
		}
	}
	return reply.MakeMultiBulkReply(result)
}

func execHDel(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	d, err := db.getAsDict(string(args[0]))
	if err != nil {
		return err
	}
	if d == nil {
		return reply.MakeIntReply(0)
	}
	deleted := 0
	for _, field := range args[1:] {
		deleted += d.Remove(string(field))
	}
	if deleted > 0 {
		db.MarkDirty()
	}
	return reply.MakeIntReply(int64(deleted))
}
