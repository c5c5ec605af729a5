package database

import (
	"strconv"

	"github.com/NozeIO/redi-s/datastruct/list"
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("llen", "key", 2, flagReadonly|flagFast, 1, 1, 1, execLLen)
	register("lrange", "key-range", 4, flagReadonly, 1, 1, 1, execLRange)
	register("lindex", "key-index", 3, flagReadonly, 1, 1, 1, execLIndex)
	register("lset", "key-index-value", 4, flagWrite|flagDenyOOM, 1, 1, 1, execLSet)
	register("lpush", "key-values", -3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execLPush)
	register("rpush", "key-values", -3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execRPush)
	register("lpushx", "key-values", -3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execLPushX)
	register("rpushx", "key-values", -3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execRPushX)
	register("lpop", "key", 2, flagWrite|flagFast, 1, 1, 1, execLPop)
	register("rpop", "key", 2, flagWrite|flagFast, 1, 1, 1, execRPop)
}

func (db *Database) getAsList(key string) (*list.QuickList, reply.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	ql, ok := entity.Data.(*list.QuickList)
	if !ok {
		return nil, &reply.WrongTypeErrReply{}
	}
	return ql, nil
}

func (db *Database) getOrInitList(key string) (*list.QuickList, reply.ErrorReply) {
	ql, err := db.getAsList(key)
	if err != nil {
		return nil, err
	}
	if ql == nil {
		ql = list.NewQuickList()
		db.insertEntity(key, &DataEntity{Data: ql})
	}
	return ql, nil
}

func execLLen(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return reply.MakeIntReply(0)
	}
	return reply.MakeIntReply(int64(ql.Len()))
}

// listIndex resolves a possibly-negative Redis list index against n,
// returning ok=false when it falls outside [0, n).
func listIndex(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

func execLRange(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return reply.MakeEmptyMultiBulkReply()
	}
	start, errS := strconv.Atoi(string(args[1]))
	stop, errE := strconv.Atoi(string(args[2]))
	if errS != nil || errE != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	n := ql.Len()
	s, sOk := listIndex(start, n)
	if !sOk {
		if start < 0 {
			s = 0
		} else {
			return reply.MakeEmptyMultiBulkReply()
		}
	}
	e, eOk := listIndex(stop, n)
	if !eOk {
		if stop >= n {
			e = n - 1
		} else {
			return reply.MakeEmptyMultiBulkReply()
		}
	}
	if s > e || n == 0 {
		return reply.MakeEmptyMultiBulkReply()
	}
	values := ql.Range(s, e+1)
	result := make([][]byte, len(values))
	for i, v := range values {
		result[i] = v.([]byte)
	}
	return reply.MakeMultiBulkReply(result)
}

func execLIndex(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return reply.MakeNullBulkReply()
	}
	idx, convErr := strconv.Atoi(string(args[1]))
	if convErr != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	i, ok := listIndex(idx, ql.Len())
	if !ok {
		return reply.MakeNullBulkReply()
	}
	return reply.MakeBulkReply(ql.Get(i).([]byte))
}

func execLSet(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return &reply.NoSuchKeyErrReply{}
	}
	idx, convErr := strconv.Atoi(string(args[1]))
	if convErr != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	i, ok := listIndex(idx, ql.Len())
	if !ok {
		return &reply.IndexOutOfRangeErrReply{}
	}
	ql.Set(i, args[2])
	db.MarkDirty()
	return reply.OkReply
}

func execLPush(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getOrInitList(string(args[0]))
	if err != nil {
		return err
	}
	for _, v := range args[1:] {
		ql.Insert(0, v)
	}
	db.MarkDirty()
	return reply.MakeIntReply(int64(ql.Len()))
}

func execRPush(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getOrInitList(string(args[0]))
	if err != nil {
		return err
	}
	for _, v := range args[1:] {
		ql.Add(v)
	}
	db.MarkDirty()
	return reply.MakeIntReply(int64(ql.Len()))
}

func execLPushX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return reply.MakeIntReply(0)
	}
	for _, v := range args[1:] {
		ql.Insert(0, v)
	}
	db.MarkDirty()
	return reply.MakeIntReply(int64(ql.Len()))
}

func execRPushX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	ql, err := db.getAsList(string(args[0]))
	if err != nil {
		return err
	}
	if ql == nil {
		return reply.MakeIntReply(0)
	}
	for _, v := range args[1:] {
		ql.Add(v)
	}
	db.MarkDirty()
	return reply.MakeIntReply(int64(ql.Len()))
}

func execLPop(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	ql, err := db.getAsList(key)
	if err != nil {
		return err
	}
	if ql == nil || ql.Len() == 0 {
		return reply.MakeNullBulkReply()
	}
	val := ql.RemoveFirst()
	db.MarkDirty()
	return reply.MakeBulkReply(val.([]byte))
}

func execRPop(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	key := string(args[0])
	ql, err := db.getAsList(key)
	if err != nil {
		return err
	}
	if ql == nil || ql.Len() == 0 {
		return reply.MakeNullBulkReply()
	}
	val := ql.RemoveLast()
	db.MarkDirty()
	return reply.MakeBulkReply(val.([]byte))
}
