package database

import (
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/wildcard"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("keys", "single-value", 2, flagReadonly|flagSortForScript, 0, 0, 0, execKeys)
	register("exists", "keys", -2, flagReadonly|flagFast, 1, -1, 1, execExists)
	register("del", "keys", -2, flagWrite, 1, -1, 1, execDel)
	register("type", "key", 2, flagReadonly|flagFast, 1, 1, 1, execType)
	register("rename", "key-key", 3, flagWrite, 1, 2, 1, execRename)
	register("renamenx", "key-key", 3, flagWrite|flagFast, 1, 2, 1, execRenameNX)
	register("dbsize", "no-args", 1, flagReadonly|flagFast, 0, 0, 0, execDBSize)
}

// execKeys implements KEYS pattern, restricted to the patterns
// lib/wildcard can express (spec.md §4.3).
func execKeys(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	pattern, err := wildcard.CompilePattern(string(args[0]))
	if err != nil {
		return &reply.PatternNotImplementedErrReply{}
	}
	var result [][]byte
	db.ForEach(func(key string, _ *DataEntity) bool {
		if pattern.IsMatch(key) {
			result = append(result, []byte(key))
		}
		return true
	})
	return reply.MakeMultiBulkReply(result)
}

func execExists(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	count := 0
	for _, arg := range args {
		if _, exists := db.GetEntity(string(arg)); exists {
			count++
		}
	}
	return reply.MakeIntReply(int64(count))
}

func execDel(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	keys := make([]string, len(args))
	for i, arg := range args {
		keys[i] = string(arg)
	}
	deleted := db.Removes(keys...)
	return reply.MakeIntReply(int64(deleted))
}

func execType(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	entity, exists := db.GetEntity(string(args[0]))
	if !exists {
		return reply.MakeStatusReply("none")
	}
	return reply.MakeStatusReply(entity.typeName())
}

func execRename(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	src, dst := string(args[0]), string(args[1])
	if !db.Rename(src, dst) {
		return &reply.NoSuchKeyErrReply{}
	}
	return reply.OkReply
}

func execRenameNX(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	src, dst := string(args[0]), string(args[1])
	if _, exists := db.GetEntity(src); !exists {
		return &reply.NoSuchKeyErrReply{}
	}
	if _, exists := db.GetEntity(dst); exists {
		return reply.MakeIntReply(0)
	}
	db.Rename(src, dst)
	return reply.MakeIntReply(1)
}

func execDBSize(db *Database, _ redis.Connection, _ CmdLine) redis.Reply {
	return reply.MakeIntReply(int64(db.Len()))
}
