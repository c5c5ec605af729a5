package database

import (
	"github.com/NozeIO/redi-s/datastruct/set"
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("scard", "key", 2, flagReadonly|flagFast, 1, 1, 1, execSCard)
	register("smembers", "key", 2, flagReadonly, 1, 1, 1, execSMembers)
	register("sismember", "key-value", 3, flagReadonly|flagFast, 1, 1, 1, execSIsMember)
	register("sadd", "key-values", -3, flagWrite|flagDenyOOM|flagFast, 1, 1, 1, execSAdd)
	register("srem", "key-values", -3, flagWrite|flagFast, 1, 1, 1, execSRem)
	register("sdiff", "keys", -2, flagReadonly, 1, -1, 1, execSDiff)
	register("sinter", "keys", -2, flagReadonly, 1, -1, 1, execSInter)
	register("sunion", "keys", -2, flagReadonly, 1, -1, 1, execSUnion)
	register("sdiffstore", "keys", -3, flagWrite|flagDenyOOM, 1, -1, 1, execSDiffStore)
	register("sinterstore", "keys", -3, flagWrite|flagDenyOOM, 1, -1, 1, execSInterStore)
	register("sunionstore", "keys", -3, flagWrite|flagDenyOOM, 1, -1, 1, execSUnionStore)
}

func (db *Database) getAsSet(key string) (*set.Set, reply.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	s, ok := entity.Data.(*set.Set)
	if !ok {
		return nil, &reply.WrongTypeErrReply{}
	}
	return s, nil
}

func (db *Database) getOrInitSet(key string) (*set.Set, reply.ErrorReply) {
	s, err := db.getAsSet(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = set.Make()
		db.insertEntity(key, &DataEntity{Data: s})
	}
	return s, nil
}

func execSCard(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	s, err := db.getAsSet(string(args[0]))
	if err != nil {
		return err
	}
	return reply.MakeIntReply(int64(s.Len()))
}

func execSMembers(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	s, err := db.getAsSet(string(args[0]))
	if err != nil {
		return err
	}
	return reply.MakeMultiBulkReply(membersOf(s))
}

func membersOf(s *set.Set) [][]byte {
	members := s.ToSlice()
	result := make([][]byte, len(members))
	for i, m := range members {
		result[i] = []byte(m)
	}
	return result
}

func execSIsMember(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	s, err := db.getAsSet(string(args[0]))
	if err != nil {
		return err
	}
	if s.Has(string(args[1])) {
		return reply.MakeIntReply(1)
	}
	return reply.MakeIntReply(0)
}

func execSAdd(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	s, err := db.getOrInitSet(string(args[0]))
	if err != nil {
		return err
	}
	added := 0
	for _, m := range args[1:] {
		added += s.Add(string(m))
	}
	if added > 0 {
		db.MarkDirty()
	}
	return reply.MakeIntReply(int64(added))
}

func execSRem(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	s, err := db.getAsSet(string(args[0]))
	if err != nil {
		return err
	}
	if s == nil {
		return reply.MakeIntReply(0)
	}
	removed := 0
	for _, m := range args[1:] {
		removed += s.Remove(string(m))
	}
	if removed > 0 {
		db.MarkDirty()
	}
	return reply.MakeIntReply(int64(removed))
}

func (db *Database) loadSets(keys CmdLine) ([]*set.Set, reply.ErrorReply) {
	sets := make([]*set.Set, len(keys))
	for i, key := range keys {
		s, err := db.getAsSet(string(key))
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}
	return sets, nil
}

func execSDiff(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	sets, err := db.loadSets(args)
	if err != nil {
		return err
	}
	return reply.MakeMultiBulkReply(membersOf(set.Diff(sets...)))
}

func execSInter(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	sets, err := db.loadSets(args)
	if err != nil {
		return err
	}
	return reply.MakeMultiBulkReply(membersOf(set.Intersect(sets...)))
}

func execSUnion(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	sets, err := db.loadSets(args)
	if err != nil {
		return err
	}
	return reply.MakeMultiBulkReply(membersOf(set.Union(sets...)))
}

// storeSetResult writes result into dest, overwriting any prior value
// there — even an empty result still replaces dest with an empty set
// (spec.md §4.2), and the full result is computed before the write even
// when dest coincides with one of the source keys (DESIGN.md open
// question #4).
func storeSetResult(db *Database, dest string, result *set.Set) redis.Reply {
	db.PutEntity(dest, &DataEntity{Data: result})
	return reply.MakeIntReply(int64(result.Len()))
}

func execSDiffStore(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	dest := string(args[0])
	sets, err := db.loadSets(args[1:])
	if err != nil {
		return err
	}
	return storeSetResult(db, dest, set.Diff(sets...))
}

func execSInterStore(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	dest := string(args[0])
	sets, err := db.loadSets(args[1:])
	if err != nil {
		return err
	}
	return storeSetResult(db, dest, set.Intersect(sets...))
}

func execSUnionStore(db *Database, _ redis.Connection, args CmdLine) redis.Reply {
	dest := string(args[0])
	sets, err := db.loadSets(args[1:])
	if err != nil {
		return err
	}
	return storeSetResult(db, dest, set.Union(sets...))
}
