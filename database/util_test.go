package database

import (
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/utils"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/reply"
)

var testSet = makeTestDatabaseSet()

func makeTestDatabaseSet() *DatabaseSet {
	return NewDatabaseSet(nil, nil)
}

func execCmd(set *DatabaseSet, client *connection.FakeConn, cmd ...string) redis.Reply {
	return set.Exec(client, utils.ToCmdLine(cmd...))
}

func isOK(r redis.Reply) bool {
	status, ok := r.(*reply.StatusReply)
	return ok && status.Status == "OK"
}

func intValue(r redis.Reply) (int64, bool) {
	i, ok := r.(*reply.IntReply)
	if !ok {
		return 0, false
	}
	return i.Code, true
}

func bulkValue(r redis.Reply) ([]byte, bool) {
	b, ok := r.(*reply.BulkReply)
	if !ok {
		return nil, false
	}
	return b.Arg, true
}
