package database

import (
	"testing"

	"github.com/NozeIO/redi-s/lib/utils"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/reply"
)

func TestLPushRPushLLen(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	execCmd(set, client, "rpush", key, "a", "b", "c")
	result := execCmd(set, client, "llen", key)
	n, _ := intValue(result)
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}

	execCmd(set, client, "lpush", key, "z")
	result = execCmd(set, client, "lindex", key, "0")
	v, _ := bulkValue(result)
	if string(v) != "z" {
		t.Fatalf("expected 'z' at head, got %q", v)
	}
}

func TestLRange(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "rpush", key, "a", "b", "c", "d")

	result := execCmd(set, client, "lrange", key, "0", "-1")
	mb, ok := result.(*reply.MultiBulkReply)
	if !ok || len(mb.Args) != 4 {
		t.Fatalf("expected 4 elements, got %v", result.ToBytes())
	}
}

func TestLPopRPop(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "rpush", key, "a", "b", "c")

	result := execCmd(set, client, "lpop", key)
	v, _ := bulkValue(result)
	if string(v) != "a" {
		t.Fatalf("expected 'a', got %q", v)
	}
	result = execCmd(set, client, "rpop", key)
	v, _ = bulkValue(result)
	if string(v) != "c" {
		t.Fatalf("expected 'c', got %q", v)
	}
}

func TestLPopOnEmptyListReturnsNull(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	result := execCmd(set, client, "lpop", utils.RandString(10))
	v, ok := bulkValue(result)
	if !ok || v != nil {
		t.Fatalf("expected null bulk reply, got %q", result.ToBytes())
	}
}

func TestLSet(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "rpush", key, "a", "b", "c")

	result := execCmd(set, client, "lset", key, "1", "B")
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}
	result = execCmd(set, client, "lindex", key, "1")
	v, _ := bulkValue(result)
	if string(v) != "B" {
		t.Fatalf("expected 'B', got %q", v)
	}
}

func TestLSetOutOfRange(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "rpush", key, "a")

	result := execCmd(set, client, "lset", key, "5", "x")
	if _, isErr := result.(interface{ Error() string }); !isErr {
		t.Fatalf("expected error reply, got %q", result.ToBytes())
	}
}

func TestLPushXOnMissingKey(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	result := execCmd(set, client, "lpushx", utils.RandString(10), "a")
	n, _ := intValue(result)
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestListWrongType(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "set", key, "v")

	result := execCmd(set, client, "lpush", key, "a")
	if _, ok := result.(*reply.WrongTypeErrReply); !ok {
		t.Fatalf("expected WRONGTYPE error, got %T", result)
	}
}
