package database

import (
	"testing"

	"github.com/NozeIO/redi-s/lib/utils"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/reply"
)

func TestHSetHGet(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "hset", key, "f1", "v1")
	n, _ := intValue(result)
	if n != 1 {
		t.Fatalf("expected 1 (newly created), got %d", n)
	}
	result = execCmd(set, client, "hset", key, "f1", "v2")
	n, _ = intValue(result)
	if n != 0 {
		t.Fatalf("expected 0 (replaced), got %d", n)
	}
	result = execCmd(set, client, "hget", key, "f1")
	v, _ := bulkValue(result)
	if string(v) != "v2" {
		t.Fatalf("expected 'v2', got %q", v)
	}
}

func TestHGetAll(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "hset", key, "f1", "v1")
	execCmd(set, client, "hset", key, "f2", "v2")

	result := execCmd(set, client, "hgetall", key)
	mb, ok := result.(*reply.MultiBulkReply)
	if !ok || len(mb.Args) != 4 {
		t.Fatalf("expected 4 elements (2 pairs), got %v", result.ToBytes())
	}
}

func TestHDel(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "hset", key, "f1", "v1")

	result := execCmd(set, client, "hdel", key, "f1", "f2")
	n, _ := intValue(result)
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	result = execCmd(set, client, "hexists", key, "f1")
	n, _ = intValue(result)
	if n != 0 {
		t.Fatal("expected f1 to no longer exist")
	}
}

func TestHIncrBy(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "hincrby", key, "counter", "5")
	n, _ := intValue(result)
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
	result = execCmd(set, client, "hincrby", key, "counter", "-2")
	n, _ = intValue(result)
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestHSetNX(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "hsetnx", key, "f1", "v1")
	n, _ := intValue(result)
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	result = execCmd(set, client, "hsetnx", key, "f1", "v2")
	n, _ = intValue(result)
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	result = execCmd(set, client, "hget", key, "f1")
	v, _ := bulkValue(result)
	if string(v) != "v1" {
		t.Fatalf("expected unchanged 'v1', got %q", v)
	}
}

func TestHMGet(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "hset", key, "f1", "v1")

	result := execCmd(set, client, "hmget", key, "f1", "missing")
	mb, ok := result.(*reply.MultiBulkReply)
	if !ok || len(mb.Args) != 2 {
		t.Fatalf("expected 2 elements, got %v", result.ToBytes())
	}
	if string(mb.Args[0]) != "v1" || mb.Args[1] != nil {
		t.Fatalf("unexpected values: %q %q", mb.Args[0], mb.Args[1])
	}
}
