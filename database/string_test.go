package database

import (
	"testing"

	"github.com/NozeIO/redi-s/lib/utils"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/reply"
)

func TestSetGet(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "set", key, "hello")
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}

	result = execCmd(set, client, "get", key)
	val, ok := bulkValue(result)
	if !ok || string(val) != "hello" {
		t.Fatalf("expected 'hello', got %q", result.ToBytes())
	}
}

func TestGetMissingKey(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	result := execCmd(set, client, "get", utils.RandString(10))
	b, ok := bulkValue(result)
	if !ok || b != nil {
		t.Fatalf("expected null bulk reply, got %q", result.ToBytes())
	}
}

func TestSetNXAndXX(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "set", key, "v1", "NX")
	if !isOK(result) {
		t.Fatalf("expected OK on first NX set, got %q", result.ToBytes())
	}
	result = execCmd(set, client, "set", key, "v2", "NX")
	b, ok := bulkValue(result)
	if !ok || b != nil {
		t.Fatalf("expected NX set on existing key to fail, got %q", result.ToBytes())
	}
	result = execCmd(set, client, "set", key, "v3", "XX")
	if !isOK(result) {
		t.Fatalf("expected OK on XX set of existing key, got %q", result.ToBytes())
	}

	missing := utils.RandString(10)
	result = execCmd(set, client, "set", missing, "v4", "XX")
	b, ok = bulkValue(result)
	if !ok || b != nil {
		t.Fatalf("expected XX set of missing key to fail, got %q", result.ToBytes())
	}
}

func TestSetWithEX(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	execCmd(set, client, "set", key, "v", "EX", "100")
	result := execCmd(set, client, "ttl", key)
	n, ok := intValue(result)
	if !ok || n <= 0 || n > 100 {
		t.Fatalf("expected ttl in (0,100], got %v", result.ToBytes())
	}
}

func TestAppend(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "append", key, "hello")
	n, ok := intValue(result)
	if !ok || n != 5 {
		t.Fatalf("expected len 5, got %v", result.ToBytes())
	}
	result = execCmd(set, client, "append", key, " world")
	n, ok = intValue(result)
	if !ok || n != 11 {
		t.Fatalf("expected len 11, got %v", result.ToBytes())
	}
	result = execCmd(set, client, "get", key)
	val, _ := bulkValue(result)
	if string(val) != "hello world" {
		t.Fatalf("expected 'hello world', got %q", val)
	}
}

func TestIncrDecr(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	execCmd(set, client, "set", key, "10")
	result := execCmd(set, client, "incr", key)
	n, _ := intValue(result)
	if n != 11 {
		t.Fatalf("expected 11, got %d", n)
	}
	result = execCmd(set, client, "decrby", key, "5")
	n, _ = intValue(result)
	if n != 6 {
		t.Fatalf("expected 6, got %d", n)
	}
}

func TestIncrOnNonIntegerFails(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "set", key, "notanumber")
	result := execCmd(set, client, "incr", key)
	if _, isErr := result.(interface{ Error() string }); !isErr {
		t.Fatalf("expected error reply, got %q", result.ToBytes())
	}
}

func TestGetRange(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)
	execCmd(set, client, "set", key, "Hello World")

	result := execCmd(set, client, "getrange", key, "0", "4")
	val, _ := bulkValue(result)
	if string(val) != "Hello" {
		t.Fatalf("expected 'Hello', got %q", val)
	}

	result = execCmd(set, client, "getrange", key, "-5", "-1")
	val, _ = bulkValue(result)
	if string(val) != "World" {
		t.Fatalf("expected 'World', got %q", val)
	}
}

func TestSetRangeZeroPads(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	execCmd(set, client, "setrange", key, "5", "hello")
	result := execCmd(set, client, "get", key)
	val, _ := bulkValue(result)
	if len(val) != 10 {
		t.Fatalf("expected len 10, got %d", len(val))
	}
	if string(val[5:]) != "hello" {
		t.Fatalf("expected suffix 'hello', got %q", val[5:])
	}
}

func TestMSetMGet(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	k1, k2 := utils.RandString(10), utils.RandString(10)

	result := execCmd(set, client, "mset", k1, "v1", k2, "v2")
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}
	result = execCmd(set, client, "mget", k1, k2, utils.RandString(10))
	if _, ok := result.(*reply.MultiBulkReply); !ok {
		t.Fatalf("expected a MultiBulkReply, got %T", result)
	}
	r1 := execCmd(set, client, "get", k1)
	v1, _ := bulkValue(r1)
	if string(v1) != "v1" {
		t.Fatalf("expected v1, got %q", v1)
	}
}

func TestMSetNXFailsIfAnyKeyExists(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	k1, k2 := utils.RandString(10), utils.RandString(10)
	execCmd(set, client, "set", k1, "v1")

	result := execCmd(set, client, "msetnx", k1, "v1x", k2, "v2")
	n, _ := intValue(result)
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	result = execCmd(set, client, "get", k2)
	v, _ := bulkValue(result)
	if v != nil {
		t.Fatalf("expected k2 to remain unset, got %q", v)
	}
}
