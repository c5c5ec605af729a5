package database

import (
	"testing"

	"github.com/NozeIO/redi-s/lib/utils"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/reply"
)

func TestExistsAndDel(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	k1, k2 := utils.RandString(10), utils.RandString(10)
	execCmd(set, client, "set", k1, "v")

	result := execCmd(set, client, "exists", k1, k2)
	n, _ := intValue(result)
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}

	result = execCmd(set, client, "del", k1, k2)
	n, _ = intValue(result)
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}

	result = execCmd(set, client, "exists", k1)
	n, _ = intValue(result)
	if n != 0 {
		t.Fatalf("expected 0 after delete, got %d", n)
	}
}

func TestType(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	key := utils.RandString(10)

	result := execCmd(set, client, "type", key)
	if status := string(result.ToBytes()); status != "+none\r\n" {
		t.Fatalf("expected none, got %q", status)
	}

	execCmd(set, client, "set", key, "v")
	result = execCmd(set, client, "type", key)
	if status := string(result.ToBytes()); status != "+string\r\n" {
		t.Fatalf("expected string, got %q", status)
	}
}

func TestRename(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	src, dst := utils.RandString(10), utils.RandString(10)
	execCmd(set, client, "set", src, "v")

	result := execCmd(set, client, "rename", src, dst)
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}
	result = execCmd(set, client, "get", dst)
	v, _ := bulkValue(result)
	if string(v) != "v" {
		t.Fatalf("expected 'v' at dst, got %q", v)
	}
	result = execCmd(set, client, "exists", src)
	n, _ := intValue(result)
	if n != 0 {
		t.Fatal("expected src to no longer exist")
	}
}

func TestRenameMissingSourceFails(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	result := execCmd(set, client, "rename", utils.RandString(10), utils.RandString(10))
	if _, isErr := result.(interface{ Error() string }); !isErr {
		t.Fatalf("expected error reply, got %q", result.ToBytes())
	}
}

func TestRenameNX(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	src, dst := utils.RandString(10), utils.RandString(10)
	execCmd(set, client, "set", src, "v1")
	execCmd(set, client, "set", dst, "v2")

	result := execCmd(set, client, "renamenx", src, dst)
	n, _ := intValue(result)
	if n != 0 {
		t.Fatalf("expected 0 when dst exists, got %d", n)
	}
}

func TestDBSize(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	execCmd(set, client, "set", utils.RandString(10), "v")
	execCmd(set, client, "set", utils.RandString(10), "v")

	result := execCmd(set, client, "dbsize")
	n, _ := intValue(result)
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestKeysPattern(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()
	execCmd(set, client, "set", "prefix:a", "v")
	execCmd(set, client, "set", "prefix:b", "v")
	execCmd(set, client, "set", "other", "v")

	result := execCmd(set, client, "keys", "prefix:*")
	mb, ok := result.(*reply.MultiBulkReply)
	if !ok {
		t.Fatalf("unexpected reply type %T", result)
	}
	if len(mb.Args) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(mb.Args))
	}
}

func TestSelectAndSwapDB(t *testing.T) {
	set := makeTestDatabaseSet()
	client := connection.NewFakeConn()

	result := execCmd(set, client, "select", "1")
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}
	if client.GetDBIndex() != 1 {
		t.Fatalf("expected selected db 1, got %d", client.GetDBIndex())
	}

	execCmd(set, client, "set", utils.RandString(10), "v")
	result = execCmd(set, client, "select", "16")
	if _, isErr := result.(interface{ Error() string }); !isErr {
		t.Fatalf("expected out-of-range error, got %q", result.ToBytes())
	}

	result = execCmd(set, client, "swapdb", "0", "1")
	if !isOK(result) {
		t.Fatalf("expected OK, got %q", result.ToBytes())
	}
}
