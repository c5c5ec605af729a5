package reply

import (
	"testing"

	"github.com/NozeIO/redi-s/interface/redis"
)

func asString(t *testing.T, r interface{ ToBytes() []byte }) string {
	t.Helper()
	return string(r.ToBytes())
}

func TestBulkReply(t *testing.T) {
	if got := asString(t, MakeBulkReply([]byte("hello"))); got != "$5\r\nhello\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, MakeBulkReply([]byte(""))); got != "$0\r\n\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, MakeNullBulkReply()); got != "$-1\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestBulkReplyBinarySafe(t *testing.T) {
	arg := []byte("a\r\nb")
	got := asString(t, MakeBulkReply(arg))
	want := "$4\r\na\r\nb\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMultiBulkReply(t *testing.T) {
	r := MakeMultiBulkReply([][]byte{[]byte("a"), nil, []byte("")})
	got := asString(t, r)
	want := "*3\r\n$1\r\na\r\n$-1\r\n$0\r\n\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEmptyMultiBulkReply(t *testing.T) {
	if got := asString(t, MakeEmptyMultiBulkReply()); got != "*0\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, EmptyMultiBulkReply); got != "*0\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestNullArrayReply(t *testing.T) {
	if got := asString(t, &NullArrayReply{}); got != "*-1\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestMultiRawReply(t *testing.T) {
	r := MakeMultiRawReply([]redis.Reply{
		MakeStatusReply("OK"),
		MakeIntReply(42),
	})
	got := asString(t, r)
	want := "*2\r\n+OK\r\n:42\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStatusReply(t *testing.T) {
	if got := asString(t, OkReply); got != "+OK\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, PongReply); got != "+PONG\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, MakeStatusReply("custom")); got != "+custom\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestIntReply(t *testing.T) {
	if got := asString(t, MakeIntReply(42)); got != ":42\r\n" {
		t.Errorf("got %q", got)
	}
	if got := asString(t, MakeIntReply(-1)); got != ":-1\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestErrorReplies(t *testing.T) {
	cases := []struct {
		reply ErrorReply
		want  string
	}{
		{MakeErrReply("ERR custom"), "-ERR custom\r\n"},
		{&WrongTypeErrReply{}, "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"},
		{MakeArgNumErrReply("get"), "-ERR wrong number of arguments for 'get' command\r\n"},
		{&SyntaxErrReply{}, "-ERR syntax error\r\n"},
		{&UnknownCommandErrReply{Cmd: "foo"}, "-ERR unknown command 'foo'\r\n"},
		{&NotAnIntegerErrReply{}, "-ERR value is not an integer or out of range\r\n"},
		{&IndexOutOfRangeErrReply{}, "-ERR index out of range\r\n"},
		{&NoSuchKeyErrReply{}, "-ERR no such key\r\n"},
		{&DBIndexOutOfRangeErrReply{}, "-ERR DB index is out of range\r\n"},
	}
	for _, c := range cases {
		if got := string(c.reply.ToBytes()); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
		if c.reply.Error() == "" {
			t.Errorf("expected non-empty Error() for %T", c.reply)
		}
	}
}

func TestIsErrorReply(t *testing.T) {
	if !IsErrorReply(MakeErrReply("ERR boom")) {
		t.Error("expected error reply to be detected")
	}
	if IsErrorReply(OkReply) {
		t.Error("expected status reply to not be detected as an error")
	}
}

func TestNoReply(t *testing.T) {
	if got := (&NoReply{}).ToBytes(); len(got) != 0 {
		t.Errorf("expected empty bytes, got %q", got)
	}
}
