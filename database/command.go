package database

import (
	"strings"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

// ExecFunc implements one command's behavior against the Database already
// selected and locked by the DatabaseSet. client is the issuing
// connection; most handlers only need it for pub/sub or CLIENT/MONITOR
// bookkeeping and otherwise ignore it.
type ExecFunc func(db *Database, client redis.Connection, args CmdLine) redis.Reply

// Command flags, a bitset (spec.md §4.7).
const (
	flagWrite = 1 << iota
	flagReadonly
	flagDenyOOM
	flagAdmin
	flagPubSub
	flagNoScript
	flagRandom
	flagLoading
	flagStale
	flagFast
	flagSortForScript
)

var flagBits = []struct {
	bit  int
	name string
}{
	{flagWrite, "write"},
	{flagReadonly, "readonly"},
	{flagDenyOOM, "denyoom"},
	{flagAdmin, "admin"},
	{flagPubSub, "pubsub"},
	{flagNoScript, "noscript"},
	{flagRandom, "random"},
	{flagLoading, "loading"},
	{flagStale, "stale"},
	{flagFast, "fast"},
	{flagSortForScript, "sort-for-script"},
}

// command is one entry of the static command table (spec.md §4.7). shape
// documents the call signature a handler expects after arity validation
// (one of the closed set spec.md §4.7 enumerates); Go handlers take the
// raw CmdLine directly and destructure it themselves, so shape here is
// descriptive metadata rather than a dispatch mechanism — see DESIGN.md.
type command struct {
	name     string
	shape    string
	executor ExecFunc
	arity    int // classic Redis encoding: n+1 if fixed, -(n+1) if minimum-of-n
	flags    int
	firstKey int
	lastKey  int
	step     int
}

var cmdTable = make(map[string]*command)

// register adds a command to the static table. name is folded to
// lowercase so lookup can ASCII-fold the incoming verb the same way.
func register(name, shape string, arity, flags, firstKey, lastKey, step int, executor ExecFunc) {
	name = strings.ToLower(name)
	cmdTable[name] = &command{
		name:     name,
		shape:    shape,
		executor: executor,
		arity:    arity,
		flags:    flags,
		firstKey: firstKey,
		lastKey:  lastKey,
		step:     step,
	}
}

func (cmd *command) flagReplies() []redis.Reply {
	result := make([]redis.Reply, 0, len(flagBits))
	for _, f := range flagBits {
		if cmd.flags&f.bit != 0 {
			result = append(result, reply.MakeStatusReply(f.name))
		}
	}
	return result
}

// toDescReply renders the six-tuple COMMAND and COMMAND INFO return per
// command: [name, arity, flags, first-key, last-key, step].
func (cmd *command) toDescReply() redis.Reply {
	return reply.MakeMultiRawReply([]redis.Reply{
		reply.MakeBulkReply([]byte(cmd.name)),
		reply.MakeIntReply(int64(cmd.arity)),
		reply.MakeMultiRawReply(cmd.flagReplies()),
		reply.MakeIntReply(int64(cmd.firstKey)),
		reply.MakeIntReply(int64(cmd.lastKey)),
		reply.MakeIntReply(int64(cmd.step)),
	})
}
