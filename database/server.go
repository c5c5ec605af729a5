package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("ping", "optional-value", -1, flagReadonly|flagFast, 0, 0, 0, execPing)
	register("echo", "single-value", 2, flagReadonly|flagFast, 0, 0, 0, execEcho)
	register("quit", "no-args", 1, flagReadonly|flagFast, 0, 0, 0, execQuit)
	register("monitor", "no-args", 1, flagAdmin|flagNoScript, 0, 0, 0, execMonitor)
	register("save", "no-args", 1, flagAdmin|flagNoScript, 0, 0, 0, execSave)
	register("bgsave", "no-args", 1, flagAdmin|flagNoScript, 0, 0, 0, execBGSave)
	register("lastsave", "no-args", 1, flagReadonly|flagFast, 0, 0, 0, execLastSave)
	register("client", "one-or-more-values", -2, flagAdmin|flagNoScript, 0, 0, 0, execClient)
}

// execPing ignores the database entirely (ping has no key); an optional
// argument is echoed back in place of the usual PONG.
func execPing(_ *Database, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args) == 0 {
		return reply.PongReply
	}
	if len(args) == 1 {
		return reply.MakeBulkReply(args[0])
	}
	return reply.MakeArgNumErrReply("ping")
}

func execEcho(_ *Database, _ redis.Connection, args CmdLine) redis.Reply {
	return reply.MakeBulkReply(args[0])
}

// execQuit flushes OK; the connection handler is responsible for closing
// the socket afterward (spec.md §5's "QUIT half-closes input, flushes
// the OK, then closes").
func execQuit(_ *Database, _ redis.Connection, _ CmdLine) redis.Reply {
	return reply.OkReply
}

func execMonitor(_ *Database, client redis.Connection, _ CmdLine) redis.Reply {
	if client != nil {
		client.SetMonitor(true)
	}
	return reply.OkReply
}

// execSave/execBGSave/execLastSave defer to hooks wired in by the
// snapshot manager (package persist), since the database package cannot
// import persist without a cycle — persist already depends on database
// to read/write the DatabaseSet it serializes.
func execSave(db *Database, _ redis.Connection, _ CmdLine) redis.Reply {
	set := db.ownerSet
	if set == nil || set.saveSync == nil {
		return reply.MakeErrReply("ERR persistence is not configured")
	}
	if err := set.saveSync(); err != nil {
		return reply.MakeErrReply("ERR " + err.Error())
	}
	return reply.OkReply
}

func execBGSave(db *Database, _ redis.Connection, _ CmdLine) redis.Reply {
	set := db.ownerSet
	if set == nil || set.saveAsync == nil {
		return reply.MakeErrReply("ERR persistence is not configured")
	}
	set.saveAsync()
	return reply.MakeStatusReply("Background saving started")
}

func execLastSave(db *Database, _ redis.Connection, _ CmdLine) redis.Reply {
	set := db.ownerSet
	if set == nil || set.lastSaveAt == nil {
		return reply.MakeIntReply(0)
	}
	return reply.MakeIntReply(set.lastSaveAt().Unix())
}

// execClient implements CLIENT SETNAME/GETNAME; CLIENT LIST needs the
// full connection registry, which lives above this package, and is
// handled by the server layer instead.
func execClient(_ *Database, client redis.Connection, args CmdLine) redis.Reply {
	sub := strings.ToLower(string(args[0]))
	switch sub {
	case "setname":
		if len(args) != 2 {
			return reply.MakeArgNumErrReply("client|setname")
		}
		if client != nil {
			client.SetName(string(args[1]))
		}
		return reply.OkReply
	case "getname":
		if client == nil {
			return reply.MakeNullBulkReply()
		}
		name := client.Name()
		if name == "" {
			return reply.MakeBulkReply([]byte{})
		}
		return reply.MakeBulkReply([]byte(name))
	default:
		return reply.MakeErrReply("ERR Unknown CLIENT subcommand or wrong number of arguments for '" + sub + "'")
	}
}

// execSelect switches the issuing connection's active database index
// (spec.md §4.5). It acts on the connection, not on any Database, so it
// bypasses the per-database lock and command table entirely.
func execSelect(set *DatabaseSet, client redis.Connection, args CmdLine) redis.Reply {
	if len(args) != 1 {
		return reply.MakeArgNumErrReply("select")
	}
	index, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	if !validIndex(index) {
		return &reply.DBIndexOutOfRangeErrReply{}
	}
	if client != nil {
		client.SelectDB(index)
	}
	return reply.OkReply
}

func execSwapDB(set *DatabaseSet, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args) != 2 {
		return reply.MakeArgNumErrReply("swapdb")
	}
	i, errI := strconv.Atoi(string(args[0]))
	j, errJ := strconv.Atoi(string(args[1]))
	if errI != nil || errJ != nil {
		return &reply.NotAnIntegerErrReply{}
	}
	if !set.SwapDB(i, j) {
		return &reply.DBIndexOutOfRangeErrReply{}
	}
	return reply.OkReply
}

// SetPersistenceHooks wires the snapshot manager's save operations into
// the SAVE/BGSAVE/LASTSAVE commands, avoiding a database -> persist
// import cycle.
func (set *DatabaseSet) SetPersistenceHooks(saveSync func() error, saveAsync func(), lastSaveAt func() time.Time) {
	set.saveSync = saveSync
	set.saveAsync = saveAsync
	set.lastSaveAt = lastSaveAt
	for _, db := range set.dbs {
		db.ownerSet = set
	}
}
