package database

import (
	"strings"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/redis/reply"
)

func init() {
	register("command", "no-args", -1, flagRandom|flagLoading|flagStale, 0, 0, 0, execCommand)
}

// execCommand implements COMMAND and its subcommands (spec.md §4.7,
// supplemented per SPEC_FULL.md). Grounded on the teacher's
// commandinfo.go execCommand, trimmed of the subcommand forms this core
// doesn't need (DOCS, LIST).
func execCommand(_ *Database, _ redis.Connection, args CmdLine) redis.Reply {
	if len(args) == 0 {
		return allCommandsReply()
	}
	switch strings.ToLower(string(args[0])) {
	case "count":
		return reply.MakeIntReply(int64(len(cmdTable)))
	case "info":
		return commandInfoReply(args[1:])
	case "getkeys":
		return commandGetKeysReply(args[1:])
	default:
		return reply.MakeErrReply("ERR Unknown subcommand or wrong number of arguments for '" + string(args[0]) + "'")
	}
}

func allCommandsReply() redis.Reply {
	replies := make([]redis.Reply, 0, len(cmdTable))
	for _, cmd := range cmdTable {
		replies = append(replies, cmd.toDescReply())
	}
	return reply.MakeMultiRawReply(replies)
}

func commandInfoReply(names CmdLine) redis.Reply {
	replies := make([]redis.Reply, len(names))
	for i, name := range names {
		if cmd, ok := cmdTable[strings.ToLower(string(name))]; ok {
			replies[i] = cmd.toDescReply()
		} else {
			replies[i] = reply.MakeNullBulkReply()
		}
	}
	return reply.MakeMultiRawReply(replies)
}

func commandGetKeysReply(args CmdLine) redis.Reply {
	if len(args) == 0 {
		return reply.MakeErrReply("ERR wrong number of arguments for 'command|getkeys' command")
	}
	cmdName := strings.ToLower(string(args[0]))
	cmd, ok := cmdTable[cmdName]
	if !ok {
		return reply.MakeErrReply("ERR Invalid command specified")
	}
	fullLine := append(CmdLine{[]byte(cmdName)}, args[1:]...)
	if !validateArity(cmd.arity, fullLine) {
		return reply.MakeArgNumErrReply(cmdName)
	}
	if cmd.firstKey <= 0 {
		return reply.MakeErrReply("ERR The command has no key arguments")
	}
	keyArgs := args[1:]
	lastKey := cmd.lastKey
	if lastKey < 0 {
		lastKey = len(keyArgs) + lastKey + 1
	}
	result := make([][]byte, 0, 4)
	for i := cmd.firstKey; i <= lastKey && i <= len(keyArgs); i += cmd.step {
		result = append(result, keyArgs[i-1])
	}
	if len(result) == 0 {
		return reply.MakeErrReply("ERR The command has no key arguments")
	}
	return reply.MakeMultiBulkReply(result)
}
