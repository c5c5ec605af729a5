package database

import (
	"strings"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/wildcard"
	"github.com/NozeIO/redi-s/pubsub"
	"github.com/NozeIO/redi-s/redis/reply"
)

// execPubSub dispatches the SUBSCRIBE/UNSUBSCRIBE/PSUBSCRIBE/
// PUNSUBSCRIBE/PUBLISH/PUBSUB verbs (spec.md §4.10), which act on the
// set-wide pub/sub bus rather than on any one Database, bypassing the
// per-database lock and command table entirely — grounded on the
// teacher's special-cased dispatch in database/server.go's Exec.
func (set *DatabaseSet) execPubSub(client redis.Connection, cmdName string, args CmdLine) redis.Reply {
	switch cmdName {
	case "subscribe":
		if len(args) < 1 {
			return reply.MakeArgNumErrReply("subscribe")
		}
		return pubsub.Subscribe(set.hub, client, toStrings(args))
	case "unsubscribe":
		return pubsub.Unsubscribe(set.hub, client, toStrings(args))
	case "psubscribe":
		if len(args) < 1 {
			return reply.MakeArgNumErrReply("psubscribe")
		}
		return pubsub.PSubscribe(set.hub, client, toStrings(args))
	case "punsubscribe":
		return pubsub.PUnsubscribe(set.hub, client, toStrings(args))
	case "publish":
		if len(args) != 2 {
			return reply.MakeArgNumErrReply("publish")
		}
		delivered := pubsub.Publish(set.hub, string(args[0]), args[1])
		return reply.MakeIntReply(int64(delivered))
	case "pubsub":
		return set.execPubSubIntrospect(args)
	}
	return &reply.UnknownCommandErrReply{Cmd: cmdName}
}

func toStrings(args CmdLine) []string {
	result := make([]string, len(args))
	for i, a := range args {
		result[i] = string(a)
	}
	return result
}

// execPubSubIntrospect implements PUBSUB CHANNELS [pattern] | NUMSUB
// ch... | NUMPAT.
func (set *DatabaseSet) execPubSubIntrospect(args CmdLine) redis.Reply {
	if len(args) < 1 {
		return &reply.SyntaxErrReply{}
	}
	sub := strings.ToLower(string(args[0]))
	switch sub {
	case "channels":
		var pattern *wildcard.Pattern
		if len(args) >= 2 {
			p, err := wildcard.CompilePattern(string(args[1]))
			if err != nil {
				return &reply.PatternNotImplementedErrReply{}
			}
			pattern = p
		}
		channels := pubsub.ActiveChannels(set.hub, pattern)
		result := make([][]byte, len(channels))
		for i, c := range channels {
			result[i] = []byte(c)
		}
		return reply.MakeMultiBulkReply(result)
	case "numsub":
		return pubsub.NumSub(set.hub, toStrings(args[1:]))
	case "numpat":
		return reply.MakeIntReply(int64(pubsub.NumPat(set.hub)))
	default:
		return reply.MakeErrReply("ERR Unknown PUBSUB subcommand or wrong number of arguments for '" + sub + "'")
	}
}
