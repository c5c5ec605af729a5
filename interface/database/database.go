// Package database declares the interface the server/connection layer
// uses to drive the storage engine, independent of its implementation.
package database

import (
	"github.com/NozeIO/redi-s/interface/redis"
)

// CmdLine is a parsed command invocation: verb followed by its arguments,
// each a binary-safe byte slice.
type CmdLine = [][]byte

// DB is the core the connection/server layer talks to. database.DatabaseSet
// is the only implementation; EventLoopGroup exists purely so an embedder
// can plug in an external non-blocking engine (e.g. a gnet-style event
// loop) without the core depending on its concrete type.
type DB interface {
	Exec(client redis.Connection, cmdLine CmdLine) redis.Reply
	AfterClientClose(client redis.Connection)
	Close()
}

// EventLoopGroup is an opaque hook for an externally supplied event loop.
// The core server never dereferences it; see SPEC_FULL.md "DOMAIN STACK".
type EventLoopGroup interface{}
