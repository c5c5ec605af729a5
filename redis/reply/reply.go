// Package reply implements the RESP value kinds described in spec.md §3:
// simple string, bulk string, integer, error and array.
package reply

import (
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/NozeIO/redi-s/interface/redis"
)

// CRLF is the line separator of the Redis serialization protocol.
const CRLF = "\r\n"

var nullBulkReplyBytes = []byte("$-1\r\n")
var nullArrayReplyBytes = []byte("*-1\r\n")

/* ---- Bulk Reply ---- */

// BulkReply stores a binary-safe string. A nil Arg renders as the RESP
// null bulk string ($-1\r\n), distinct from a zero-length non-nil Arg.
type BulkReply struct {
	Arg []byte
}

// MakeBulkReply creates a BulkReply.
func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

// ToBytes marshals the reply to its wire form.
func (r *BulkReply) ToBytes() []byte {
	if r.Arg == nil {
		return nullBulkReplyBytes
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.WriteByte('$')
	buf.B = strconv.AppendInt(buf.B, int64(len(r.Arg)), 10)
	buf.WriteString(CRLF)
	buf.Write(r.Arg)
	buf.WriteString(CRLF)
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

// MakeNullBulkReply creates the RESP null bulk string.
func MakeNullBulkReply() *BulkReply {
	return &BulkReply{Arg: nil}
}

/* ---- Multi Bulk Reply ---- */

// MultiBulkReply stores an array of binary-safe strings, e.g. the
// (verb, args...) command line sent by a client, or a list-valued result
// such as LRANGE. A nil element renders as a null bulk string.
type MultiBulkReply struct {
	Args [][]byte
}

// MakeMultiBulkReply creates a MultiBulkReply.
func MakeMultiBulkReply(args [][]byte) *MultiBulkReply {
	return &MultiBulkReply{Args: args}
}

// ToBytes marshals the reply to its wire form.
func (r *MultiBulkReply) ToBytes() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.WriteByte('*')
	buf.B = strconv.AppendInt(buf.B, int64(len(r.Args)), 10)
	buf.WriteString(CRLF)
	for _, arg := range r.Args {
		if arg == nil {
			buf.WriteString("$-1" + CRLF)
			continue
		}
		buf.WriteByte('$')
		buf.B = strconv.AppendInt(buf.B, int64(len(arg)), 10)
		buf.WriteString(CRLF)
		buf.Write(arg)
		buf.WriteString(CRLF)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

// MakeEmptyMultiBulkReply creates an empty (zero-length) array reply.
func MakeEmptyMultiBulkReply() *MultiBulkReply {
	return &MultiBulkReply{Args: [][]byte{}}
}

// EmptyMultiBulkReply is the shared "*0\r\n" reply.
var EmptyMultiBulkReply = &MultiBulkReply{Args: [][]byte{}}

// NullArrayReply is the RESP null array (*-1\r\n), distinct from an empty
// array; used where the protocol distinguishes "no array" from "an empty
// one" (e.g. a timed-out blocking pop, not used by any command in this
// core but kept for codec symmetry with the null bulk string).
type NullArrayReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *NullArrayReply) ToBytes() []byte {
	return nullArrayReplyBytes
}

/* ---- Multi Raw Reply ---- */

// MultiRawReply wraps a pre-rendered list of replies, for responses whose
// elements are not all bulk strings (e.g. COMMAND's per-command tuples).
type MultiRawReply struct {
	Replies []redis.Reply
}

// MakeMultiRawReply creates a MultiRawReply.
func MakeMultiRawReply(replies []redis.Reply) *MultiRawReply {
	return &MultiRawReply{Replies: replies}
}

// ToBytes marshals the reply to its wire form.
func (r *MultiRawReply) ToBytes() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.WriteByte('*')
	buf.B = strconv.AppendInt(buf.B, int64(len(r.Replies)), 10)
	buf.WriteString(CRLF)
	for _, rep := range r.Replies {
		buf.Write(rep.ToBytes())
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

/* ---- Status Reply ---- */

// StatusReply stores a simple status line, e.g. +OK.
type StatusReply struct {
	Status string
}

// MakeStatusReply creates a StatusReply.
func MakeStatusReply(status string) *StatusReply {
	return &StatusReply{Status: status}
}

// ToBytes marshals the reply to its wire form.
func (r *StatusReply) ToBytes() []byte {
	return []byte("+" + r.Status + CRLF)
}

// OkReply is the shared +OK reply.
var OkReply = &StatusReply{Status: "OK"}

// PongReply is the shared +PONG reply.
var PongReply = &StatusReply{Status: "PONG"}

/* ---- Int Reply ---- */

// IntReply stores a 64-bit signed integer.
type IntReply struct {
	Code int64
}

// MakeIntReply creates an IntReply.
func MakeIntReply(code int64) *IntReply {
	return &IntReply{Code: code}
}

// ToBytes marshals the reply to its wire form.
func (r *IntReply) ToBytes() []byte {
	return []byte(":" + strconv.FormatInt(r.Code, 10) + CRLF)
}

/* ---- Error Reply ---- */

// ErrorReply is both a redis.Reply and a Go error, so command handlers
// can return it through either interface.
type ErrorReply interface {
	Error() string
	ToBytes() []byte
}

// StandardErrReply is a generic `-<message>` error, where message already
// includes the error code prefix (e.g. "WRONGTYPE ...", "ERR ...").
type StandardErrReply struct {
	Status string
}

// MakeErrReply creates a StandardErrReply.
func MakeErrReply(status string) *StandardErrReply {
	return &StandardErrReply{Status: status}
}

// ToBytes marshals the reply to its wire form.
func (r *StandardErrReply) ToBytes() []byte {
	return []byte("-" + r.Status + CRLF)
}

func (r *StandardErrReply) Error() string {
	return r.Status
}

// IsErrorReply reports whether reply is an error reply.
func IsErrorReply(reply redis.Reply) bool {
	b := reply.ToBytes()
	return len(b) > 0 && b[0] == '-'
}

// WrongTypeErrReply is returned when a command targets a key holding a
// value of a different kind (spec.md §3, §7).
type WrongTypeErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *WrongTypeErrReply) ToBytes() []byte {
	return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value" + CRLF)
}

func (r *WrongTypeErrReply) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

// ArgNumErrReply is returned on arity mismatch.
type ArgNumErrReply struct {
	Cmd string
}

// MakeArgNumErrReply creates an ArgNumErrReply.
func MakeArgNumErrReply(cmd string) *ArgNumErrReply {
	return &ArgNumErrReply{Cmd: cmd}
}

// ToBytes marshals the reply to its wire form.
func (r *ArgNumErrReply) ToBytes() []byte {
	return []byte("-ERR wrong number of arguments for '" + r.Cmd + "' command" + CRLF)
}

func (r *ArgNumErrReply) Error() string {
	return "ERR wrong number of arguments for '" + r.Cmd + "' command"
}

// SyntaxErrReply is returned for malformed option combinations.
type SyntaxErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *SyntaxErrReply) ToBytes() []byte {
	return []byte("-ERR syntax error" + CRLF)
}

func (r *SyntaxErrReply) Error() string {
	return "ERR syntax error"
}

// UnknownCommandErrReply is returned for an unrecognized verb.
type UnknownCommandErrReply struct {
	Cmd string
}

// ToBytes marshals the reply to its wire form.
func (r *UnknownCommandErrReply) ToBytes() []byte {
	return []byte("-ERR unknown command '" + r.Cmd + "'" + CRLF)
}

func (r *UnknownCommandErrReply) Error() string {
	return "ERR unknown command '" + r.Cmd + "'"
}

// NotAnIntegerErrReply is returned when a value expected to be a base-10
// integer cannot be parsed as one.
type NotAnIntegerErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *NotAnIntegerErrReply) ToBytes() []byte {
	return []byte("-ERR value is not an integer or out of range" + CRLF)
}

func (r *NotAnIntegerErrReply) Error() string {
	return "ERR value is not an integer or out of range"
}

// IndexOutOfRangeErrReply is returned by LSET and friends.
type IndexOutOfRangeErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *IndexOutOfRangeErrReply) ToBytes() []byte {
	return []byte("-ERR index out of range" + CRLF)
}

func (r *IndexOutOfRangeErrReply) Error() string {
	return "ERR index out of range"
}

// NoSuchKeyErrReply is returned by RENAME when the source key is missing.
type NoSuchKeyErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *NoSuchKeyErrReply) ToBytes() []byte {
	return []byte("-ERR no such key" + CRLF)
}

func (r *NoSuchKeyErrReply) Error() string {
	return "ERR no such key"
}

// PatternNotImplementedErrReply is returned when a KEYS/PSUBSCRIBE pattern
// falls outside the restricted glob subset (spec.md §4.3).
type PatternNotImplementedErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *PatternNotImplementedErrReply) ToBytes() []byte {
	return []byte("-500 pattern not implemented" + CRLF)
}

func (r *PatternNotImplementedErrReply) Error() string {
	return "500 pattern not implemented"
}

// InternalErrReply reports an unexpected invariant violation.
type InternalErrReply struct {
	Msg string
}

// ToBytes marshals the reply to its wire form.
func (r *InternalErrReply) ToBytes() []byte {
	return []byte("-500 " + r.Msg + CRLF)
}

func (r *InternalErrReply) Error() string {
	return "500 " + r.Msg
}

// DBIndexOutOfRangeErrReply is returned by SELECT/SWAPDB with an index
// outside [0, 16).
type DBIndexOutOfRangeErrReply struct{}

// ToBytes marshals the reply to its wire form.
func (r *DBIndexOutOfRangeErrReply) ToBytes() []byte {
	return []byte("-ERR DB index is out of range" + CRLF)
}

func (r *DBIndexOutOfRangeErrReply) Error() string {
	return "ERR DB index is out of range"
}

// NoReply is returned by handlers (e.g. SUBSCRIBE) that write their own
// response(s) directly to the connection and have nothing left for the
// caller to flush.
type NoReply struct{}

// ToBytes marshals the reply to its wire form: NoReply renders as nothing.
func (r *NoReply) ToBytes() []byte {
	return []byte{}
}
