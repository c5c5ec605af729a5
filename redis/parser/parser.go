// Package parser turns a byte stream into a sequence of RESP values
// (spec.md §4.1): first byte selects the frame kind, CRLF terminates
// lines, bulk strings carry an explicit length and may contain any bytes
// including embedded CRLF. Only a line starting with '*' opens an array
// frame; every other line, including one whose first byte is another
// RESP kind byte (+ - : $), enters inline mode: split on whitespace into
// a multi-bulk array, the legacy telnet-friendly form.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"runtime/debug"
	"strconv"

	"github.com/NozeIO/redi-s/lib/logger"
	"github.com/NozeIO/redi-s/redis/reply"
)

// Payload carries one parsed frame or the error that ended the stream.
type Payload struct {
	Data *reply.MultiBulkReply
	Err  error
}

// ParseStream reads frames from reader and streams them over the returned
// channel until EOF or an unrecoverable protocol error; the channel is
// closed when parsing stops.
func ParseStream(reader io.Reader) <-chan *Payload {
	ch := make(chan *Payload)
	go parse0(reader, ch)
	return ch
}

// ParseBytes parses every complete frame in data and returns them.
func ParseBytes(data []byte) ([]*reply.MultiBulkReply, error) {
	ch := make(chan *Payload)
	go parse0(bytes.NewReader(data), ch)
	var results []*reply.MultiBulkReply
	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF {
				break
			}
			return nil, payload.Err
		}
		results = append(results, payload.Data)
	}
	return results, nil
}

// ParseOne parses the first frame in data.
func ParseOne(data []byte) (*reply.MultiBulkReply, error) {
	ch := make(chan *Payload)
	go parse0(bytes.NewReader(data), ch)
	payload, ok := <-ch
	if !ok || payload == nil {
		return nil, errors.New("no protocol")
	}
	return payload.Data, payload.Err
}

func parse0(rawReader io.Reader, ch chan<- *Payload) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("parser panic", err, string(debug.Stack()))
		}
	}()
	reader := bufio.NewReader(rawReader)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			ch <- &Payload{Err: err}
			close(ch)
			return
		}
		length := len(line)
		if length <= 2 || line[length-2] != '\r' {
			continue
		}
		line = line[:length-2]

		var frame *reply.MultiBulkReply
		switch line[0] {
		case '*':
			frame, err = parseArray(line, reader)
		default:
			frame = parseInline(line)
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				ch <- &Payload{Err: err}
				close(ch)
				return
			}
			// Malformed framing desyncs the stream — whatever bytes
			// follow can no longer be parsed as commands, so this ends
			// the stream the same way EOF does (spec.md §4.8/§6/§7).
			ch <- &Payload{Err: protocolError(err.Error())}
			close(ch)
			return
		}
		ch <- &Payload{Data: frame}
	}
}

// parseInline splits a plain whitespace-separated line into a multi-bulk
// array, the legacy telnet-friendly framing spec.md §4.1 and the GLOSSARY
// call "inline mode".
func parseInline(line []byte) *reply.MultiBulkReply {
	fields := bytes.Fields(line)
	args := make([][]byte, len(fields))
	copy(args, fields)
	return reply.MakeMultiBulkReply(args)
}

func parseArray(header []byte, reader *bufio.Reader) (*reply.MultiBulkReply, error) {
	nStrs, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || nStrs < -1 {
		return nil, errors.New("illegal array header: " + string(header))
	}
	if nStrs <= 0 {
		return reply.MakeEmptyMultiBulkReply(), nil
	}
	args := make([][]byte, 0, nStrs)
	for i := int64(0); i < nStrs; i++ {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		length := len(line)
		if length < 4 || line[length-2] != '\r' || line[0] != '$' {
			return nil, errors.New("illegal bulk string header: " + string(line))
		}
		strLen, err := strconv.ParseInt(string(line[1:length-2]), 10, 64)
		if err != nil || strLen < -1 {
			return nil, errors.New("illegal bulk string length: " + string(line))
		}
		if strLen == -1 {
			args = append(args, nil)
			continue
		}
		body := make([]byte, strLen+2)
		if _, err := io.ReadFull(reader, body); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		args = append(args, body[:strLen])
	}
	return reply.MakeMultiBulkReply(args), nil
}

func protocolError(msg string) error {
	return errors.New("protocol error: " + msg)
}
