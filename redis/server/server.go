// Package server implements the per-connection dispatch loop and the
// accept/shutdown lifecycle of the Redis-compatible TCP listener
// (spec.md §4.9, §4.11). Grounded on the teacher's redis/server/server.go
// (connection handler) and tcp/server.go (listen/accept/signal), merged
// into one package as SPEC_FULL.md's C9+C11 boundary draws them.
package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/NozeIO/redi-s/interface/database"
	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/logger"
	"github.com/NozeIO/redi-s/redis/connection"
	"github.com/NozeIO/redi-s/redis/parser"
	"github.com/NozeIO/redi-s/redis/reply"
)

var unknownErrReplyBytes = []byte("-ERR unknown\r\n")

// Handler implements the connection-per-goroutine dispatch loop over a
// database.DB. It owns the client registry and the monitor fan-out
// (spec.md §4.9/§4.11's "monitor counter").
type Handler struct {
	activeConn sync.Map // *connection.Connection -> struct{}
	db         database.DB

	closing      int32 // atomic bool
	monitorCount int32 // atomic; number of connections currently MONITORing
}

// MakeHandler wraps db in a connection dispatcher.
func MakeHandler(db database.DB) *Handler {
	return &Handler{db: db}
}

// Handle drives one accepted connection until it closes or the stream
// parser hits an unrecoverable error.
func (h *Handler) Handle(_ context.Context, conn net.Conn) {
	if atomic.LoadInt32(&h.closing) == 1 {
		_ = conn.Close()
		return
	}

	client := connection.NewConn(conn)
	h.activeConn.Store(client, struct{}{})

	ch := parser.ParseStream(conn)
	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF ||
				payload.Err == io.ErrUnexpectedEOF ||
				strings.Contains(payload.Err.Error(), "use of closed network connection") {
				h.closeClient(client)
				logger.Info("connection closed: " + client.RemoteAddr())
				return
			}
			// A protocol-level framing error desyncs the stream (the
			// parser has already stopped reading), so the connection is
			// closed after the error is flushed rather than kept open
			// for more commands (spec.md §4.8/§6/§7).
			errReply := reply.MakeErrReply(payload.Err.Error())
			_ = client.Write(errReply.ToBytes())
			h.closeClient(client)
			logger.Info("connection closed: " + client.RemoteAddr())
			return
		}
		if payload.Data == nil {
			continue
		}
		cmdLine := payload.Data.Args
		if len(cmdLine) == 0 {
			continue
		}
		h.dispatch(client, cmdLine)
	}
}

// dispatch enforces the SUBSCRIBE connection state restriction (spec.md
// §4.9), fans the command out to any active monitors, and invokes the
// database. A panic while handling the command is recovered and answered
// with "-ERR internal error".
func (h *Handler) dispatch(client *connection.Connection, cmdLine [][]byte) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(fmt.Sprintf("panic while dispatching command: %v", err))
			_ = client.Write(reply.MakeErrReply("ERR internal error").ToBytes())
		}
	}()
	cmdName := strings.ToLower(string(cmdLine[0]))
	if client.SubsCount() > 0 && !allowedInSubscribeState(cmdName) {
		_ = client.Write(reply.MakeErrReply(
			"ERR Can't execute '" + cmdName + "': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / PUBSUB is allowed in this context").ToBytes())
		return
	}

	client.SetLastCmd(cmdName)

	if cmdName == "client" && len(cmdLine) >= 2 && strings.EqualFold(string(cmdLine[1]), "list") {
		h.fanOutToMonitors(client, cmdLine)
		_ = client.Write(reply.MakeBulkReply([]byte(h.renderClientList())).ToBytes())
		return
	}

	result := h.db.Exec(client, cmdLine)
	// Arity validation happens inside db.Exec; only echo commands that
	// passed it, matching DESIGN.md's "successfully parsed and
	// arity-valid commands are echoed" (spec.md §4.9).
	if _, isArityErr := result.(*reply.ArgNumErrReply); !isArityErr {
		h.fanOutToMonitors(client, cmdLine)
	}
	if cmdName == "monitor" && result == reply.OkReply {
		atomic.AddInt32(&h.monitorCount, 1)
	}
	if result == nil {
		_ = client.Write(unknownErrReplyBytes)
		return
	}
	if _, isNoReply := result.(*reply.NoReply); isNoReply {
		return // handler already wrote its own reply (e.g. SUBSCRIBE)
	}
	_ = client.Write(result.ToBytes())
	if cmdName == "quit" {
		h.closeClient(client)
	}
}

func allowedInSubscribeState(cmdName string) bool {
	switch cmdName {
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe", "ping", "quit", "pubsub":
		return true
	}
	return false
}

// fanOutToMonitors writes the monitor-format rendering of cmdLine to
// every connection currently MONITORing, skipping the issuing connection
// itself and the MONITOR command (spec.md §4.9).
func (h *Handler) fanOutToMonitors(client *connection.Connection, cmdLine [][]byte) {
	if atomic.LoadInt32(&h.monitorCount) == 0 {
		return
	}
	cmdName := strings.ToLower(string(cmdLine[0]))
	if cmdName == "monitor" {
		return
	}
	line := renderMonitorLine(client, cmdLine)
	h.activeConn.Range(func(key, _ interface{}) bool {
		conn := key.(*connection.Connection)
		if conn == client || !conn.IsMonitor() {
			return true
		}
		_ = conn.Write(reply.MakeStatusReply(line).ToBytes())
		return true
	})
}

// renderMonitorLine formats cmdLine the way real Redis's MONITOR stream
// does: a wall-clock timestamp with six fractional digits, the issuing
// connection's database index and peer address, and the command array
// as space-separated tokens: strings double-quoted, integers written
// bare.
func renderMonitorLine(client *connection.Connection, cmdLine [][]byte) string {
	now := time.Now()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d.%06d [%d %s]", now.Unix(), now.Nanosecond()/1000, client.GetDBIndex(), client.RemoteAddr())
	for _, arg := range cmdLine {
		buf.WriteByte(' ')
		buf.WriteString(quoteToken(arg))
	}
	return buf.String()
}

func quoteToken(arg []byte) string {
	if n, err := strconv.ParseInt(string(arg), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(arg) {
		return strconv.FormatInt(n, 10)
	}
	return strconv.Quote(string(arg))
}

// closeClient tears down client exactly once, even though both the QUIT
// handler and the subsequent closed-connection read error path call it
// for the same connection.
func (h *Handler) closeClient(client *connection.Connection) {
	if _, wasActive := h.activeConn.LoadAndDelete(client); !wasActive {
		return
	}
	_ = client.Close()
	if client.IsMonitor() {
		atomic.AddInt32(&h.monitorCount, -1)
	}
	h.db.AfterClientClose(client)
}

// ActiveConnections returns every currently connected client, for
// CLIENT LIST.
func (h *Handler) ActiveConnections() []redis.Connection {
	var result []redis.Connection
	h.activeConn.Range(func(key, _ interface{}) bool {
		result = append(result, key.(*connection.Connection))
		return true
	})
	return result
}

// renderClientList implements CLIENT LIST's one-line-per-connection
// format, sorted by client id for a stable reading order. CLIENT LIST is
// handled here rather than as a database/server.go command: the
// connection registry lives in Handler, one layer above database.DB.
func (h *Handler) renderClientList() string {
	conns := h.ActiveConnections()
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID() < conns[j].ID() })
	var buf bytes.Buffer
	for _, conn := range conns {
		fmt.Fprintf(&buf, "id=%d addr=%s name=%s db=%d age=%d cmd=%s\n",
			conn.ID(), conn.RemoteAddr(), conn.Name(), conn.GetDBIndex(),
			(time.Now().UnixMilli()-conn.CreatedAt())/1000, conn.LastCmd())
	}
	return buf.String()
}

// Close stops accepting dispatch and disconnects every active client.
func (h *Handler) Close() error {
	atomic.StoreInt32(&h.closing, 1)
	h.activeConn.Range(func(key, _ interface{}) bool {
		client := key.(*connection.Connection)
		_ = client.Close()
		return true
	})
	h.db.Close()
	return nil
}

// ListenAndServeWithSignal binds address and serves connections until a
// termination signal arrives, at which point it saves synchronously (via
// onShutdown) and returns (spec.md §4.11's SIGINT handling).
func ListenAndServeWithSignal(address string, handler *Handler, onShutdown func()) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	closeChan := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		close(closeChan)
	}()

	logger.Info("bind: " + address + ", start listening...")
	listenAndServe(listener, handler, closeChan, onShutdown)
	return nil
}

func listenAndServe(listener net.Listener, handler *Handler, closeChan <-chan struct{}, onShutdown func()) {
	errCh := make(chan error, 1)
	go func() {
		select {
		case <-closeChan:
			logger.Info("received shutdown signal")
		case err := <-errCh:
			logger.Info("accept error: " + err.Error())
		}
		if onShutdown != nil {
			onShutdown()
		}
		_ = listener.Close()
		_ = handler.Close()
	}()

	ctx := context.Background()
	var clients sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			errCh <- err
			break
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
		}
		clients.Add(1)
		go func() {
			defer clients.Done()
			handler.Handle(ctx, conn)
		}()
	}
	clients.Wait()
}
