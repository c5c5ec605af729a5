// Package connection implements interface/redis.Connection against a
// live net.Conn. Grounded on the teacher's redis/connection/conn.go,
// trimmed of multiState/queue/watching (MULTI/EXEC/WATCH is a non-goal)
// and extended with the id/timestamps/last-command/monitoring/pattern
// fields spec.md §3's Connection data model requires.
package connection

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var nextID int64

// Connection wraps one accepted net.Conn with the state a command
// handler or the pub/sub bus needs: identity, timestamps, selected
// database, monitoring flag, and subscription sets.
type Connection struct {
	conn net.Conn

	mu sync.Mutex

	id   int64
	name string

	selectedDB int
	isMonitor  bool

	subs     map[string]bool
	patterns map[string]bool

	createdAt    int64
	lastActiveAt int64
	lastCmd      string
}

// NewConn wraps conn, assigning it the next monotonic client id.
func NewConn(conn net.Conn) *Connection {
	now := time.Now().UnixMilli()
	return &Connection{
		conn:         conn,
		id:           atomic.AddInt64(&nextID, 1),
		createdAt:    now,
		lastActiveAt: now,
	}
}

// Write sends b to the client. Concurrent writers (a command reply and a
// pub/sub delivery racing on the same connection) are serialized by mu.
func (c *Connection) Write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

// RemoteAddr returns the client's peer address as a string.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ID returns the connection's monotonic client id.
func (c *Connection) ID() int64 {
	return c.id
}

// Name returns the name set by CLIENT SETNAME, or "" if none was set.
func (c *Connection) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// SetName implements CLIENT SETNAME.
func (c *Connection) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// GetDBIndex returns the connection's currently selected database.
func (c *Connection) GetDBIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedDB
}

// SelectDB implements SELECT.
func (c *Connection) SelectDB(dbIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedDB = dbIndex
}

// Subscribe records channel as one of this connection's exact-channel
// subscriptions.
func (c *Connection) Subscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	c.subs[channel] = true
}

// Unsubscribe drops channel from this connection's exact-channel
// subscriptions.
func (c *Connection) Unsubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, channel)
}

// SubscribePattern records pattern as one of this connection's
// pattern subscriptions.
func (c *Connection) SubscribePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.patterns == nil {
		c.patterns = make(map[string]bool)
	}
	c.patterns[pattern] = true
}

// UnsubscribePattern drops pattern from this connection's pattern
// subscriptions.
func (c *Connection) UnsubscribePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.patterns, pattern)
}

// SubsCount returns the combined number of channel and pattern
// subscriptions, used for the SUBSCRIBE/UNSUBSCRIBE acknowledgement
// count and for the RESP/SUBSCRIBE connection-state transition
// (spec.md §4.9).
func (c *Connection) SubsCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs) + len(c.patterns)
}

// Channels returns every channel this connection is subscribed to.
func (c *Connection) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		result = append(result, ch)
	}
	return result
}

// Patterns returns every pattern this connection is subscribed to.
func (c *Connection) Patterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, 0, len(c.patterns))
	for p := range c.patterns {
		result = append(result, p)
	}
	return result
}

// SetMonitor toggles this connection's MONITOR flag.
func (c *Connection) SetMonitor(isMonitor bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isMonitor = isMonitor
}

// IsMonitor reports whether this connection issued MONITOR.
func (c *Connection) IsMonitor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isMonitor
}

// CreatedAt returns the connection's creation instant as epoch
// milliseconds.
func (c *Connection) CreatedAt() int64 {
	return c.createdAt
}

// LastActiveAt returns the instant of the most recently dispatched
// command, as epoch milliseconds.
func (c *Connection) LastActiveAt() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActiveAt
}

// LastCmd returns the most recently dispatched command's verb.
func (c *Connection) LastCmd() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCmd
}

// SetLastCmd records cmd as the most recently dispatched command and
// bumps the last-activity timestamp.
func (c *Connection) SetLastCmd(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCmd = cmd
	c.lastActiveAt = time.Now().UnixMilli()
}
