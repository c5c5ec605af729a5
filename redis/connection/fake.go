package connection

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"
)

// FakeConn implements interface/redis.Connection over an in-memory
// buffer instead of a socket, for exercising command handlers and the
// pub/sub bus in tests without a real net.Conn. Grounded on the
// teacher's redis/connection/fake.go.
type FakeConn struct {
	mu sync.Mutex
	buf bytes.Buffer

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

// NewFakeConn creates a FakeConn with the next monotonic client id.
func NewFakeConn() *FakeConn {
	now := time.Now().UnixMilli()
	return &FakeConn{
		id:           atomic.AddInt64(&nextID, 1),
		createdAt:    now,
		lastActiveAt: now,
	}
}

// Write appends b to the connection's internal buffer.
func (c *FakeConn) Write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Write(b)
	return nil
}

// Bytes returns everything written so far.
func (c *FakeConn) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Bytes()
}

// Clean resets the internal buffer, for reuse across assertions within
// one test.
func (c *FakeConn) Clean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

// RemoteAddr returns a placeholder address; FakeConn has no real peer.
func (c *FakeConn) RemoteAddr() string {
	return "127.0.0.1:0"
}

// Close is a no-op; there is no underlying socket to release.
func (c *FakeConn) Close() error {
	return nil
}

func (c *FakeConn) ID() int64 {
	return c.id
}

func (c *FakeConn) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *FakeConn) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *FakeConn) GetDBIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedDB
}

func (c *FakeConn) SelectDB(dbIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedDB = dbIndex
}

func (c *FakeConn) Subscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	c.subs[channel] = true
}

func (c *FakeConn) Unsubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, channel)
}

func (c *FakeConn) SubscribePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.patterns == nil {
		c.patterns = make(map[string]bool)
	}
	c.patterns[pattern] = true
}

func (c *FakeConn) UnsubscribePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.patterns, pattern)
}

func (c *FakeConn) SubsCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs) + len(c.patterns)
}

func (c *FakeConn) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		result = append(result, ch)
	}
	return result
}

func (c *FakeConn) Patterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, 0, len(c.patterns))
	for p := range c.patterns {
		result = append(result, p)
	}
	return result
}

func (c *FakeConn) SetMonitor(isMonitor bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isMonitor = isMonitor
}

func (c *FakeConn) IsMonitor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isMonitor
}

func (c *FakeConn) CreatedAt() int64 {
	return c.createdAt
}

func (c *FakeConn) LastActiveAt() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActiveAt
}

func (c *FakeConn) LastCmd() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCmd
}

func (c *FakeConn) SetLastCmd(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCmd = cmd
	c.lastActiveAt = time.Now().UnixMilli()
}
