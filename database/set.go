package database

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NozeIO/redi-s/interface/redis"
	"github.com/NozeIO/redi-s/lib/logger"
	"github.com/NozeIO/redi-s/lib/timewheel"
	"github.com/NozeIO/redi-s/pubsub"
	"github.com/NozeIO/redi-s/redis/reply"
)

// NumDatabases is the fixed number of keyspaces in a DatabaseSet
// (spec.md §4.5).
const NumDatabases = 16

// expireTick is the quantization granularity of the expiration wheel
// (spec.md §4.4's "deadlines are rounded to 10ms ticks").
const expireTick = 10 * time.Millisecond

const expireSlots = 1 << 14

// DatabaseSet is the top-level storage engine: a fixed sequence of 16
// Databases guarded by a single reader/writer lock, plus the shared
// expiration wheel and save-point notifier that drive the 16 Databases.
// Grounded on the shape of the teacher's db.go/cluster.go server-level
// aggregation, redesigned around one coarse lock in place of the
// teacher's per-key striping (see DESIGN.md).
type DatabaseSet struct {
	mu   sync.RWMutex
	dbs  [NumDatabases]*Database
	wake [NumDatabases]time.Time // currently scheduled wake deadline, zero if none

	wheel *timewheel.TimeWheel

	onSavePoint func(delay time.Duration)

	hub *pubsub.Hub

	saveSync   func() error
	saveAsync  func()
	lastSaveAt func() time.Time
}

// NewDatabaseSet creates a DatabaseSet with 16 empty databases and starts
// its expiration wheel. savePoints is shared by every database; onSave is
// invoked whenever a save point fires, from inside the write lock held by
// the command whose write triggered it.
func NewDatabaseSet(savePoints []SavePoint, onSave func(delay time.Duration)) *DatabaseSet {
	set := &DatabaseSet{
		wheel:       timewheel.New(expireTick, expireSlots),
		onSavePoint: onSave,
		hub:         pubsub.MakeHub(),
	}
	for i := range set.dbs {
		set.dbs[i] = NewDatabase(i, savePoints, set.onSavePoint)
		set.dbs[i].ownerSet = set
	}
	set.wheel.Start()
	return set
}

// Hub exposes the pub/sub bus so the server layer can report it in
// introspection commands and (via AfterClientClose) clean up on
// disconnect.
func (set *DatabaseSet) Hub() *pubsub.Hub {
	return set.hub
}

// AfterClientClose cancels every pending subscription belonging to
// client, called once the connection has been closed (spec.md §5).
func (set *DatabaseSet) AfterClientClose(client redis.Connection) {
	pubsub.UnsubscribeAll(set.hub, client)
}

// Close stops the expiration wheel.
func (set *DatabaseSet) Close() {
	set.wheel.Stop()
}

func expireWakeKey(dbIndex int) string {
	return fmt.Sprintf("expire:%d", dbIndex)
}

// scheduleWake ensures a wake-up is pending no later than deadline for
// dbIndex, coalescing with any earlier pending wake (spec.md §4.4). The
// caller must hold the write lock.
func (set *DatabaseSet) scheduleWake(dbIndex int, deadline time.Time) {
	existing := set.wake[dbIndex]
	if !existing.IsZero() && !existing.After(deadline) {
		return // an earlier-or-equal wake already covers this deadline
	}
	set.wake[dbIndex] = deadline
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}
	set.wheel.AddJob(delay, expireWakeKey(dbIndex), func() {
		set.sweepOne(dbIndex)
	})
}

// sweepOne runs the expiration sweep for one database, then reschedules
// the next wake if keys remain.
func (set *DatabaseSet) sweepOne(dbIndex int) {
	set.mu.Lock()
	defer set.mu.Unlock()
	db := set.dbs[dbIndex]
	now := time.Now()
	expired := db.SweepExpired(now)
	for _, key := range expired {
		logger.Debug("expired key " + key)
	}
	set.wake[dbIndex] = time.Time{}
	if next, ok := db.NextDeadline(); ok {
		set.scheduleWake(dbIndex, next)
	}
}

// validIndex reports whether i names one of the fixed 16 databases.
func validIndex(i int) bool {
	return i >= 0 && i < NumDatabases
}

// WithReadLock runs fn against the database at dbIndex under the set's
// read lock.
func (set *DatabaseSet) WithReadLock(dbIndex int, fn func(db *Database)) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	fn(set.dbs[dbIndex])
}

// WithWriteLock runs fn against the database at dbIndex under the set's
// write lock, and arranges an expiration wake-up if fn left a pending
// deadline that isn't already covered.
func (set *DatabaseSet) WithWriteLock(dbIndex int, fn func(db *Database)) {
	set.mu.Lock()
	defer set.mu.Unlock()
	db := set.dbs[dbIndex]
	fn(db)
	if next, ok := db.NextDeadline(); ok {
		set.scheduleWake(dbIndex, next)
	}
}

// SwapDB exchanges databases i and j atomically under the write lock.
// i == j is a no-op that still succeeds (spec.md §4.8).
func (set *DatabaseSet) SwapDB(i, j int) bool {
	if !validIndex(i) || !validIndex(j) {
		return false
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if i == j {
		return true
	}
	set.dbs[i], set.dbs[j] = set.dbs[j], set.dbs[i]
	set.dbs[i].index, set.dbs[j].index = i, j
	set.wake[i], set.wake[j] = set.wake[j], set.wake[i]
	return true
}

// DBSize reports the key count and number of keys carrying an expiration
// for database dbIndex.
func (set *DatabaseSet) DBSize(dbIndex int) (keys int, withTTL int) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	db := set.dbs[dbIndex]
	keys = db.Len()
	db.ttlMap.ForEach(func(_ string, _ interface{}) bool {
		withTTL++
		return true
	})
	return
}

// ForEachDatabase runs fn against every database under the read lock, in
// index order; used by the snapshot manager to serialize the whole set.
func (set *DatabaseSet) ForEachDatabase(fn func(dbIndex int, db *Database)) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	for i, db := range set.dbs {
		fn(i, db)
	}
}

// ResetChangeCounts zeroes every database's change counter under the
// write lock; called by the snapshot manager immediately before a
// scheduled save serializes the set (spec.md §4.6).
func (set *DatabaseSet) ResetChangeCounts() {
	set.mu.Lock()
	defer set.mu.Unlock()
	for _, db := range set.dbs {
		db.ResetChangeCount()
	}
}

// LoadDatabase replaces the contents of database dbIndex wholesale,
// called while loading a snapshot. The wheel is consulted afterward so
// that any expired-but-persisted keys are swept promptly (spec.md
// §4.6's load()).
func (set *DatabaseSet) LoadDatabase(dbIndex int, db *Database) {
	set.mu.Lock()
	db.index = dbIndex
	db.ownerSet = set
	set.dbs[dbIndex] = db
	now := time.Now()
	expired := db.SweepExpired(now)
	for _, key := range expired {
		logger.Debug("expired key " + key + " while loading snapshot")
	}
	var next time.Time
	var ok bool
	if next, ok = db.NextDeadline(); ok {
		set.scheduleWake(dbIndex, next)
	}
	set.mu.Unlock()
}

// Exec dispatches a client command against the database currently
// selected on the connection (spec.md §4.9). SELECT/SWAPDB are handled
// here because they act on the set as a whole rather than one database.
func (set *DatabaseSet) Exec(client redis.Connection, cmdLine CmdLine) redis.Reply {
	if len(cmdLine) == 0 {
		return reply.MakeErrReply("ERR empty command")
	}
	cmdName := strings.ToLower(string(cmdLine[0]))
	switch cmdName {
	case "select":
		return execSelect(set, client, cmdLine[1:])
	case "swapdb":
		return execSwapDB(set, client, cmdLine[1:])
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe", "publish", "pubsub":
		return set.execPubSub(client, cmdName, cmdLine[1:])
	case "save", "bgsave":
		return set.execPersistenceCmd(client, cmdName, cmdLine)
	}
	return set.execOnSelected(client, cmdName, cmdLine)
}

// execPersistenceCmd runs SAVE/BGSAVE outside execOnSelected's database
// lock. SAVE blocks on persist.Manager.SaveSync, whose work-stream
// goroutine serializes the set via EncodeSet -> ForEachDatabase, which
// takes the set's read lock; running SAVE under execOnSelected's write
// lock would make that RLock wait forever on the very write lock SAVE's
// own goroutine is blocked behind (see DESIGN.md). execSave/execBGSave
// only ever touch db.ownerSet, never the Database itself, so calling
// them against set.dbs[0] with no lock held is safe.
func (set *DatabaseSet) execPersistenceCmd(client redis.Connection, cmdName string, cmdLine CmdLine) redis.Reply {
	cmd, ok := cmdTable[cmdName]
	if !ok {
		return reply.MakeErrReply("ERR unknown command '" + cmdName + "'")
	}
	if !validateArity(cmd.arity, cmdLine) {
		return reply.MakeArgNumErrReply(cmdName)
	}
	return cmd.executor(set.dbs[0], client, cmdLine[1:])
}

func (set *DatabaseSet) execOnSelected(client redis.Connection, cmdName string, cmdLine CmdLine) redis.Reply {
	cmd, ok := cmdTable[cmdName]
	if !ok {
		return reply.MakeErrReply("ERR unknown command '" + cmdName + "'")
	}
	if !validateArity(cmd.arity, cmdLine) {
		return reply.MakeArgNumErrReply(cmdName)
	}
	dbIndex := 0
	if client != nil {
		dbIndex = client.GetDBIndex()
	}
	if !validIndex(dbIndex) {
		return &reply.DBIndexOutOfRangeErrReply{}
	}
	var result redis.Reply
	if cmd.flags&flagReadonly != 0 {
		set.WithReadLock(dbIndex, func(db *Database) {
			result = cmd.executor(db, client, cmdLine[1:])
		})
	} else {
		set.WithWriteLock(dbIndex, func(db *Database) {
			result = cmd.executor(db, client, cmdLine[1:])
		})
	}
	return result
}

func validateArity(arity int, cmdLine CmdLine) bool {
	argNum := len(cmdLine)
	if arity >= 0 {
		return argNum == arity
	}
	return argNum >= -arity
}
