package database

import (
	"time"

	"github.com/NozeIO/redi-s/datastruct/dict"
)

// CmdLine is a parsed command invocation: verb followed by its arguments.
type CmdLine = [][]byte

// Database is one of the 16 fixed keyspaces making up a DatabaseSet
// (spec.md §4.4). Unlike the teacher's DB, which guards its own
// ConcurrentDict with per-key striped locks, Database does no locking of
// its own — every method assumes the caller already holds the
// DatabaseSet's single reader/writer lock (spec.md §4.5). Grounded on the
// shape of the teacher's database/database.go, reworked onto the coarser
// lock.
type Database struct {
	index  int
	data   dict.Dict
	ttlMap dict.Dict // key -> time.Time deadline

	changeCount int
	savePoints  []SavePoint
	onSavePoint func(delay time.Duration)

	// ownerSet lets a handful of server-level commands (SAVE/BGSAVE/
	// LASTSAVE) reach the DatabaseSet's persistence hooks without
	// widening ExecFunc's signature for every other handler.
	ownerSet *DatabaseSet
}

// SavePoint is a (delay, change-count-threshold) rule: once a database's
// change counter reaches threshold, a snapshot is scheduled to run after
// a quiet period of delay (spec.md §4.4/§4.6).
type SavePoint struct {
	Delay     time.Duration
	Threshold int
}

// NewDatabase creates an empty Database for the given index. savePoints
// and onSavePoint are consulted after every successful write; onSavePoint
// is nil-safe (a nil callback disables save-point notifications, e.g. in
// tests).
func NewDatabase(index int, savePoints []SavePoint, onSavePoint func(delay time.Duration)) *Database {
	return &Database{
		index:       index,
		data:        dict.MakeSimple(),
		ttlMap:      dict.MakeSimple(),
		savePoints:  savePoints,
		onSavePoint: onSavePoint,
	}
}

// bumpChange increments the change counter and fires the save-point
// callback for the save point (if any) whose threshold exactly matches
// the new count; when several match, the one with the smallest delay
// wins (spec.md §4.4).
func (db *Database) bumpChange() {
	db.changeCount++
	if db.onSavePoint == nil {
		return
	}
	matched := false
	var best time.Duration
	for _, sp := range db.savePoints {
		if sp.Threshold == db.changeCount && (!matched || sp.Delay < best) {
			best = sp.Delay
			matched = true
		}
	}
	if matched {
		db.onSavePoint(best)
	}
}

// MarkDirty records a write to a container already present in the
// database (e.g. LPUSH onto an existing list) that did not go through
// PutEntity/Remove. Handlers for list/set/hash commands call this once
// per successful mutation.
func (db *Database) MarkDirty() {
	db.bumpChange()
}

// ResetChangeCount zeroes the change counter, called by the snapshot
// manager just before it serializes this database.
func (db *Database) ResetChangeCount() {
	db.changeCount = 0
}

// ChangeCount returns the current change counter, for diagnostics.
func (db *Database) ChangeCount() int {
	return db.changeCount
}

// Index returns the database's position within its DatabaseSet.
func (db *Database) Index() int {
	return db.index
}

// GetEntity returns the entity bound to key. Expired keys are not
// lazily filtered here (spec.md §4.4): the timer sweep is solely
// responsible for removing them.
func (db *Database) GetEntity(key string) (*DataEntity, bool) {
	raw, ok := db.data.Get(key)
	if !ok {
		return nil, false
	}
	return raw.(*DataEntity), true
}

// PutEntity stores entity under key, returning 1 if key was newly
// inserted, 0 if it replaced an existing value.
func (db *Database) PutEntity(key string, entity *DataEntity) int {
	result := db.data.Put(key, entity)
	db.bumpChange()
	return result
}

// insertEntity stores entity under key without bumping the change
// counter. It exists for getOrInitList/getOrInitDict/getOrInitSet,
// whose callers always follow up with their own MarkDirty once the
// mutation they're making room for actually succeeds — going through
// PutEntity here as well would count the same write twice (spec.md §3's
// "one write, one increment").
func (db *Database) insertEntity(key string, entity *DataEntity) {
	db.data.Put(key, entity)
}

// setTTLNoCount records key's expiration without bumping the change
// counter, for handlers (SET/SETEX/PSETEX/GETSET/MSET) that set a value
// and its expiration as a single logical write and call MarkDirty
// themselves exactly once for the pair.
func (db *Database) setTTLNoCount(key string, deadline time.Time) {
	db.ttlMap.Put(key, deadline)
}

// clearTTLNoCount removes key's expiration without bumping the change
// counter, for the same reason as setTTLNoCount.
func (db *Database) clearTTLNoCount(key string) {
	db.ttlMap.Remove(key)
}

// PutIfExists stores entity under key only if key is already present.
func (db *Database) PutIfExists(key string, entity *DataEntity) int {
	result := db.data.PutIfExists(key, entity)
	if result > 0 {
		db.bumpChange()
	}
	return result
}

// PutIfAbsent stores entity under key only if key is not already present.
func (db *Database) PutIfAbsent(key string, entity *DataEntity) int {
	result := db.data.PutIfAbsent(key, entity)
	if result > 0 {
		db.bumpChange()
	}
	return result
}

// Remove deletes key and its expiration, returning 1 if key was present.
func (db *Database) Remove(key string) int {
	db.ttlMap.Remove(key)
	result := db.data.Remove(key)
	if result > 0 {
		db.bumpChange()
	}
	return result
}

// Removes deletes every key in keys, returning the number actually present.
func (db *Database) Removes(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if _, exists := db.data.Get(key); exists {
			db.Remove(key)
			deleted++
		}
	}
	return deleted
}

// Rename moves the entity (and expiration) bound to src onto dst,
// overwriting any prior value at dst. It reports false if src does not
// exist.
func (db *Database) Rename(src, dst string) bool {
	entity, exists := db.GetEntity(src)
	if !exists {
		return false
	}
	deadline, hasTTL := db.getTTL(src)
	db.data.Remove(src)
	db.ttlMap.Remove(src)
	db.data.Put(dst, entity)
	if hasTTL {
		db.ttlMap.Put(dst, deadline)
	} else {
		db.ttlMap.Remove(dst)
	}
	db.bumpChange()
	return true
}

// Len returns the number of live keys (DBSIZE).
func (db *Database) Len() int {
	return db.data.Len()
}

// Flush removes every key and expiration.
func (db *Database) Flush() {
	db.data.Clear()
	db.ttlMap.Clear()
}

// ForEach visits every key/entity pair until consumer returns false.
func (db *Database) ForEach(consumer func(key string, entity *DataEntity) bool) {
	db.data.ForEach(func(key string, raw interface{}) bool {
		return consumer(key, raw.(*DataEntity))
	})
}

/* ---- expirations ---- */

func (db *Database) getTTL(key string) (time.Time, bool) {
	raw, ok := db.ttlMap.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return raw.(time.Time), true
}

// Expire records that key should expire at deadline, overwriting any
// prior expiration. The caller (DatabaseSet) is responsible for waking a
// timer no later than deadline.
func (db *Database) Expire(key string, deadline time.Time) {
	db.ttlMap.Put(key, deadline)
	db.bumpChange()
}

// Persist clears key's expiration, reporting whether it had one.
func (db *Database) Persist(key string) bool {
	had := db.ttlMap.Remove(key) > 0
	if had {
		db.bumpChange()
	}
	return had
}

// TTLAt reports key's expiration deadline, if any. The second return
// value is false for keys with no expiration set.
func (db *Database) TTLAt(key string) (time.Time, bool) {
	return db.getTTL(key)
}

// NextDeadline returns the earliest pending expiration deadline across
// every key in the database, if any.
func (db *Database) NextDeadline() (time.Time, bool) {
	var earliest time.Time
	found := false
	db.ttlMap.ForEach(func(_ string, raw interface{}) bool {
		deadline := raw.(time.Time)
		if !found || deadline.Before(earliest) {
			earliest = deadline
			found = true
		}
		return true
	})
	return earliest, found
}

// SweepExpired removes every key whose deadline is at or before now,
// returning the keys removed. The caller must hold the DatabaseSet's
// write lock.
func (db *Database) SweepExpired(now time.Time) []string {
	var expired []string
	db.ttlMap.ForEach(func(key string, raw interface{}) bool {
		deadline := raw.(time.Time)
		if !now.Before(deadline) {
			expired = append(expired, key)
		}
		return true
	})
	for _, key := range expired {
		db.data.Remove(key)
		db.ttlMap.Remove(key)
	}
	return expired
}
