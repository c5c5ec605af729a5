// Package persist implements the snapshot manager (spec.md §4.6): a
// single JSON dump file, saved under SAVE/BGSAVE/save-point triggers and
// loaded once at startup. Grounded on the teacher's AOF-based persistence
// in shape only — godis persists by replaying a command log, an explicit
// non-goal here — so the serialization format itself is new. Saves run
// on a single work-stream goroutine (Manager.jobs drained by workLoop),
// and save-point timers reuse the teacher's lib/timewheel (also used by
// database/set.go to schedule expiration wake-ups).
package persist

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NozeIO/redi-s/database"
	"github.com/NozeIO/redi-s/datastruct/dict"
	"github.com/NozeIO/redi-s/datastruct/list"
	"github.com/NozeIO/redi-s/datastruct/set"
	"github.com/NozeIO/redi-s/lib/logger"
	"github.com/NozeIO/redi-s/lib/timewheel"
)

const (
	saveWheelTick  = time.Second
	saveWheelSlots = 3600
	saveJobKey     = "save"
)

// keyRecord is one entry of a database's "keys" map: the tagged value
// encoding spec.md §4.2/§6 describes.
type keyRecord struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// dbRecord is one element of the top-level dump array.
type dbRecord struct {
	Keys        map[string]keyRecord `json:"keys"`
	Expirations map[string]int64     `json:"expirations"`
}

// Manager owns the dump file path, the last-save bookkeeping, and the
// single-threaded work stream that serializes every save attempt
// (spec.md §4.6's "Concurrency" paragraph).
type Manager struct {
	path       string
	set        *database.DatabaseSet
	savePoints []database.SavePoint

	mu               sync.Mutex
	lastSaveAt       time.Time
	lastSaveDuration time.Duration
	scheduledAt      time.Time

	jobs     chan func()
	wheel    *timewheel.TimeWheel
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager for set, dumping to path on save.
func NewManager(path string, set *database.DatabaseSet, savePoints []database.SavePoint) *Manager {
	return &Manager{
		path:       path,
		set:        set,
		savePoints: savePoints,
		jobs:       make(chan func()),
		wheel:      timewheel.New(saveWheelTick, saveWheelSlots),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the work-stream goroutine and the save-point timer.
func (m *Manager) Start() {
	m.wheel.Start()
	go m.workLoop()
}

// Stop halts the work stream and the save-point timer. Pending jobs are
// dropped.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wheel.Stop()
	})
}

func (m *Manager) workLoop() {
	for {
		select {
		case job := <-m.jobs:
			job()
		case <-m.stopCh:
			return
		}
	}
}

// SaveSync serializes the whole database set and atomically replaces the
// dump file, blocking until the save completes (spec.md §4.6's
// "save(sync)"). It is routed through the same work stream as BGSAVE and
// scheduled saves so none of the three can overlap.
func (m *Manager) SaveSync() error {
	done := make(chan error, 1)
	m.jobs <- func() {
		done <- m.doSave()
	}
	return <-done
}

// SaveAsync enqueues a save on the work stream and returns immediately
// (spec.md §4.6's "save(async)" — BGSAVE's "OK" precedes completion).
func (m *Manager) SaveAsync() {
	go func() {
		m.jobs <- func() {
			if err := m.doSave(); err != nil {
				logger.Error("background save failed: " + err.Error())
			}
		}
	}()
}

// LastSaveAt returns the instant of the most recently completed save, or
// the zero time if none has happened yet.
func (m *Manager) LastSaveAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaveAt
}

// ScheduleSave arranges a save no later than delay from now, coalescing
// with any earlier-deadline save already pending (spec.md §4.6's
// "scheduleSave(delay)"). Called directly from Database.bumpChange while
// the DatabaseSet's write lock is held, so it must not itself touch that
// lock — it only touches m.mu and the time wheel's own channels.
func (m *Manager) ScheduleSave(delay time.Duration) {
	deadline := time.Now().Add(delay)
	m.mu.Lock()
	if !m.scheduledAt.IsZero() && !m.scheduledAt.After(deadline) {
		m.mu.Unlock()
		return
	}
	m.scheduledAt = deadline
	m.mu.Unlock()
	m.wheel.AddJob(delay, saveJobKey, m.fireScheduledSave)
}

// fireScheduledSave runs on the time wheel's goroutine when a save point
// deadline elapses. It resets every database's change counter under the
// write lock before handing off to the work stream to actually serialize,
// exactly as spec.md §4.6 orders the two steps.
func (m *Manager) fireScheduledSave() {
	m.mu.Lock()
	m.scheduledAt = time.Time{}
	m.mu.Unlock()
	m.set.ResetChangeCounts()
	go func() {
		m.jobs <- func() {
			if err := m.doSave(); err != nil {
				logger.Error("scheduled save failed: " + err.Error())
			}
		}
	}()
}

// doSave serializes and writes the dump file, then resets every
// database's change counter (spec.md §8: "after every successful save,
// all databases' change-counter values are zero"). This covers SAVE and
// BGSAVE as well as scheduled saves — fireScheduledSave resets the
// counters again before enqueuing the job, but resetting twice is
// harmless, and doSave is the only path that's guaranteed to run after
// every kind of save actually completes.
func (m *Manager) doSave() error {
	start := time.Now()
	data, err := EncodeSet(m.set)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(m.path, data); err != nil {
		return err
	}
	finished := time.Now()
	m.mu.Lock()
	m.lastSaveAt = finished
	m.lastSaveDuration = finished.Sub(start)
	m.mu.Unlock()
	m.set.ResetChangeCounts()
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// EncodeSet serializes every database in set into the dump's JSON shape
// (spec.md §6): a top-level array of 16 {keys, expirations} objects.
func EncodeSet(set *database.DatabaseSet) ([]byte, error) {
	records := make([]dbRecord, database.NumDatabases)
	set.ForEachDatabase(func(dbIndex int, db *database.Database) {
		rec := dbRecord{
			Keys:        make(map[string]keyRecord),
			Expirations: make(map[string]int64),
		}
		db.ForEach(func(key string, entity *database.DataEntity) bool {
			kr, err := encodeEntity(entity)
			if err != nil {
				logger.Error(fmt.Sprintf("skipping key %q during snapshot: %v", key, err))
				return true
			}
			encodedKey := base64.StdEncoding.EncodeToString([]byte(key))
			rec.Keys[encodedKey] = kr
			if deadline, hasTTL := db.TTLAt(key); hasTTL {
				rec.Expirations[encodedKey] = deadline.UnixMilli()
			}
			return true
		})
		records[dbIndex] = rec
	})
	return json.Marshal(records)
}

func encodeEntity(entity *database.DataEntity) (keyRecord, error) {
	switch v := entity.Data.(type) {
	case []byte:
		return marshalValue("string", base64.StdEncoding.EncodeToString(v))
	case *list.QuickList:
		items := make([]string, 0, v.Len())
		v.ForEach(func(_ int, val interface{}) bool {
			items = append(items, base64.StdEncoding.EncodeToString(val.([]byte)))
			return true
		})
		return marshalValue("list", items)
	case *set.Set:
		items := make([]string, 0, v.Len())
		v.ForEach(func(member string) bool {
			items = append(items, base64.StdEncoding.EncodeToString([]byte(member)))
			return true
		})
		return marshalValue("set", items)
	case dict.Dict:
		fields := make(map[string]string, v.Len())
		v.ForEach(func(field string, val interface{}) bool {
			fields[base64.StdEncoding.EncodeToString([]byte(field))] = base64.StdEncoding.EncodeToString(val.([]byte))
			return true
		})
		return marshalValue("hash", fields)
	default:
		return keyRecord{}, fmt.Errorf("unsupported entity type %T", entity.Data)
	}
}

func marshalValue(typeName string, value interface{}) (keyRecord, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return keyRecord{}, err
	}
	return keyRecord{Type: typeName, Value: raw}, nil
}

func decodeEntity(rec keyRecord) (*database.DataEntity, error) {
	switch rec.Type {
	case "string":
		var encoded string
		if err := json.Unmarshal(rec.Value, &encoded); err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, err
		}
		return &database.DataEntity{Data: b}, nil
	case "list":
		var items []string
		if err := json.Unmarshal(rec.Value, &items); err != nil {
			return nil, err
		}
		ql := list.NewQuickList()
		for _, item := range items {
			b, err := base64.StdEncoding.DecodeString(item)
			if err != nil {
				return nil, err
			}
			ql.Add(b)
		}
		return &database.DataEntity{Data: ql}, nil
	case "set":
		var items []string
		if err := json.Unmarshal(rec.Value, &items); err != nil {
			return nil, err
		}
		s := set.Make()
		for _, item := range items {
			b, err := base64.StdEncoding.DecodeString(item)
			if err != nil {
				return nil, err
			}
			s.Add(string(b))
		}
		return &database.DataEntity{Data: s}, nil
	case "hash":
		var fields map[string]string
		if err := json.Unmarshal(rec.Value, &fields); err != nil {
			return nil, err
		}
		h := dict.MakeSimple()
		for encodedField, encodedVal := range fields {
			fieldBytes, err := base64.StdEncoding.DecodeString(encodedField)
			if err != nil {
				return nil, err
			}
			valBytes, err := base64.StdEncoding.DecodeString(encodedVal)
			if err != nil {
				return nil, err
			}
			h.Put(string(fieldBytes), valBytes)
		}
		return &database.DataEntity{Data: h}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", rec.Type)
	}
}

// DecodeInto parses data as a dump and replaces every database in set
// with the decoded contents. Databases beyond len(records) are left
// empty (spec.md §4.5's "remainder are appended as empty").
func DecodeInto(data []byte, set *database.DatabaseSet, savePoints []database.SavePoint, onSavePoint func(time.Duration)) error {
	var records []dbRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	for i := 0; i < database.NumDatabases; i++ {
		db := database.NewDatabase(i, savePoints, onSavePoint)
		if i < len(records) {
			populateDatabase(db, records[i])
		}
		db.ResetChangeCount()
		set.LoadDatabase(i, db)
	}
	return nil
}

func populateDatabase(db *database.Database, rec dbRecord) {
	for encodedKey, kr := range rec.Keys {
		keyBytes, err := base64.StdEncoding.DecodeString(encodedKey)
		if err != nil {
			logger.Error("skipping undecodable key in snapshot: " + err.Error())
			continue
		}
		entity, err := decodeEntity(kr)
		if err != nil {
			logger.Error(fmt.Sprintf("skipping key %q in snapshot: %v", keyBytes, err))
			continue
		}
		db.PutEntity(string(keyBytes), entity)
	}
	for encodedKey, deadlineMs := range rec.Expirations {
		keyBytes, err := base64.StdEncoding.DecodeString(encodedKey)
		if err != nil {
			continue
		}
		db.Expire(string(keyBytes), time.UnixMilli(deadlineMs))
	}
}

// Load builds a DatabaseSet from the dump file at path, or a fresh empty
// set if the file is missing, too small, or fails to decode (spec.md
// §4.6's "load(path)"). savePoints/onSavePoint configure every database
// the same way NewDatabaseSet would.
func Load(path string, savePoints []database.SavePoint, onSavePoint func(time.Duration)) *database.DatabaseSet {
	set := database.NewDatabaseSet(savePoints, onSavePoint)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Error("failed to read dump file, starting empty: " + err.Error())
		}
		return set
	}
	if len(data) < 2 {
		return set
	}
	if err := DecodeInto(data, set, savePoints, onSavePoint); err != nil {
		logger.Error("failed to decode dump file, starting empty: " + err.Error())
		return database.NewDatabaseSet(savePoints, onSavePoint)
	}
	return set
}
