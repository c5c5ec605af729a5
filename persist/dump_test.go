package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NozeIO/redi-s/database"
	"github.com/NozeIO/redi-s/datastruct/dict"
	"github.com/NozeIO/redi-s/datastruct/list"
	"github.com/NozeIO/redi-s/datastruct/set"
)

func newQuickListOf(values ...string) *list.QuickList {
	ql := list.NewQuickList()
	for _, v := range values {
		ql.Add([]byte(v))
	}
	return ql
}

func newSetOf(members ...string) *set.Set {
	return set.Make(members...)
}

func newDictOf(fields map[string]string) dict.Dict {
	d := dict.MakeSimple()
	for k, v := range fields {
		d.Put(k, []byte(v))
	}
	return d
}

func populatedSet(t *testing.T) *database.DatabaseSet {
	t.Helper()
	set := database.NewDatabaseSet(nil, nil)
	set.WithWriteLock(0, func(db *database.Database) {
		db.PutEntity("str", &database.DataEntity{Data: []byte("hello\r\nworld")})
		db.Expire("str", time.Now().Add(time.Hour))
	})
	return set
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	set := populatedSet(t)
	data, err := EncodeSet(set)
	if err != nil {
		t.Fatal(err)
	}

	restored := database.NewDatabaseSet(nil, nil)
	if err := DecodeInto(data, restored, nil, nil); err != nil {
		t.Fatal(err)
	}

	var gotBytes []byte
	restored.WithReadLock(0, func(db *database.Database) {
		entity, exists := db.GetEntity("str")
		if !exists {
			t.Fatal("expected decoded set to contain 'str'")
		}
		gotBytes = entity.Data.([]byte)
	})
	if string(gotBytes) != "hello\r\nworld" {
		t.Fatalf("expected binary-safe round trip, got %q", gotBytes)
	}

	restored.WithReadLock(0, func(db *database.Database) {
		if _, hasTTL := db.TTLAt("str"); !hasTTL {
			t.Fatal("expected expiration to survive the round trip")
		}
	})
}

func TestEncodeDecodeListSetHash(t *testing.T) {
	set := database.NewDatabaseSet(nil, nil)
	set.WithWriteLock(1, func(db *database.Database) {
		ql := newQuickListOf("a", "b", "c")
		db.PutEntity("mylist", &database.DataEntity{Data: ql})

		s := newSetOf("x", "y")
		db.PutEntity("myset", &database.DataEntity{Data: s})

		h := newDictOf(map[string]string{"f1": "v1"})
		db.PutEntity("myhash", &database.DataEntity{Data: h})
	})

	data, err := EncodeSet(set)
	if err != nil {
		t.Fatal(err)
	}
	restored := database.NewDatabaseSet(nil, nil)
	if err := DecodeInto(data, restored, nil, nil); err != nil {
		t.Fatal(err)
	}

	restored.WithReadLock(1, func(db *database.Database) {
		if _, exists := db.GetEntity("mylist"); !exists {
			t.Error("expected 'mylist' to survive round trip")
		}
		if _, exists := db.GetEntity("myset"); !exists {
			t.Error("expected 'myset' to survive round trip")
		}
		if _, exists := db.GetEntity("myhash"); !exists {
			t.Error("expected 'myhash' to survive round trip")
		}
	})
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")
	set := Load(path, nil, nil)
	keys, _ := set.DBSize(0)
	if keys != 0 {
		t.Fatalf("expected empty db for missing dump file, got %d keys", keys)
	}
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	set := Load(path, nil, nil)
	keys, _ := set.DBSize(0)
	if keys != 0 {
		t.Fatalf("expected empty db for corrupt dump file, got %d keys", keys)
	}
}

func TestSaveSyncWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json")
	set := populatedSet(t)
	mgr := NewManager(path, set, nil)
	mgr.Start()
	defer mgr.Stop()

	if err := mgr.SaveSync(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected dump file to exist: %v", err)
	}
	// no stray temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 file in dump dir, got %d", len(entries))
	}

	reloaded := Load(path, nil, nil)
	var gotBytes []byte
	reloaded.WithReadLock(0, func(db *database.Database) {
		entity, exists := db.GetEntity("str")
		if !exists {
			t.Fatal("expected reloaded set to contain 'str'")
		}
		gotBytes = entity.Data.([]byte)
	})
	if string(gotBytes) != "hello\r\nworld" {
		t.Fatalf("expected 'hello\\r\\nworld', got %q", gotBytes)
	}

	if mgr.LastSaveAt().IsZero() {
		t.Fatal("expected LastSaveAt to be set after a successful save")
	}
}

func TestScheduleSaveCoalescesToEarlierDeadline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json")
	set := populatedSet(t)
	mgr := NewManager(path, set, nil)
	mgr.Start()
	defer mgr.Stop()

	mgr.ScheduleSave(time.Hour)
	firstDeadline := mgr.scheduledAt

	mgr.ScheduleSave(2 * time.Hour) // later deadline, should be ignored
	if !mgr.scheduledAt.Equal(firstDeadline) {
		t.Fatal("expected later ScheduleSave call to not push the deadline back")
	}
}
