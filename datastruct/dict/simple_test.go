package dict

import "testing"

func TestSimpleDictPutAndGet(t *testing.T) {
	d := MakeSimple()
	if n := d.Put("a", 1); n != 1 {
		t.Fatalf("expected 1 for a new key, got %d", n)
	}
	if n := d.Put("a", 2); n != 0 {
		t.Fatalf("expected 0 for an existing key, got %d", n)
	}
	val, exists := d.Get("a")
	if !exists || val.(int) != 2 {
		t.Fatalf("expected a=2, got %v exists=%v", val, exists)
	}
}

func TestSimpleDictPutIfAbsent(t *testing.T) {
	d := MakeSimple()
	d.Put("a", 1)
	if n := d.PutIfAbsent("a", 99); n != 0 {
		t.Fatalf("expected 0, a already exists")
	}
	if n := d.PutIfAbsent("b", 2); n != 1 {
		t.Fatalf("expected 1 for a newly inserted key")
	}
	val, _ := d.Get("a")
	if val.(int) != 1 {
		t.Fatalf("expected a to remain 1, got %v", val)
	}
}

func TestSimpleDictPutIfExists(t *testing.T) {
	d := MakeSimple()
	if n := d.PutIfExists("missing", 1); n != 0 {
		t.Fatalf("expected 0 for a missing key")
	}
	d.Put("a", 1)
	if n := d.PutIfExists("a", 2); n != 1 {
		t.Fatalf("expected 1 for an existing key")
	}
	val, _ := d.Get("a")
	if val.(int) != 2 {
		t.Fatalf("expected a=2, got %v", val)
	}
}

func TestSimpleDictRemove(t *testing.T) {
	d := MakeSimple()
	d.Put("a", 1)
	if n := d.Remove("a"); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if n := d.Remove("a"); n != 0 {
		t.Fatalf("expected 0 removing an absent key, got %d", n)
	}
	if d.Len() != 0 {
		t.Fatalf("expected empty dict, got len %d", d.Len())
	}
}

func TestSimpleDictKeysAndForEach(t *testing.T) {
	d := MakeSimple()
	d.Put("a", 1)
	d.Put("b", 2)
	d.Put("c", 3)

	if len(d.Keys()) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(d.Keys()))
	}

	visited := 0
	d.ForEach(func(key string, val interface{}) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Fatalf("expected ForEach to stop after 2 visits, got %d", visited)
	}
}

func TestSimpleDictClear(t *testing.T) {
	d := MakeSimple()
	d.Put("a", 1)
	d.Clear()
	if d.Len() != 0 {
		t.Fatalf("expected 0 after Clear, got %d", d.Len())
	}
	if _, exists := d.Get("a"); exists {
		t.Fatal("expected a to be gone after Clear")
	}
}
