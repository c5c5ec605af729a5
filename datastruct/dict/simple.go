package dict

// SimpleDict wraps a plain Go map. It is not safe for concurrent use on
// its own — the database package guards every instance with the
// DatabaseSet's single reader/writer lock, so no internal locking is
// needed here (see DESIGN.md, "Dropped teacher code").
type SimpleDict struct {
	m map[string]interface{}
}

// MakeSimple creates an empty SimpleDict.
func MakeSimple() *SimpleDict {
	return &SimpleDict{m: make(map[string]interface{})}
}

// Get returns the value bound to key and whether key exists.
func (d *SimpleDict) Get(key string) (val interface{}, exists bool) {
	val, ok := d.m[key]
	return val, ok
}

// Len returns the number of entries.
func (d *SimpleDict) Len() int {
	return len(d.m)
}

// Put stores key/val, returning 1 if key was newly inserted, 0 if it
// already existed.
func (d *SimpleDict) Put(key string, val interface{}) int {
	_, existed := d.m[key]
	d.m[key] = val
	if existed {
		return 0
	}
	return 1
}

// PutIfAbsent stores key/val only if key is not already present.
func (d *SimpleDict) PutIfAbsent(key string, val interface{}) int {
	if _, existed := d.m[key]; existed {
		return 0
	}
	d.m[key] = val
	return 1
}

// PutIfExists stores key/val only if key is already present.
func (d *SimpleDict) PutIfExists(key string, val interface{}) int {
	if _, existed := d.m[key]; existed {
		d.m[key] = val
		return 1
	}
	return 0
}

// Remove deletes key, returning 1 if it was present.
func (d *SimpleDict) Remove(key string) int {
	_, existed := d.m[key]
	delete(d.m, key)
	if existed {
		return 1
	}
	return 0
}

// Keys returns all keys in unspecified order.
func (d *SimpleDict) Keys() []string {
	result := make([]string, 0, len(d.m))
	for k := range d.m {
		result = append(result, k)
	}
	return result
}

// ForEach visits every entry until consumer returns false.
func (d *SimpleDict) ForEach(consumer Consumer) {
	for k, v := range d.m {
		if !consumer(k, v) {
			break
		}
	}
}

// Clear removes every entry.
func (d *SimpleDict) Clear() {
	d.m = make(map[string]interface{})
}
