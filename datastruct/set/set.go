// Package set implements the unordered, unique-member collection spec.md
// §3/§4.2 describes, plus the SINTER/SUNION/SDIFF algebra. Grounded on
// the teacher's datastruct/set package, rebuilt over the trimmed
// dict.SimpleDict.
package set

import "github.com/NozeIO/redi-s/datastruct/dict"

// Set is a hash-table-backed set of binary-safe members (held as Go
// strings, which in Go may contain arbitrary bytes including NUL and
// CRLF, satisfying spec.md's binary-safety requirement).
type Set struct {
	dict dict.Dict
}

// Make creates a Set containing members.
func Make(members ...string) *Set {
	s := &Set{dict: dict.MakeSimple()}
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add inserts member, returning 1 if it was newly added, 0 if already present.
func (s *Set) Add(member string) int {
	return s.dict.Put(member, nil)
}

// Remove deletes member, returning 1 if it was present.
func (s *Set) Remove(member string) int {
	return s.dict.Remove(member)
}

// Has reports whether member is in the set.
func (s *Set) Has(member string) bool {
	if s == nil || s.dict == nil {
		return false
	}
	_, exists := s.dict.Get(member)
	return exists
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil || s.dict == nil {
		return 0
	}
	return s.dict.Len()
}

// ToSlice returns all members in unspecified order.
func (s *Set) ToSlice() []string {
	if s == nil || s.dict == nil {
		return nil
	}
	return s.dict.Keys()
}

// ForEach visits every member until consumer returns false.
func (s *Set) ForEach(consumer func(member string) bool) {
	if s == nil || s.dict == nil {
		return
	}
	s.dict.ForEach(func(key string, _ interface{}) bool {
		return consumer(key)
	})
}

// ShallowCopy returns a new Set with the same members.
func (s *Set) ShallowCopy() *Set {
	result := Make()
	s.ForEach(func(member string) bool {
		result.Add(member)
		return true
	})
	return result
}

// Intersect returns the members common to every set in sets.
func Intersect(sets ...*Set) *Set {
	result := Make()
	if len(sets) == 0 {
		return result
	}
	counts := make(map[string]int)
	for _, s := range sets {
		s.ForEach(func(member string) bool {
			counts[member]++
			return true
		})
	}
	for member, n := range counts {
		if n == len(sets) {
			result.Add(member)
		}
	}
	return result
}

// Union returns the members present in any set in sets.
func Union(sets ...*Set) *Set {
	result := Make()
	for _, s := range sets {
		s.ForEach(func(member string) bool {
			result.Add(member)
			return true
		})
	}
	return result
}

// Diff returns the members of sets[0] not present in any later set.
func Diff(sets ...*Set) *Set {
	if len(sets) == 0 {
		return Make()
	}
	result := sets[0].ShallowCopy()
	for _, s := range sets[1:] {
		s.ForEach(func(member string) bool {
			result.Remove(member)
			return true
		})
		if result.Len() == 0 {
			break
		}
	}
	return result
}
