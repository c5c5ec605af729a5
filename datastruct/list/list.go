// Package list implements the ordered, duplicate-allowing sequence
// backing Redis lists (spec.md §3/§4.2). QuickList is a page-based
// linked list — each node in an underlying container/list holds a slice
// of up to pageSize elements — giving amortized O(1) push/pop at either
// end and O(sqrt(n))-ish indexed access by walking from whichever end is
// closer. Grounded on the teacher's datastruct/list/quicklist.go, which
// mirrors the paging strategy of Redis's own C quicklist.
package list

import "container/list"

// pageSize must stay even: Insert splits a full page in half.
const pageSize = 1024

// Expected reports whether val matches some caller-defined criterion,
// used by the RemoveByVal family.
type Expected func(val interface{}) bool

// Consumer visits index i holding value v during a ForEach traversal;
// returning false stops the traversal.
type Consumer func(i int, v interface{}) bool

// QuickList is the list container type.
type QuickList struct {
	pages *list.List // each element is a []interface{} page
	size  int
}

type iterator struct {
	node   *list.Element
	offset int
	ql     *QuickList
}

// NewQuickList creates an empty QuickList.
func NewQuickList() *QuickList {
	return &QuickList{pages: list.New()}
}

// Add appends val to the tail of the list.
func (ql *QuickList) Add(val interface{}) {
	ql.size++
	if ql.pages.Len() == 0 {
		page := make([]interface{}, 0, pageSize)
		ql.pages.PushBack(append(page, val))
		return
	}
	back := ql.pages.Back()
	page := back.Value.([]interface{})
	if len(page) == cap(page) {
		newPage := make([]interface{}, 0, pageSize)
		ql.pages.PushBack(append(newPage, val))
		return
	}
	back.Value = append(page, val)
}

// find locates the page and in-page offset holding index, searching from
// whichever end of the list is closer.
func (ql *QuickList) find(index int) *iterator {
	if index < 0 || index >= ql.size {
		panic("index out of bound")
	}
	var n *list.Element
	var page []interface{}
	var pageBeg int
	if index < ql.size/2 {
		n = ql.pages.Front()
		pageBeg = 0
		for {
			page = n.Value.([]interface{})
			if pageBeg+len(page) > index {
				break
			}
			pageBeg += len(page)
			n = n.Next()
		}
	} else {
		n = ql.pages.Back()
		pageBeg = ql.size
		for {
			page = n.Value.([]interface{})
			pageBeg -= len(page)
			if pageBeg <= index {
				break
			}
			n = n.Prev()
		}
	}
	return &iterator{node: n, offset: index - pageBeg, ql: ql}
}

func (it *iterator) page() []interface{} {
	return it.node.Value.([]interface{})
}

func (it *iterator) get() interface{} {
	return it.page()[it.offset]
}

func (it *iterator) set(val interface{}) {
	it.page()[it.offset] = val
}

func (it *iterator) next() bool {
	page := it.page()
	if it.offset < len(page)-1 {
		it.offset++
		return true
	}
	if it.node == it.ql.pages.Back() {
		it.offset = len(page)
		return false
	}
	it.node = it.node.Next()
	it.offset = 0
	return true
}

func (it *iterator) prev() bool {
	if it.offset > 0 {
		it.offset--
		return true
	}
	if it.node == it.ql.pages.Front() {
		it.offset = -1
		return false
	}
	it.node = it.node.Prev()
	it.offset = len(it.page()) - 1
	return true
}

func (it *iterator) atEnd() bool {
	if it.ql.pages.Len() == 0 {
		return true
	}
	if it.node != it.ql.pages.Back() {
		return false
	}
	return it.offset == len(it.page())
}

func (it *iterator) atBegin() bool {
	if it.ql.pages.Len() == 0 {
		return true
	}
	if it.node != it.ql.pages.Front() {
		return false
	}
	return it.offset == -1
}

// Get returns the value at index.
func (ql *QuickList) Get(index int) interface{} {
	return ql.find(index).get()
}

// Set overwrites the value at index.
func (ql *QuickList) Set(index int, val interface{}) {
	ql.find(index).set(val)
}

// Insert places val at index, shifting later elements back.
func (ql *QuickList) Insert(index int, val interface{}) {
	if index == ql.size {
		ql.Add(val)
		return
	}
	it := ql.find(index)
	page := it.node.Value.([]interface{})
	if len(page) < pageSize {
		page = append(page[:it.offset+1], page[it.offset:]...)
		page[it.offset] = val
		it.node.Value = page
		ql.size++
		return
	}
	var nextPage []interface{}
	nextPage = append(nextPage, page[pageSize/2:]...)
	page = page[:pageSize/2]
	if it.offset < len(page) {
		page = append(page[:it.offset+1], page[it.offset:]...)
		page[it.offset] = val
	} else {
		i := it.offset - pageSize/2
		nextPage = append(nextPage[:i+1], nextPage[i:]...)
		nextPage[i] = val
	}
	it.node.Value = page
	ql.pages.InsertAfter(nextPage, it.node)
	ql.size++
}

func (it *iterator) remove() interface{} {
	page := it.page()
	val := page[it.offset]
	page = append(page[:it.offset], page[it.offset+1:]...)
	if len(page) > 0 {
		it.node.Value = page
		if it.offset == len(page) && it.node != it.ql.pages.Back() {
			it.node = it.node.Next()
			it.offset = 0
		}
	} else if it.node == it.ql.pages.Back() {
		it.ql.pages.Remove(it.node)
		it.node = nil
		it.offset = 0
	} else {
		next := it.node.Next()
		it.ql.pages.Remove(it.node)
		it.node = next
		it.offset = 0
	}
	it.ql.size--
	return val
}

// Remove deletes and returns the value at index.
func (ql *QuickList) Remove(index int) interface{} {
	return ql.find(index).remove()
}

// Len returns the number of elements.
func (ql *QuickList) Len() int {
	return ql.size
}

// RemoveLast deletes and returns the tail element, or nil if empty.
func (ql *QuickList) RemoveLast() interface{} {
	if ql.size == 0 {
		return nil
	}
	ql.size--
	back := ql.pages.Back()
	page := back.Value.([]interface{})
	if len(page) == 1 {
		ql.pages.Remove(back)
		return page[0]
	}
	val := page[len(page)-1]
	back.Value = page[:len(page)-1]
	return val
}

// RemoveFirst deletes and returns the head element, or nil if empty.
func (ql *QuickList) RemoveFirst() interface{} {
	if ql.size == 0 {
		return nil
	}
	return ql.Remove(0)
}

// RemoveByVal removes up to count elements matching expected, scanning
// head to tail; count <= 0 means unlimited.
func (ql *QuickList) RemoveByVal(expected Expected, count int) int {
	if ql.size == 0 {
		return 0
	}
	it := ql.find(0)
	removed := 0
	for !it.atEnd() {
		if expected(it.get()) {
			it.remove()
			removed++
			if count > 0 && removed == count {
				break
			}
		} else {
			it.next()
		}
	}
	return removed
}

// ReverseRemoveByVal removes up to count elements matching expected,
// scanning tail to head; count <= 0 means unlimited.
func (ql *QuickList) ReverseRemoveByVal(expected Expected, count int) int {
	if ql.size == 0 {
		return 0
	}
	it := ql.find(ql.size - 1)
	removed := 0
	for !it.atBegin() {
		if expected(it.get()) {
			it.remove()
			removed++
			if count > 0 && removed == count {
				break
			}
		}
		it.prev()
	}
	return removed
}

// ForEach visits each element until consumer returns false.
func (ql *QuickList) ForEach(consumer Consumer) {
	if ql.Len() == 0 {
		return
	}
	it := ql.find(0)
	i := 0
	for {
		if !consumer(i, it.get()) {
			break
		}
		i++
		if !it.next() {
			break
		}
	}
}

// Contains reports whether any element matches expected.
func (ql *QuickList) Contains(expected Expected) bool {
	found := false
	ql.ForEach(func(_ int, v interface{}) bool {
		if expected(v) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Range returns a copy of the elements with index in [start, stop).
func (ql *QuickList) Range(start, stop int) []interface{} {
	if start < 0 || start > ql.Len() {
		panic("`start` out of range")
	}
	if stop < start || stop > ql.Len() {
		panic("`stop` out of range")
	}
	result := make([]interface{}, 0, stop-start)
	if start == stop {
		return result
	}
	it := ql.find(start)
	for i := 0; i < stop-start; i++ {
		result = append(result, it.get())
		it.next()
	}
	return result
}
