package database

import (
	"github.com/NozeIO/redi-s/datastruct/dict"
	"github.com/NozeIO/redi-s/datastruct/list"
	"github.com/NozeIO/redi-s/datastruct/set"
)

// DataEntity is the value bound to a key: a string, list, set, or hash,
// tagged by the dynamic type of Data (spec.md §4.2). Grounded on the
// teacher's interface/database.DataEntity, which uses the same
// untyped-interface trick so every container type shares one entry point.
type DataEntity struct {
	Data interface{}
}

// typeName reports the Redis TYPE name for the entity's payload.
func (e *DataEntity) typeName() string {
	switch e.Data.(type) {
	case []byte:
		return "string"
	case *list.QuickList:
		return "list"
	case *set.Set:
		return "set"
	case dict.Dict:
		return "hash"
	default:
		return "none"
	}
}
