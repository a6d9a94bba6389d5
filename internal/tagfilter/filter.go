package tagfilter

import (
	"fmt"

	"github.com/paulmach/osm"
)

// TagFilter matches a tag by key and, when Value is set, by exact value
type TagFilter struct {
	Key   string
	Value *string
}

// Key returns a filter matching any tag with the given key
func Key(key string) TagFilter {
	return TagFilter{Key: key}
}

// KeyValue returns a filter matching key=value exactly
func KeyValue(key, value string) TagFilter {
	return TagFilter{Key: key, Value: &value}
}

// MatchTag checks a single key/value pair
func (f TagFilter) MatchTag(key, value string) bool {
	if key != f.Key {
		return false
	}
	if f.Value == nil {
		return true
	}
	return *f.Value == value
}

// Matches reports whether any tag in the set matches
func (f TagFilter) Matches(tags osm.Tags) bool {
	return f.Count(tags) > 0
}

// Count returns the number of matching tag occurrences
func (f TagFilter) Count(tags osm.Tags) int {
	n := 0
	for _, tag := range tags {
		if f.MatchTag(tag.Key, tag.Value) {
			n++
		}
	}
	return n
}

func (f TagFilter) String() string {
	if f.Value == nil {
		return f.Key + "=*"
	}
	return fmt.Sprintf("%s=%s", f.Key, *f.Value)
}
