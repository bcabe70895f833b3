// Package storage implements the in-memory data store: a single map from key
// to Value (string or stream), owned exclusively by the actor goroutine that
// drains command messages (see internal/actor). Because only one goroutine
// ever touches a Store, no locking is used here — this mirrors the source
// system's single-actor-owns-the-store discipline, not the teacher's
// original sharded/mutex-protected design.
package storage

import "time"

// ValueType tags which kind of Value a key holds.
type ValueType int

const (
	NoneType ValueType = iota
	StringType
	StreamType
)

func (t ValueType) String() string {
	switch t {
	case StringType:
		return "string"
	case StreamType:
		return "stream"
	default:
		return "none"
	}
}

// Value is the tagged variant stored under each key.
type Value struct {
	Type ValueType

	// StringData is meaningful when Type == StringType.
	StringData string

	// StreamData is meaningful when Type == StreamType.
	StreamData *Stream

	// ExpiresAt is an absolute expiry instant. Meaningful for string values;
	// present but unused on stream values per the data model (the loader may
	// set it from an RDB expiry prefix, but no read path consults it for
	// streams).
	ExpiresAt *time.Time
}

// Store owns all user data for one logical database.
type Store struct {
	data map[string]*Value
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]*Value),
	}
}

// deleteKey removes a key unconditionally.
func (s *Store) deleteKey(key string) {
	delete(s.data, key)
}

// lookup returns the live Value for key, honoring lazy string expiry (I4).
// Expired strings are reported absent but are NOT physically removed here;
// physical removal is not required by the spec.
func (s *Store) lookup(key string) *Value {
	v, ok := s.data[key]
	if !ok {
		return nil
	}
	if v.Type == StringType && v.ExpiresAt != nil && time.Now().After(*v.ExpiresAt) {
		return nil
	}
	return v
}

// GetItemType reports none/string/stream, honoring expiry (I3, I4).
func (s *Store) GetItemType(key string) ValueType {
	v := s.lookup(key)
	if v == nil {
		return NoneType
	}
	return v.Type
}

// GetKeys returns every key currently present, regardless of expiry state.
func (s *Store) GetKeys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
