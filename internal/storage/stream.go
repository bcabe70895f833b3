package storage

import "fmt"

// StreamEntryId is a stream entry's identifier: total order is lexicographic
// on (Timestamp, Sequence).
type StreamEntryId struct {
	Timestamp uint64
	Sequence  uint64
}

func (id StreamEntryId) String() string {
	return fmt.Sprintf("%d-%d", id.Timestamp, id.Sequence)
}

// Less reports whether id sorts strictly before other.
func (id StreamEntryId) Less(other StreamEntryId) bool {
	if id.Timestamp != other.Timestamp {
		return id.Timestamp < other.Timestamp
	}
	return id.Sequence < other.Sequence
}

// LessOrEqual reports id <= other.
func (id StreamEntryId) LessOrEqual(other StreamEntryId) bool {
	return id.Less(other) || id == other
}

// IsZeroZero reports whether id is the reserved (0,0) sentinel, which no
// stream entry may ever hold (I2).
func (id StreamEntryId) IsZeroZero() bool {
	return id.Timestamp == 0 && id.Sequence == 0
}

// RequestedIdKind selects how AddStreamEntry should derive a concrete id.
type RequestedIdKind int

const (
	// Explicit uses RequestedStreamEntryId.ID exactly.
	Explicit RequestedIdKind = iota
	// AutoGenerateSequence uses RequestedStreamEntryId.Timestamp and
	// auto-assigns the sequence number.
	AutoGenerateSequence
	// AutoGenerate uses the current wall-clock millisecond timestamp and
	// auto-assigns the sequence number.
	AutoGenerate
)

// RequestedStreamEntryId is what a caller asks XADD to use.
type RequestedStreamEntryId struct {
	Kind      RequestedIdKind
	ID        StreamEntryId // meaningful when Kind == Explicit
	Timestamp uint64        // meaningful when Kind == AutoGenerateSequence
}

// FieldValue is one name/value pair of a stream entry. A slice (not a map)
// preserves insertion order, as required by §3.
type FieldValue struct {
	Name  string
	Value string
}

// StreamEntry is one record in a Stream.
type StreamEntry struct {
	ID     StreamEntryId
	Fields []FieldValue
}

// Stream is an ordered, append-only sequence of StreamEntry (I1).
type Stream struct {
	Entries []StreamEntry
}

func (s *Stream) lastID() (StreamEntryId, bool) {
	if len(s.Entries) == 0 {
		return StreamEntryId{}, false
	}
	return s.Entries[len(s.Entries)-1].ID, true
}

// nowMillis is overridable in tests; production code calls timeNowMillis.
var nowMillis = timeNowMillis

// AddStreamEntry implements §4.2's stream append algorithm exactly,
// grounded on original_source/store/stream.rs::add_stream_entry.
func (s *Store) AddStreamEntry(key string, req RequestedStreamEntryId, fields []FieldValue) (StreamEntryId, error) {
	existing, ok := s.data[key]
	var stream *Stream
	isNew := true
	if ok && existing.Type == StreamType {
		stream = existing.StreamData
		isNew = false
	} else {
		// Absent, or holding a non-stream value (e.g. a string): begin a
		// fresh stream, per §4.2's append algorithm step 1.
		stream = &Stream{}
	}

	last, hasLast := stream.lastID()

	var id StreamEntryId
	switch req.Kind {
	case Explicit:
		if req.ID.IsZeroZero() {
			return StreamEntryId{}, ErrGreaterThanZeroZero
		}
		if hasLast && req.ID.LessOrEqual(last) {
			return StreamEntryId{}, ErrEqualOrSmallerID
		}
		id = req.ID

	case AutoGenerateSequence:
		ts := req.Timestamp
		if hasLast {
			if ts < last.Timestamp {
				return StreamEntryId{}, ErrEqualOrSmallerID
			}
			if ts == last.Timestamp {
				id = StreamEntryId{Timestamp: ts, Sequence: last.Sequence + 1}
				break
			}
		}
		seq := uint64(0)
		if ts == 0 {
			seq = 1
		}
		id = StreamEntryId{Timestamp: ts, Sequence: seq}

	case AutoGenerate:
		now := nowMillis()
		if hasLast && now < last.Timestamp {
			id = StreamEntryId{Timestamp: last.Timestamp, Sequence: last.Sequence + 1}
			break
		}
		if hasLast && now == last.Timestamp {
			id = StreamEntryId{Timestamp: now, Sequence: last.Sequence + 1}
			break
		}
		seq := uint64(0)
		if now == 0 {
			seq = 1
		}
		id = StreamEntryId{Timestamp: now, Sequence: seq}
	}

	stream.Entries = append(stream.Entries, StreamEntry{ID: id, Fields: fields})
	if isNew {
		s.data[key] = &Value{Type: StreamType, StreamData: stream}
	}
	return id, nil
}

// GetStreamRange returns entries with start <= id <= end (both inclusive).
// A nil start means -infinity; a nil end means +infinity. An absent key
// returns an empty slice.
func (s *Store) GetStreamRange(key string, start, end *StreamEntryId) []StreamEntry {
	v, ok := s.data[key]
	if !ok || v.Type != StreamType {
		return nil
	}
	var out []StreamEntry
	for _, e := range v.StreamData.Entries {
		if start != nil && e.ID.Less(*start) {
			continue
		}
		if end != nil && end.Less(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// GetStreamAfter returns every entry with id >= after, per Open Question #2
// (the source compares >=, not strictly >).
func (s *Store) GetStreamAfter(key string, after StreamEntryId) []StreamEntry {
	return s.GetStreamRange(key, &after, nil)
}

// LastStreamID returns the current last id of the stream at key, used to
// resolve XREAD's `$` sentinel to that id (XREAD then gathers entries >= it,
// so the current last entry is included).
func (s *Store) LastStreamID(key string) (StreamEntryId, bool) {
	v, ok := s.data[key]
	if !ok || v.Type != StreamType {
		return StreamEntryId{}, false
	}
	return v.StreamData.lastID()
}
