package actor

import (
	"fmt"
	"strconv"
	"strings"

	"redis/internal/storage"
)

// parseRequestedID parses the id token XADD was given: "*", "<ts>-*", or
// "<ts>-<seq>", grounded on original_source's
// parse_requested_stream_entry_id.
func parseRequestedID(tok string) (storage.RequestedStreamEntryId, error) {
	if tok == "*" {
		return storage.RequestedStreamEntryId{Kind: storage.AutoGenerate}, nil
	}
	parts := strings.SplitN(tok, "-", 2)
	ts, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return storage.RequestedStreamEntryId{}, fmt.Errorf("ERR Invalid stream ID specified as stream command argument")
	}
	if len(parts) == 1 || parts[1] == "*" {
		return storage.RequestedStreamEntryId{Kind: storage.AutoGenerateSequence, Timestamp: ts}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return storage.RequestedStreamEntryId{}, fmt.Errorf("ERR Invalid stream ID specified as stream command argument")
	}
	return storage.RequestedStreamEntryId{
		Kind: storage.Explicit,
		ID:   storage.StreamEntryId{Timestamp: ts, Sequence: seq},
	}, nil
}

// parseRangeBound parses an XRANGE start/end token: "-" and "+" are the
// unbounded sentinels; otherwise "<ts>" (sequence defaults to 0 for a start
// bound and to the maximum for an end bound) or "<ts>-<seq>".
func parseRangeBound(tok string, isStart bool) *storage.StreamEntryId {
	if tok == "-" || tok == "+" {
		return nil
	}
	parts := strings.SplitN(tok, "-", 2)
	ts, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	seq := uint64(0)
	if !isStart {
		seq = ^uint64(0)
	}
	if len(parts) == 2 {
		if parsed, err := strconv.ParseUint(parts[1], 10, 64); err == nil {
			seq = parsed
		}
	}
	id := storage.StreamEntryId{Timestamp: ts, Sequence: seq}
	return &id
}

// parseStreamEntryID parses a fully explicit "<ts>-<seq>" id, used to
// resolve an XREAD id argument (never "*").
func parseStreamEntryID(tok string) (storage.StreamEntryId, bool) {
	parts := strings.SplitN(tok, "-", 2)
	ts, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return storage.StreamEntryId{}, false
	}
	if len(parts) == 1 {
		return storage.StreamEntryId{Timestamp: ts}, true
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return storage.StreamEntryId{}, false
	}
	return storage.StreamEntryId{Timestamp: ts, Sequence: seq}, true
}
