package actor

import (
	"fmt"

	"redis/internal/protocol"
	"redis/internal/storage"
)

// encodeEntryFields encodes one entry's field/value pairs as a flat RESP
// array, preserving insertion order (I-invariant on field order, §3).
func encodeEntryFields(fields []storage.FieldValue) []byte {
	flat := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		flat = append(flat, f.Name, f.Value)
	}
	return protocol.EncodeArray(flat)
}

// encodeEntry encodes one StreamEntry as [id, [f1,v1,...]].
func encodeEntry(e storage.StreamEntry) []byte {
	id := protocol.EncodeBulkString(e.ID.String())
	fields := encodeEntryFields(e.Fields)
	return protocol.EncodeRawArray([][]byte{id, fields})
}

// encodeEntries encodes a list of entries as a RESP array of entry arrays,
// used by XRANGE.
func encodeEntries(entries []storage.StreamEntry) []byte {
	items := make([][]byte, 0, len(entries))
	for _, e := range entries {
		items = append(items, encodeEntry(e))
	}
	return protocol.EncodeRawArray(items)
}

// xreadStreamResult is one key's gathered entries for an XREAD reply.
type xreadStreamResult struct {
	Key     string
	Entries []storage.StreamEntry
}

// encodeXREADReply encodes the per-stream results of an XREAD as the
// `[[key, [[id,[f,v,...]], ...]], ...]` shape specified by §4.4's
// blocking-fulfillment example and §8 scenario 6.
func encodeXREADReply(results []xreadStreamResult) []byte {
	items := make([][]byte, 0, len(results))
	for _, r := range results {
		key := protocol.EncodeBulkString(r.Key)
		entries := encodeEntries(r.Entries)
		items = append(items, protocol.EncodeRawArray([][]byte{key, entries}))
	}
	return protocol.EncodeRawArray(items)
}

func wrongNumArgs(verb string) []byte {
	return protocol.EncodeError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", verb))
}
