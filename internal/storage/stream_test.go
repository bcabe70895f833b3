package storage

import "testing"

func TestAddStreamEntryExplicit(t *testing.T) {
	s := NewStore()
	id, err := s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if err != nil || id.String() != "1-1" {
		t.Fatalf("got id=%v err=%v", id, err)
	}

	_, err = s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if err != ErrEqualOrSmallerID {
		t.Fatalf("expected ErrEqualOrSmallerID, got %v", err)
	}
}

func TestAddStreamEntryRejectsZeroZero(t *testing.T) {
	s := NewStore()
	_, err := s.AddStreamEntry("s2", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{0, 0}}, nil)
	if err != ErrGreaterThanZeroZero {
		t.Fatalf("expected ErrGreaterThanZeroZero, got %v", err)
	}
}

func TestAddStreamEntryAutoGenerateSequence(t *testing.T) {
	s := NewStore()
	id, err := s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err = s.AddStreamEntry("s", RequestedStreamEntryId{Kind: AutoGenerateSequence, Timestamp: 1}, nil)
	if err != nil || id.String() != "1-2" {
		t.Fatalf("got id=%v err=%v", id, err)
	}
}

func TestAddStreamEntryAutoGenerateOnFreshStreamAtZero(t *testing.T) {
	s := NewStore()
	id, err := s.AddStreamEntry("s", RequestedStreamEntryId{Kind: AutoGenerateSequence, Timestamp: 0}, nil)
	if err != nil || id.String() != "0-1" {
		t.Fatalf("got id=%v err=%v", id, err)
	}
}

func TestGetStreamRangeInclusive(t *testing.T) {
	s := NewStore()
	mustAdd := func(ts, seq uint64) {
		if _, err := s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{ts, seq}}, nil); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(1, 1)
	mustAdd(2, 1)
	mustAdd(3, 1)

	start := StreamEntryId{2, 0}
	entries := s.GetStreamRange("s", &start, nil)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries >= 2-0, got %d", len(entries))
	}

	all := s.GetStreamRange("s", nil, nil)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestAddStreamEntryOnStringKeyBeginsFreshStream(t *testing.T) {
	s := NewStore()
	s.SetString("k", "hello", nil)
	id, err := s.AddStreamEntry("k", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if err != nil || id.String() != "1-1" {
		t.Fatalf("expected XADD on a string key to begin a fresh stream, got id=%v err=%v", id, err)
	}
	if s.GetItemType("k") != StreamType {
		t.Fatalf("expected key to now hold a stream")
	}
}

func TestGetStreamRangeOnMissingKeyIsEmpty(t *testing.T) {
	s := NewStore()
	entries := s.GetStreamRange("nope", nil, nil)
	if len(entries) != 0 {
		t.Fatalf("expected empty, got %v", entries)
	}
}

func TestStreamFieldOrderPreserved(t *testing.T) {
	s := NewStore()
	fields := []FieldValue{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}
	_, err := s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, fields)
	if err != nil {
		t.Fatal(err)
	}
	entries := s.GetStreamRange("s", nil, nil)
	if entries[0].Fields[0].Name != "b" || entries[0].Fields[1].Name != "a" {
		t.Fatalf("field order not preserved: %+v", entries[0].Fields)
	}
}
