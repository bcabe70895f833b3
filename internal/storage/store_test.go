package storage

import (
	"testing"
	"time"
)

func TestSetGetString(t *testing.T) {
	s := NewStore()
	s.SetString("foo", "bar", nil)
	v, ok := s.GetString("foo")
	if !ok || v != "bar" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestGetStringExpired(t *testing.T) {
	s := NewStore()
	past := time.Now().Add(-1 * time.Second)
	s.SetString("foo", "bar", &past)
	if _, ok := s.GetString("foo"); ok {
		t.Fatal("expected expired key to be absent")
	}
}

func TestGetStringWrongType(t *testing.T) {
	s := NewStore()
	s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if _, ok := s.GetString("s"); ok {
		t.Fatal("expected GetString on a stream key to report absent")
	}
}

func TestIncrFromAbsent(t *testing.T) {
	s := NewStore()
	n, err := s.Incr("counter")
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	n, err = s.Incr("counter")
	if err != nil || n != 2 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestIncrNonInteger(t *testing.T) {
	s := NewStore()
	s.SetString("k", "not-a-number", nil)
	if _, err := s.Incr("k"); err != ErrNotAnInteger {
		t.Fatalf("expected ErrNotAnInteger, got %v", err)
	}
}

func TestIncrOnStreamKeyReportsNotAnInteger(t *testing.T) {
	s := NewStore()
	s.AddStreamEntry("s", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if _, err := s.Incr("s"); err != ErrNotAnInteger {
		t.Fatalf("expected ErrNotAnInteger for a stream key, got %v", err)
	}
}

func TestGetItemType(t *testing.T) {
	s := NewStore()
	if s.GetItemType("missing") != NoneType {
		t.Fatal("expected NoneType for missing key")
	}
	s.SetString("k", "v", nil)
	if s.GetItemType("k") != StringType {
		t.Fatal("expected StringType")
	}
	s.AddStreamEntry("st", RequestedStreamEntryId{Kind: Explicit, ID: StreamEntryId{1, 1}}, nil)
	if s.GetItemType("st") != StreamType {
		t.Fatal("expected StreamType")
	}
}
