package actor

import (
	"strconv"
	"testing"

	"redis/internal/conn"
	"redis/internal/protocol"
	"redis/internal/storage"
)

func newTestReplica() *Replica {
	return NewReplica(storage.NewStore(), Config{}, "master-host", 6379, 6380)
}

func TestReplicaAppliedBytesCountsOnlyPingSetReplconf(t *testing.T) {
	r := newTestReplica()

	r.applyFromMaster("PING", []string{"PING"}, nil)
	afterPing := r.appliedBytes
	if afterPing != int64(len(protocol.EncodeCommand([]string{"PING"}))) {
		t.Fatalf("got %d", afterPing)
	}

	r.applyFromMaster("SET", []string{"SET", "k", "v"}, nil)
	afterSet := r.appliedBytes
	if afterSet != afterPing+int64(len(protocol.EncodeCommand([]string{"SET", "k", "v"}))) {
		t.Fatalf("got %d", afterSet)
	}

	// ECHO does not count toward applied_bytes, per Invariant I6.
	r.applyFromMaster("ECHO", []string{"ECHO", "hi"}, nil)
	if r.appliedBytes != afterSet {
		t.Fatalf("ECHO should not count toward applied_bytes: %d != %d", r.appliedBytes, afterSet)
	}
}

func TestReplicaSetMutatesStoreWithoutReplying(t *testing.T) {
	r := newTestReplica()
	reply := make(chan []byte, 1)
	r.applyFromMaster("SET", []string{"SET", "k", "v"}, reply)

	select {
	case b := <-reply:
		t.Fatalf("expected no reply for replicated SET, got %q", b)
	default:
	}

	if v, ok := r.store.GetString("k"); !ok || v != "v" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestReplicaReplconfGetackReplies(t *testing.T) {
	r := newTestReplica()
	r.applyFromMaster("SET", []string{"SET", "k", "v"}, nil)
	expectedOffset := r.appliedBytes

	reply := make(chan []byte, 1)
	r.applyFromMaster("REPLCONF", []string{"REPLCONF", "GETACK", "*"}, reply)

	select {
	case b := <-reply:
		want := protocol.EncodeCommand([]string{"REPLCONF", "ACK", strconv.FormatInt(expectedOffset, 10)})
		if string(b) != string(want) {
			t.Fatalf("got %q, want %q", b, want)
		}
	default:
		t.Fatal("expected REPLCONF ACK reply")
	}
}

func TestReplicaRefusesClientWrites(t *testing.T) {
	r := newTestReplica()
	reply := make(chan []byte, 1)
	r.handleFromClient(conn.Message{Conn: 1, Verb: "SET", Argv: []string{"SET", "k", "v"}, Reply: reply})

	select {
	case b := <-reply:
		if b[0] != '-' {
			t.Fatalf("expected RESP error for write on replica, got %q", b)
		}
	default:
		t.Fatal("expected error reply")
	}
}

func TestReplicaServesReadsToLocalClients(t *testing.T) {
	r := newTestReplica()
	r.applyFromMaster("SET", []string{"SET", "k", "v"}, nil)

	reply := make(chan []byte, 1)
	r.handleFromClient(conn.Message{Conn: 1, Verb: "GET", Argv: []string{"GET", "k"}, Reply: reply})

	select {
	case b := <-reply:
		if string(b) != "$1\r\nv\r\n" {
			t.Fatalf("got %q", b)
		}
	default:
		t.Fatal("expected GET reply")
	}
}
