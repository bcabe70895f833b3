package protocol

import (
	"bytes"
	"testing"
)

func TestDecodeSimpleString(t *testing.T) {
	items := DecodeBuffer([]byte("+OK\r\n"))
	if len(items) != 1 || items[0].Kind != ItemSimpleString || items[0].Text != "OK" {
		t.Fatalf("got %+v", items)
	}
	if items[0].NBytes != 5 {
		t.Fatalf("expected 5 bytes consumed, got %d", items[0].NBytes)
	}
}

func TestDecodeTwoSimpleStrings(t *testing.T) {
	items := DecodeBuffer([]byte("+OK\r\n+hello\r\n"))
	if len(items) != 2 || items[0].Text != "OK" || items[1].Text != "hello" {
		t.Fatalf("got %+v", items)
	}
}

func TestDecodeCommand(t *testing.T) {
	items := DecodeBuffer([]byte("*1\r\n$4\r\nPING\r\n"))
	if len(items) != 1 {
		t.Fatalf("got %+v", items)
	}
	if items[0].Kind != ItemCommand || items[0].Verb != "PING" {
		t.Fatalf("expected PING command, got %+v", items[0])
	}
}

func TestDecodeCommandWithArgs(t *testing.T) {
	items := DecodeBuffer([]byte("*2\r\n$4\r\nECHO\r\n$4\r\ntoto\r\n"))
	if len(items) != 1 || items[0].Verb != "ECHO" || len(items[0].Argv) != 2 || items[0].Argv[1] != "toto" {
		t.Fatalf("got %+v", items)
	}
}

func TestDecodeUnknownVerbDropsFrame(t *testing.T) {
	items := DecodeBuffer([]byte("*1\r\n$7\r\nBOGUSOP\r\n"))
	if len(items) != 0 {
		t.Fatalf("expected frame to be dropped, got %+v", items)
	}
}

func TestDecodeRDBBlobWithoutTrailingCRLF(t *testing.T) {
	payload := []byte("REDIS0011someopaquebytes")
	header := []byte("$24\r\n")
	buf := append(append([]byte{}, header...), payload...)
	items := DecodeBuffer(buf)
	if len(items) != 1 || items[0].Kind != ItemRDBBlob {
		t.Fatalf("got %+v", items)
	}
	if !bytes.Equal(items[0].Blob, payload) {
		t.Fatalf("blob mismatch: %q", items[0].Blob)
	}
}

func TestDecodeSimpleStringThenRDBBlob(t *testing.T) {
	line := []byte("+FULLRESYNC abc123 0\r\n")
	payload := []byte("REDISdata")
	header := []byte("$9\r\n")
	buf := append(append(append([]byte{}, line...), header...), payload...)

	items := DecodeBuffer(buf)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].Kind != ItemSimpleString || items[0].Text != "FULLRESYNC abc123 0" {
		t.Fatalf("got %+v", items[0])
	}
	if items[1].Kind != ItemRDBBlob || !bytes.Equal(items[1].Blob, payload) {
		t.Fatalf("got %+v", items[1])
	}
}

func TestDecodePartialFrameNotReturned(t *testing.T) {
	items := DecodeBuffer([]byte("*2\r\n$4\r\nECHO\r\n$4\r\nto"))
	if len(items) != 0 {
		t.Fatalf("expected no complete items, got %+v", items)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	argv := []string{"SET", "foo", "bar"}
	encoded := EncodeCommand(argv)
	items := DecodeBuffer(encoded)
	if len(items) != 1 || items[0].Kind != ItemCommand {
		t.Fatalf("got %+v", items)
	}
	for i, a := range argv {
		if items[0].Argv[i] != a {
			t.Fatalf("round trip mismatch at %d: %q != %q", i, items[0].Argv[i], a)
		}
	}
}

func TestEncodeBulkBytesHasNoTrailingCRLF(t *testing.T) {
	out := EncodeBulkBytes([]byte("abc"))
	if !bytes.Equal(out, []byte("$3\r\nabc")) {
		t.Fatalf("got %q", out)
	}
}
