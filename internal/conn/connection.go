// Package conn implements the per-client connection driver: it owns one
// socket, decodes the RESP byte stream into commands, and forwards them to
// whichever actor (master or replica) the server is running, tagged with a
// stable ConnectionID and a reply channel the actor writes responses to.
//
// Each connection gets its own goroutine pair (reader, writer) for socket
// I/O, matching the teacher's goroutine-per-connection idiom
// (internal/server/redis_server.go's handleConnection), but neither
// goroutine ever touches the store directly — only the actor's inbound
// channel — preserving the single-owner discipline described in SPEC_FULL.md
// §5.
package conn

import (
	"io"
	"log"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"redis/internal/protocol"
)

// ID is a server-unique, stable identifier assigned when a socket is
// accepted.
type ID int64

var nextID atomic.Int64

// Message is what a connection driver forwards to an actor for one decoded
// command frame.
type Message struct {
	Conn   ID
	Verb   string
	Argv   []string
	Reply  chan<- []byte
	Addr   string
	Closed bool // true if this message only announces the connection died
}

// Connection owns one client (or master-replication) socket.
type Connection struct {
	ID    ID
	Label string // diagnostic uuid; not used for lookups and not included in any reply

	socket  net.Conn
	out     chan []byte
	inbound chan<- Message
	done    chan struct{}
}

// New wraps an accepted socket as a Connection. inbound is the shared
// channel the owning actor drains; New starts the reader and writer
// goroutines and returns immediately.
func New(socket net.Conn, inbound chan<- Message) *Connection {
	c := &Connection{
		ID:      ID(nextID.Add(1)),
		Label:   uuid.NewString(),
		socket:  socket,
		out:     make(chan []byte, 64),
		inbound: inbound,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c
}

// Send enqueues bytes to be written to this connection's socket. Safe to
// call from the actor goroutine; never blocks the caller on socket I/O.
func (c *Connection) Send(b []byte) {
	select {
	case c.out <- b:
	case <-c.done:
	}
}

// Close tears down the socket and both goroutines.
func (c *Connection) Close() {
	select {
	case <-c.done:
		return
	default:
	}
	close(c.done)
	c.socket.Close()
}

func (c *Connection) readLoop() {
	defer func() {
		c.inbound <- Message{Conn: c.ID, Closed: true}
		c.Close()
	}()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := c.socket.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			items := protocol.DecodeBuffer(buf)
			consumed := 0
			for _, item := range items {
				consumed += item.NBytes
				if item.Kind != protocol.ItemCommand {
					continue
				}
				select {
				case c.inbound <- Message{Conn: c.ID, Verb: item.Verb, Argv: item.Argv, Reply: c.out, Addr: c.socket.RemoteAddr().String()}:
				case <-c.done:
					return
				}
			}
			buf = append([]byte{}, buf[consumed:]...)
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("conn %d: read error: %v", c.ID, err)
			}
			return
		}
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case b := <-c.out:
			if _, err := c.socket.Write(b); err != nil {
				log.Printf("conn %d: write error: %v", c.ID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
