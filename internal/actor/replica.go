package actor

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"redis/internal/conn"
	"redis/internal/protocol"
	"redis/internal/rdb"
	"redis/internal/replication"
	"redis/internal/storage"
)

// replicaAllowedFromMaster mirrors original_source's actor/stores/replica.rs
// process_command allow-list, plus PING: everything else is logged and
// dropped.
var replicaAllowedFromMaster = map[string]bool{
	"ECHO": true, "SET": true, "GET": true, "CONFIG": true, "KEYS": true,
	"INFO": true, "REPLCONF": true, "PING": true,
}

// replicaCountsTowardOffset is Invariant I6: only these verbs' re-encoded
// RESP-array byte length is added to applied_bytes.
var replicaCountsTowardOffset = map[string]bool{
	"PING": true, "SET": true, "REPLCONF": true,
}

// Replica is the command-dispatch actor for the replica role (§4.5).
type Replica struct {
	store  *storage.Store
	config Config

	masterHost string
	masterPort int
	listenPort int

	masterInbound chan conn.Message
	clientInbound chan conn.Message

	appliedBytes int64
	masterReplID string
	linkUp       bool
}

// NewReplica builds a Replica actor. Callers must call ConnectToMaster
// before Run.
func NewReplica(store *storage.Store, cfg Config, masterHost string, masterPort, listenPort int) *Replica {
	return &Replica{
		store:         store,
		config:        cfg,
		masterHost:    masterHost,
		masterPort:    masterPort,
		listenPort:    listenPort,
		masterInbound: make(chan conn.Message, 1024),
		clientInbound: make(chan conn.Message, 1024),
	}
}

// ClientInbound is the channel local client connections forward decoded
// commands to.
func (r *Replica) ClientInbound() chan<- conn.Message { return r.clientInbound }

// ConnectToMaster performs the replication handshake (§6). The master
// socket is blocking for the duration of the handshake and reverts to the
// connection driver's normal (goroutine-driven) mode afterward.
func (r *Replica) ConnectToMaster() error {
	addr := fmt.Sprintf("%s:%d", r.masterHost, r.masterPort)
	socket, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to master %s: %w", addr, err)
	}

	var buf []byte
	send := func(argv []string) error {
		_, err := socket.Write(protocol.EncodeCommand(argv))
		return err
	}
	readItem := func() (protocol.BufferItem, error) {
		for {
			items := protocol.DecodeBuffer(buf)
			if len(items) > 0 {
				item := items[0]
				buf = buf[item.NBytes:]
				return item, nil
			}
			chunk := make([]byte, 4096)
			n, err := socket.Read(chunk)
			if err != nil {
				return protocol.BufferItem{}, err
			}
			buf = append(buf, chunk[:n]...)
		}
	}

	if err := send([]string{"PING"}); err != nil {
		return err
	}
	if _, err := readItem(); err != nil {
		return fmt.Errorf("handshake PING: %w", err)
	}

	if err := send([]string{"REPLCONF", "listening-port", strconv.Itoa(r.listenPort)}); err != nil {
		return err
	}
	if _, err := readItem(); err != nil {
		return fmt.Errorf("handshake REPLCONF listening-port: %w", err)
	}

	if err := send([]string{"REPLCONF", "capa", "psync2"}); err != nil {
		return err
	}
	if _, err := readItem(); err != nil {
		return fmt.Errorf("handshake REPLCONF capa: %w", err)
	}

	if err := send([]string{"PSYNC", "?", "-1"}); err != nil {
		return err
	}
	fullresync, err := readItem()
	if err != nil {
		return fmt.Errorf("handshake PSYNC: %w", err)
	}
	parts := strings.Fields(fullresync.Text)
	if len(parts) == 3 {
		r.masterReplID = parts[1]
	}

	rdbItem, err := readItem()
	if err != nil {
		return fmt.Errorf("handshake RDB payload: %w", err)
	}
	if rdbItem.Kind == protocol.ItemRDBBlob {
		if err := rdb.LoadBytes(r.store, rdbItem.Blob); err != nil {
			log.Printf("replica: RDB load warning: %v", err)
		}
	}

	r.linkUp = true

	// Any bytes still buffered are commands the master pipelined right
	// after the RDB snapshot; feed them through the normal dispatch path
	// before handing the socket off to the connection driver.
	for _, item := range protocol.DecodeBuffer(buf) {
		if item.Kind == protocol.ItemCommand {
			r.applyFromMaster(item.Verb, item.Argv, nil)
		}
	}

	conn.New(socket, r.masterInbound)
	return nil
}

// Run drains the master stream first, then local clients, once per tick —
// mirroring original_source/actor/stores/replica.rs::poll exactly.
func (r *Replica) Run() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-r.masterInbound:
			r.handleFromMaster(msg)
		default:
			select {
			case msg := <-r.masterInbound:
				r.handleFromMaster(msg)
			case msg := <-r.clientInbound:
				r.handleFromClient(msg)
			case <-ticker.C:
			}
		}
	}
}

func (r *Replica) handleFromMaster(msg conn.Message) {
	if msg.Closed {
		r.linkUp = false
		return
	}
	if !replicaAllowedFromMaster[msg.Verb] {
		log.Printf("replica: unsupported verb from master: %s", msg.Verb)
		return
	}
	r.applyFromMaster(msg.Verb, msg.Argv, msg.Reply)
}

// applyFromMaster executes one command replicated from the master. reply
// may be nil when called during handshake drain (before the connection
// driver exists); only REPLCONF GETACK needs a reply, and that never
// arrives mid-RDB-drain in practice.
func (r *Replica) applyFromMaster(verb string, argv []string, reply chan<- []byte) {
	if replicaCountsTowardOffset[verb] {
		r.appliedBytes += int64(len(protocol.EncodeCommand(argv)))
	}

	switch verb {
	case "PING":
		// No reply: PING from the master is just a keepalive here.
	case "SET":
		var expiresAt *time.Time
		if len(argv) == 5 && strings.EqualFold(argv[3], "px") {
			if ms, err := strconv.ParseInt(argv[4], 10, 64); err == nil {
				t := time.Now().Add(time.Duration(ms) * time.Millisecond)
				expiresAt = &t
			}
		}
		if len(argv) >= 3 {
			r.store.SetString(argv[1], argv[2], expiresAt)
		}
		// SET mutates the store without replying (§4.5).
	case "REPLCONF":
		if len(argv) >= 2 && strings.EqualFold(argv[1], "GETACK") && reply != nil {
			send(reply, protocol.EncodeCommand([]string{"REPLCONF", "ACK", strconv.FormatInt(r.appliedBytes, 10)}))
		}
	}
}

func (r *Replica) handleFromClient(msg conn.Message) {
	if msg.Closed {
		return
	}
	if !replicaAllowedFromMaster[msg.Verb] && msg.Verb != "ECHO" {
		send(msg.Reply, protocol.EncodeError("ERR this instance is a replica and refuses writes"))
		return
	}
	switch msg.Verb {
	case "PING":
		send(msg.Reply, protocol.EncodeSimpleString("PONG"))
	case "ECHO":
		if len(msg.Argv) == 2 {
			send(msg.Reply, protocol.EncodeBulkString(msg.Argv[1]))
		}
	case "GET":
		if len(msg.Argv) == 2 {
			if v, ok := r.store.GetString(msg.Argv[1]); ok {
				send(msg.Reply, protocol.EncodeBulkString(v))
			} else {
				send(msg.Reply, protocol.EncodeNullBulkString())
			}
		}
	case "KEYS":
		send(msg.Reply, protocol.EncodeArray(r.store.GetKeys()))
	case "CONFIG":
		if len(msg.Argv) == 3 && strings.EqualFold(msg.Argv[1], "GET") {
			key := strings.ToLower(msg.Argv[2])
			var value string
			switch key {
			case "dir":
				value = r.config.Dir
			case "dbfilename":
				value = r.config.DBFilename
			default:
				return
			}
			send(msg.Reply, protocol.EncodeArray([]string{msg.Argv[2], value}))
		}
	case "INFO":
		body := replication.ReplicaInfoLines(r.masterHost, r.masterPort, r.linkUp, r.appliedBytes, r.masterReplID)
		send(msg.Reply, protocol.EncodeBulkString(body))
	case "SET":
		send(msg.Reply, protocol.EncodeError("ERR this instance is a replica and refuses writes"))
	}
}
