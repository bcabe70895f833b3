// Package actor implements the master and replica actors: the single
// logical owner of the Store and all replication/transaction/blocking
// bookkeeping (§4.4, §4.5). Each actor runs its command loop on its own
// goroutine, reached only through a buffered inbound channel fed by
// connection drivers (internal/conn) — this is the Go rendering of the
// single-threaded, non-blocking actor discipline described in SPEC_FULL.md
// §5: no other goroutine ever touches the Store.
package actor

import (
	"log"
	"strconv"
	"strings"
	"time"

	"redis/internal/conn"
	"redis/internal/protocol"
	"redis/internal/replication"
	"redis/internal/storage"
)

// replicaHandle is one connected replica's fan-out target.
type replicaHandle struct {
	connID conn.ID
	out    chan<- []byte
	addr   string
}

// waitForAcks is the (at most one, per §9 Open Question 4) outstanding WAIT.
type waitForAcks struct {
	reply    chan<- []byte
	expected int
	received int
	deadline *time.Time
}

// Config is the subset of CLI configuration the actor exposes through
// CONFIG GET, grounded on original_source/config.rs's dbfile_config.
type Config struct {
	Dir        string
	DBFilename string
}

// Master is the command-dispatch actor for the master role.
type Master struct {
	store  *storage.Store
	config Config

	inbound chan conn.Message

	replID            string
	propagatedBytes   int64
	lastAckCheckpoint int64
	replicas          []*replicaHandle

	tx      *transactionManager
	waiters *xreadWaitlist
	wait    *waitForAcks

	emptyRDB []byte
}

// NewMaster builds a Master actor. inbound is shared by every connection
// driver routed to this actor; callers must start Run in its own goroutine.
func NewMaster(store *storage.Store, cfg Config, emptyRDB []byte) *Master {
	return &Master{
		store:    store,
		config:   cfg,
		inbound:  make(chan conn.Message, 1024),
		replID:   replication.GenerateReplID(),
		tx:       newTransactionManager(),
		waiters:  newXREADWaitlist(),
		emptyRDB: emptyRDB,
	}
}

// Inbound returns the channel connection drivers should forward decoded
// commands to.
func (m *Master) Inbound() chan<- conn.Message { return m.inbound }

// Run drains the inbound queue and checks deferred-reply deadlines once per
// tick, forever. It never blocks on socket I/O — all replies go out through
// per-connection channels.
func (m *Master) Run() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-m.inbound:
			m.handleMessage(msg)
		case <-ticker.C:
			m.checkDeadlines()
		}
	}
}

func send(ch chan<- []byte, b []byte) {
	select {
	case ch <- b:
	default:
		log.Printf("actor: dropping reply, outbound channel full")
	}
}

func (m *Master) handleMessage(msg conn.Message) {
	if msg.Closed {
		m.onDisconnect(msg.Conn)
		return
	}

	if m.tx.isOpen(msg.Conn) {
		switch msg.Verb {
		case "EXEC":
			m.execTransaction(msg)
		case "DISCARD":
			m.tx.discard(msg.Conn)
			send(msg.Reply, protocol.EncodeSimpleString("OK"))
		default:
			m.tx.enqueue(msg.Conn, msg.Verb, msg.Argv)
			send(msg.Reply, protocol.EncodeSimpleString("QUEUED"))
		}
		return
	}

	reply := m.dispatch(msg, true)
	if reply != nil {
		send(msg.Reply, reply)
	}
}

func (m *Master) execTransaction(msg conn.Message) {
	commands := m.tx.take(msg.Conn)
	results := make([][]byte, 0, len(commands))
	for _, qc := range commands {
		sub := conn.Message{Conn: msg.Conn, Verb: qc.Verb, Argv: qc.Argv, Reply: msg.Reply}
		r := m.dispatch(sub, false)
		if r == nil {
			r = protocol.EncodeNullBulkString()
		}
		results = append(results, r)
	}
	send(msg.Reply, protocol.EncodeRawArray(results))
}

// dispatch executes one command and returns its reply, or nil when the
// reply has already been sent directly (PSYNC's multi-chunk response) or is
// deferred (blocking XREAD, WAIT). When deferAllowed is false (inside
// EXEC), blocking/deferred verbs instead produce an immediate best-effort
// reply, since a transaction can't suspend mid-array.
func (m *Master) dispatch(msg conn.Message, deferAllowed bool) []byte {
	verb := msg.Verb
	argv := msg.Argv

	switch verb {
	case "PING":
		return protocol.EncodeSimpleString("PONG")

	case "ECHO":
		if len(argv) != 2 {
			return wrongNumArgs("echo")
		}
		return protocol.EncodeBulkString(argv[1])

	case "SET":
		return m.cmdSet(argv)

	case "GET":
		if len(argv) != 2 {
			return wrongNumArgs("get")
		}
		v, ok := m.store.GetString(argv[1])
		if !ok {
			return protocol.EncodeNullBulkString()
		}
		return protocol.EncodeBulkString(v)

	case "INCR":
		if len(argv) != 2 {
			return wrongNumArgs("incr")
		}
		n, err := m.store.Incr(argv[1])
		if err != nil {
			return protocol.EncodeError(err.Error())
		}
		return protocol.EncodeInteger64(n)

	case "TYPE":
		if len(argv) != 2 {
			return wrongNumArgs("type")
		}
		return protocol.EncodeSimpleString(m.store.GetItemType(argv[1]).String())

	case "XADD":
		return m.cmdXAdd(argv)

	case "XRANGE":
		return m.cmdXRange(argv)

	case "XREAD":
		return m.cmdXRead(msg, deferAllowed)

	case "KEYS":
		return protocol.EncodeArray(m.store.GetKeys())

	case "CONFIG":
		return m.cmdConfig(argv)

	case "INFO":
		return m.cmdInfo(argv)

	case "REPLCONF":
		return m.cmdReplConf(msg, argv)

	case "PSYNC":
		m.cmdPSync(msg)
		return nil

	case "WAIT":
		return m.cmdWait(msg, argv, deferAllowed)

	case "MULTI":
		m.tx.begin(msg.Conn)
		return protocol.EncodeSimpleString("OK")

	case "EXEC":
		return protocol.EncodeError("ERR EXEC without MULTI")

	case "DISCARD":
		return protocol.EncodeError("ERR DISCARD without MULTI")
	}

	return protocol.EncodeError("ERR unknown command '" + verb + "'")
}

func (m *Master) cmdSet(argv []string) []byte {
	if len(argv) != 3 && len(argv) != 5 {
		return wrongNumArgs("set")
	}
	var expiresAt *time.Time
	if len(argv) == 5 {
		if !strings.EqualFold(argv[3], "px") {
			return wrongNumArgs("set")
		}
		ms, err := strconv.ParseInt(argv[4], 10, 64)
		if err != nil {
			return protocol.EncodeError("ERR value is not an integer or out of range")
		}
		t := time.Now().Add(time.Duration(ms) * time.Millisecond)
		expiresAt = &t
	}

	m.store.SetString(argv[1], argv[2], expiresAt)

	sum := 0
	for _, a := range argv {
		sum += len(a)
	}
	m.propagatedBytes += int64(sum)
	m.propagate(argv)

	return protocol.EncodeSimpleString("OK")
}

func (m *Master) cmdXAdd(argv []string) []byte {
	if len(argv) < 4 || (len(argv)-3)%2 != 0 {
		return wrongNumArgs("xadd")
	}
	key := argv[1]
	req, err := parseRequestedID(argv[2])
	if err != nil {
		return protocol.EncodeError(err.Error())
	}
	fields := make([]storage.FieldValue, 0, (len(argv)-3)/2)
	for i := 3; i < len(argv); i += 2 {
		fields = append(fields, storage.FieldValue{Name: argv[i], Value: argv[i+1]})
	}

	id, err := m.store.AddStreamEntry(key, req, fields)
	if err != nil {
		return protocol.EncodeError(err.Error())
	}

	for _, waiter := range m.waiters.fulfil(key) {
		entries := m.store.GetStreamAfter(key, id)
		reply := encodeXREADReply([]xreadStreamResult{{Key: key, Entries: entries}})
		send(waiter.reply, reply)
	}

	return protocol.EncodeBulkString(id.String())
}

func (m *Master) cmdXRange(argv []string) []byte {
	if len(argv) != 4 {
		return wrongNumArgs("xrange")
	}
	start := parseRangeBound(argv[2], true)
	end := parseRangeBound(argv[3], false)
	entries := m.store.GetStreamRange(argv[1], start, end)
	return encodeEntries(entries)
}

func (m *Master) cmdXRead(msg conn.Message, deferAllowed bool) []byte {
	argv := msg.Argv
	blockMs, keys, ids, ok := parseXRead(argv)
	if !ok {
		return wrongNumArgs("xread")
	}

	var results []xreadStreamResult
	for i, key := range keys {
		after, resolved := m.resolveXReadID(key, ids[i])
		if !resolved {
			return protocol.EncodeError("ERR Invalid stream ID specified as stream command argument")
		}
		entries := m.store.GetStreamAfter(key, after)
		if len(entries) > 0 {
			results = append(results, xreadStreamResult{Key: key, Entries: entries})
		}
	}

	if len(results) > 0 {
		return encodeXREADReply(results)
	}

	if blockMs == nil || !deferAllowed {
		return protocol.EncodeNilArray()
	}

	var deadline *time.Time
	if *blockMs > 0 {
		t := time.Now().Add(time.Duration(*blockMs) * time.Millisecond)
		deadline = &t
	}
	m.waiters.register(&blockedXREAD{connID: msg.Conn, reply: msg.Reply, streams: keys, deadline: deadline})
	return nil
}

// resolveXReadID turns an XREAD id token ("$" or an explicit id) into the
// concrete StreamEntryId to gather entries after (>=, per §9 Open Question
// 2).
func (m *Master) resolveXReadID(key, tok string) (storage.StreamEntryId, bool) {
	if tok == "$" {
		if last, ok := m.store.LastStreamID(key); ok {
			return last, true
		}
		return storage.StreamEntryId{}, true
	}
	return parseStreamEntryID(tok)
}

// parseXRead parses `[BLOCK ms] STREAMS k1..kN id1..idN`, case-insensitive
// on BLOCK/STREAMS.
func parseXRead(argv []string) (blockMs *int64, keys []string, ids []string, ok bool) {
	i := 1
	if i < len(argv) && strings.EqualFold(argv[i], "BLOCK") {
		if i+1 >= len(argv) {
			return nil, nil, nil, false
		}
		ms, err := strconv.ParseInt(argv[i+1], 10, 64)
		if err != nil {
			return nil, nil, nil, false
		}
		blockMs = &ms
		i += 2
	}
	if i >= len(argv) || !strings.EqualFold(argv[i], "STREAMS") {
		return nil, nil, nil, false
	}
	i++
	rest := argv[i:]
	if len(rest)%2 != 0 || len(rest) == 0 {
		return nil, nil, nil, false
	}
	n := len(rest) / 2
	return blockMs, rest[:n], rest[n:], true
}

func (m *Master) cmdConfig(argv []string) []byte {
	if len(argv) != 3 || !strings.EqualFold(argv[1], "GET") {
		return wrongNumArgs("config")
	}
	key := strings.ToLower(argv[2])
	var value string
	switch key {
	case "dir":
		value = m.config.Dir
	case "dbfilename":
		value = m.config.DBFilename
	default:
		return nil // miss: no reply at all, per §4.4's CONFIG GET contract.
	}
	return protocol.EncodeArray([]string{argv[2], value})
}

func (m *Master) cmdInfo(argv []string) []byte {
	slaves := make([]replication.SlaveInfo, 0, len(m.replicas))
	for _, r := range m.replicas {
		slaves = append(slaves, replication.SlaveInfo{IP: r.addr, Port: "?", Offset: m.propagatedBytes})
	}
	body := replication.MasterInfoLines(m.replID, m.propagatedBytes, slaves)
	return protocol.EncodeBulkString(body)
}

func (m *Master) cmdReplConf(msg conn.Message, argv []string) []byte {
	if len(argv) < 2 {
		return wrongNumArgs("replconf")
	}
	if strings.EqualFold(argv[1], "ACK") {
		if m.wait != nil {
			m.wait.received++
		}
		return nil
	}
	return protocol.EncodeSimpleString("OK")
}

func (m *Master) cmdPSync(msg conn.Message) {
	send(msg.Reply, protocol.EncodeSimpleString("FULLRESYNC "+m.replID+" "+strconv.FormatInt(m.propagatedBytes, 10)))
	send(msg.Reply, protocol.EncodeBulkBytes(m.emptyRDB))
	m.replicas = append(m.replicas, &replicaHandle{connID: msg.Conn, out: msg.Reply, addr: msg.Addr})
}

func (m *Master) cmdWait(msg conn.Message, argv []string, deferAllowed bool) []byte {
	if len(argv) != 3 {
		return wrongNumArgs("wait")
	}
	n, err1 := strconv.Atoi(argv[1])
	timeoutMs, err2 := strconv.ParseInt(argv[2], 10, 64)
	if err1 != nil || err2 != nil {
		return protocol.EncodeError("ERR value is not an integer or out of range")
	}

	if n == 0 {
		return protocol.EncodeInteger(0)
	}
	if m.lastAckCheckpoint == m.propagatedBytes {
		return protocol.EncodeInteger(len(m.replicas))
	}
	if !deferAllowed {
		return protocol.EncodeInteger(0)
	}

	m.propagate([]string{"REPLCONF", "GETACK", "*"})

	var deadline *time.Time
	if timeoutMs > 0 {
		t := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
		deadline = &t
	}
	m.wait = &waitForAcks{reply: msg.Reply, expected: n, received: 0, deadline: deadline}
	return nil
}

func (m *Master) propagate(argv []string) {
	encoded := protocol.EncodeCommand(argv)
	for _, r := range m.replicas {
		send(r.out, encoded)
	}
}

func (m *Master) checkDeadlines() {
	now := time.Now()

	if m.wait != nil && (m.wait.received >= m.wait.expected || (m.wait.deadline != nil && !now.Before(*m.wait.deadline))) {
		send(m.wait.reply, protocol.EncodeInteger(m.wait.received))
		m.lastAckCheckpoint = m.propagatedBytes
		m.wait = nil
	}

	for _, b := range m.waiters.expired(now) {
		// A deferred XREAD's timeout reply is a null bulk string, not a nil
		// array, per original_source/actor/master.rs::check_on_blocking_xreads.
		send(b.reply, protocol.EncodeNullBulkString())
	}
}

func (m *Master) onDisconnect(id conn.ID) {
	m.tx.removeConnection(id)
	m.waiters.removeConnection(id)
	for i, r := range m.replicas {
		if r.connID == id {
			m.replicas = append(m.replicas[:i], m.replicas[i+1:]...)
			break
		}
	}
}
