// Package replication holds the small stateless helpers shared by the
// master and replica actors: replication ID generation and the INFO
// formatting helpers. The actual replica registry and offset counters are
// actor-owned state (internal/actor), not exposed here, because the spec's
// single-actor-owns-everything discipline (§5) means no other goroutine may
// read or mutate them without going through the actor's message queue.
//
// Grounded on the teacher's internal/replication/replication.go
// (generateReplID, GetInfo), narrowed to drop the goroutine/channel-based
// ReplicationManager and its own propagation loop — propagation here is
// just the master actor writing to each replica's outbound channel in the
// same tick as the triggering write (§5 ordering guarantee).
package replication

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Role is which side of the topology this node plays.
type Role int

const (
	RoleMaster Role = iota
	RoleReplica
)

func (r Role) String() string {
	if r == RoleReplica {
		return "slave"
	}
	return "master"
}

// GenerateReplID produces a 40 hex character identifier, matching real
// Redis's replid format.
func GenerateReplID() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// SlaveInfo is one connected replica's diagnostic summary.
type SlaveInfo struct {
	IP     string
	Port   string
	Offset int64
}

// MasterInfoLines builds the INI-style body of INFO replication for a
// master node, per §4.4's per-verb contract plus the connected_slaves/slaveN
// diagnostic lines noted as a SPEC_FULL supplement.
func MasterInfoLines(replID string, offset int64, slaves []SlaveInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "role:master\r\n")
	fmt.Fprintf(&b, "connected_slaves:%d\r\n", len(slaves))
	for i, s := range slaves {
		fmt.Fprintf(&b, "slave%d:ip=%s,port=%s,state=online,offset=%d\r\n", i, s.IP, s.Port, s.Offset)
	}
	fmt.Fprintf(&b, "master_replid:%s\r\n", replID)
	fmt.Fprintf(&b, "master_repl_offset:%d\r\n", offset)
	return b.String()
}

// ReplicaInfoLines builds the INI-style body of INFO replication for a
// replica node.
func ReplicaInfoLines(masterHost string, masterPort int, linkUp bool, appliedBytes int64, replID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "role:slave\r\n")
	fmt.Fprintf(&b, "master_host:%s\r\n", masterHost)
	fmt.Fprintf(&b, "master_port:%d\r\n", masterPort)
	status := "down"
	if linkUp {
		status = "up"
	}
	fmt.Fprintf(&b, "master_link_status:%s\r\n", status)
	fmt.Fprintf(&b, "slave_repl_offset:%d\r\n", appliedBytes)
	fmt.Fprintf(&b, "master_replid:%s\r\n", replID)
	return b.String()
}
