package actor

import "redis/internal/conn"

// queuedCommand is one command captured between MULTI and EXEC/DISCARD.
type queuedCommand struct {
	Verb string
	Argv []string
}

// transaction is the per-connection queue described in §3's Transaction
// type. Narrowed from the teacher's TransactionManager
// (internal/handler/transaction.go): the spec has no WATCH, so the
// dirty-flag/key-watcher machinery is dropped — see DESIGN.md.
type transaction struct {
	queued []queuedCommand
}

// transactionManager tracks at most one open transaction per connection.
type transactionManager struct {
	open map[conn.ID]*transaction
}

func newTransactionManager() *transactionManager {
	return &transactionManager{open: make(map[conn.ID]*transaction)}
}

func (tm *transactionManager) begin(id conn.ID) {
	tm.open[id] = &transaction{}
}

func (tm *transactionManager) isOpen(id conn.ID) bool {
	_, ok := tm.open[id]
	return ok
}

func (tm *transactionManager) enqueue(id conn.ID, verb string, argv []string) {
	tx := tm.open[id]
	tx.queued = append(tx.queued, queuedCommand{Verb: verb, Argv: argv})
}

func (tm *transactionManager) take(id conn.ID) []queuedCommand {
	tx := tm.open[id]
	delete(tm.open, id)
	if tx == nil {
		return nil
	}
	return tx.queued
}

func (tm *transactionManager) discard(id conn.ID) {
	delete(tm.open, id)
}

// removeConnection drops any open transaction when its connection closes.
func (tm *transactionManager) removeConnection(id conn.ID) {
	delete(tm.open, id)
}
