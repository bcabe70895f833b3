// Package script adapts the teacher's Lua scripting engine
// (internal/lua/engine.go, internal/lua/redis_executor.go) into a narrow,
// non-RESP startup hook: SPEC_FULL.md §2's DOMAIN STACK entry for
// github.com/yuin/gopher-lua. The core spec's Non-goals exclude scripting as
// a client-facing feature (no EVAL/SCRIPT verb exists on the wire), so this
// package never runs from the command dispatcher — only once, at startup,
// from an optional --init-script file, to seed the store before the first
// client connects.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"redis/internal/storage"
)

// Executor is the narrow redis.call surface exposed to an init script:
// only SET and XADD, matching what a startup seeding script plausibly needs
// and what the spec's write path actually supports.
type Executor struct {
	store *storage.Store
}

// NewExecutor wraps store for use by RunFile.
func NewExecutor(store *storage.Store) *Executor {
	return &Executor{store: store}
}

// call executes one redis.call(verb, args...) invocation against the store
// directly (no RESP encoding involved; this never touches the network).
func (e *Executor) call(verb string, args []string) (string, error) {
	switch verb {
	case "SET":
		if len(args) < 2 {
			return "", fmt.Errorf("SET requires key and value")
		}
		e.store.SetString(args[0], args[1], nil)
		return "OK", nil

	case "XADD":
		if len(args) < 3 || (len(args)-2)%2 != 0 {
			return "", fmt.Errorf("XADD requires key, id, and field/value pairs")
		}
		key := args[0]
		req := storage.RequestedStreamEntryId{Kind: storage.AutoGenerate}
		if args[1] != "*" {
			// Startup seed scripts only ever use explicit ids or "*"; the
			// richer "<ts>-*" form belongs to the RESP-facing XADD parser
			// in internal/actor, not this narrow hook.
			var ts, seq uint64
			if n, _ := fmt.Sscanf(args[1], "%d-%d", &ts, &seq); n == 2 {
				req = storage.RequestedStreamEntryId{Kind: storage.Explicit, ID: storage.StreamEntryId{Timestamp: ts, Sequence: seq}}
			}
		}
		fields := make([]storage.FieldValue, 0, (len(args)-2)/2)
		for i := 2; i < len(args); i += 2 {
			fields = append(fields, storage.FieldValue{Name: args[i], Value: args[i+1]})
		}
		id, err := e.store.AddStreamEntry(key, req, fields)
		if err != nil {
			return "", err
		}
		return id.String(), nil

	default:
		return "", fmt.Errorf("unsupported init-script command %q", verb)
	}
}

// RunFile executes the Lua script at path once, seeding store via
// redis.call("SET", ...) / redis.call("XADD", ...), in the teacher's
// registerRedisAPI idiom narrowed to this package's Executor.
func RunFile(store *storage.Store, path string) error {
	exec := NewExecutor(store)

	L := lua.NewState()
	defer L.Close()

	redisTable := L.NewTable()
	redisTable.RawSetString("call", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		if n < 1 {
			L.RaiseError("redis.call requires at least one argument")
			return 0
		}
		verb := L.CheckString(1)
		args := make([]string, 0, n-1)
		for i := 2; i <= n; i++ {
			args = append(args, L.CheckString(i))
		}
		result, err := exec.call(verb, args)
		if err != nil {
			L.RaiseError(err.Error())
			return 0
		}
		L.Push(lua.LString(result))
		return 1
	}))
	L.SetGlobal("redis", redisTable)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script: running %s: %w", path, err)
	}
	return nil
}
