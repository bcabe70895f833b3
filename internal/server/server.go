package server

import (
	"fmt"
	"log"
	"net"
	"path/filepath"

	"redis/internal/actor"
	"redis/internal/conn"
	"redis/internal/rdb"
	"redis/internal/script"
	"redis/internal/storage"
)

// Run builds the store, brings up the master or replica actor per cfg, and
// serves client connections until the listener fails. Grounded on the
// teacher's redis_server.go wiring (store → handler → listener) and on
// original_source/actor/mod.rs's build_and_run_master/build_and_run_replica,
// adapted to the goroutine+channel actor shape described in DESIGN.md.
func Run(cfg *Config) error {
	store := storage.NewStore()

	if cfg.Dir != "" && cfg.DBFilename != "" {
		if fileExists(filepath.Join(cfg.Dir, cfg.DBFilename)) {
			if err := rdb.Load(store, cfg.Dir, cfg.DBFilename); err != nil {
				log.Printf("server: RDB load warning: %v", err)
			} else {
				log.Printf("server: loaded RDB snapshot from %s", filepath.Join(cfg.Dir, cfg.DBFilename))
			}
		}
	}

	if cfg.InitScript != "" {
		if err := script.RunFile(store, cfg.InitScript); err != nil {
			return fmt.Errorf("server: init script: %w", err)
		}
		log.Printf("server: ran init script %s", cfg.InitScript)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	defer ln.Close()

	actorCfg := actor.Config{Dir: cfg.Dir, DBFilename: cfg.DBFilename}

	if cfg.IsReplica() {
		return runReplica(ln, store, actorCfg, cfg)
	}
	return runMaster(ln, store, actorCfg, cfg)
}

func runMaster(ln net.Listener, store *storage.Store, actorCfg actor.Config, cfg *Config) error {
	m := actor.NewMaster(store, actorCfg, rdb.EmptyRDBBytes)
	go m.Run()

	log.Printf("server: master listening on %s", ln.Addr())
	return acceptLoop(ln, m.Inbound())
}

func runReplica(ln net.Listener, store *storage.Store, actorCfg actor.Config, cfg *Config) error {
	host, port, err := cfg.MasterAddr()
	if err != nil {
		return err
	}

	r := actor.NewReplica(store, actorCfg, host, port, cfg.Port)
	if err := r.ConnectToMaster(); err != nil {
		return fmt.Errorf("server: replication handshake: %w", err)
	}
	go r.Run()

	log.Printf("server: replica of %s:%d listening on %s", host, port, ln.Addr())
	return acceptLoop(ln, r.ClientInbound())
}

// acceptLoop accepts client sockets forever and wires each one to inbound.
// It never blocks the actor: every accepted connection gets its own
// goroutine pair (internal/conn), and the actor only ever hears from them
// through the shared channel.
func acceptLoop(ln net.Listener, inbound chan<- conn.Message) error {
	for {
		socket, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		conn.New(socket, inbound)
	}
}
