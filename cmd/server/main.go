package main

import (
	"log"
	"os"

	"redis/internal/server"
)

func main() {
	cfg, err := server.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	if err := server.Run(cfg); err != nil {
		log.Fatalf("redis: %v", err)
	}
}
