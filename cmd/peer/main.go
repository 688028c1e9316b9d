package main

import (
	"log"

	"p2p-social/internal/peer"
)

func main() {
	cfg := peer.LoadConfig()
	app, err := peer.NewApp(cfg)
	if err != nil {
		log.Fatalf("init peer: %v", err)
	}
	log.Printf("peer %s using backend %s", app, cfg.BackendURL)
	app.Start()
	peer.WaitForShutdown(app)
}
