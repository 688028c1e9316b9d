package main

import (
	"context"
	"log"

	"p2p-social/internal/bootstrap"
)

func main() {
	cfg := bootstrap.LoadConfig()
	app, err := bootstrap.NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("backend init: %v", err)
	}
	if err := app.Start(); err != nil {
		log.Fatalf("backend start: %v", err)
	}
	bootstrap.WaitForShutdown(app)
}
